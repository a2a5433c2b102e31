package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/miniboard/pkg/l0/store"
)

func TestRoverAdvance(t *testing.T) {
	const full = math.MaxInt16
	// a quarter turn on one wheel at 1 m/s around a 0.3 m track.
	seconds := math.Pi / 2 * 0.3
	quarter := time.Duration(seconds * float64(time.Second))
	testCases := []struct {
		name        string
		left, right int16
		after       time.Duration
		x, y        float64
		heading     float64
	}{
		{
			name:    "forward",
			left:    full,
			right:   full,
			after:   time.Second,
			y:       1,
			heading: 90,
		},
		{
			name:    "reverse",
			left:    -full,
			right:   -full,
			after:   2 * time.Second,
			y:       -2,
			heading: 90,
		},
		{
			name:    "spin in place",
			left:    -full,
			right:   full,
			after:   quarter / 2,
			heading: 180,
		},
		{
			name:    "quarter arc left",
			left:    0,
			right:   full,
			after:   quarter,
			x:       -0.15,
			y:       0.15,
			heading: 180,
		},
		{
			name:    "stopped",
			after:   time.Second,
			heading: 90,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRover()
			r.SetWheels(tc.left, tc.right)
			pose := r.Advance(tc.after)
			require.InDelta(t, tc.x, pose.X, 1e-6)
			require.InDelta(t, tc.y, pose.Y, 1e-6)
			require.InDelta(t, math.Abs(tc.heading), math.Abs(pose.Orientation.Degrees()), 1e-6)
		})
	}
}

func TestGPSFix(t *testing.T) {
	s := store.New()
	rover := NewRover()
	origin := LatLon{Lat: 47.6, Lon: -122.3}
	gps := NewGPS(rover, origin)
	require.NoError(t, gps.Init(s))
	for n := 0; n < gps.Acquire; n++ {
		require.NoError(t, gps.Step(time.Second))
		require.Equal(t, FixNone, s.GPSFix.Uint8())
	}
	require.NoError(t, gps.Step(time.Second))
	require.Equal(t, Fix3D, s.GPSFix.Uint8())
	require.InDelta(t, origin.Lat, s.GPSLatitude.Float32(), 1e-5)
	require.InDelta(t, origin.Lon, s.GPSLongitude.Float32(), 1e-5)

	(&Motor{Rover: rover}).Drive(math.MaxInt16, math.MaxInt16)
	require.NoError(t, gps.Step(10*time.Second))
	require.InDelta(t, origin.Lat+10/EarthRadius*180/math.Pi, s.GPSLatitude.Float32(), 1e-5)
	require.InDelta(t, origin.Lon, s.GPSLongitude.Float32(), 1e-5)
}

func TestADC(t *testing.T) {
	start := time.Unix(0, 0)
	now := start
	adc := NewADC()
	adc.Start, adc.Now = start, func() time.Time { return now }

	require.Equal(t, uint16(8400), adc.BatteryMillivolts())
	now = start.Add(time.Hour)
	require.Equal(t, uint16(7500), adc.BatteryMillivolts())
	now = start.Add(3 * time.Hour)
	require.Equal(t, uint16(6600), adc.BatteryMillivolts())

	now = start
	require.Equal(t, uint16(0), adc.Pot(1))
	now = start.Add(5 * time.Second)
	require.Equal(t, uint16(PotMax), adc.Pot(1))
	adc.SetPot(1, 512)
	require.Equal(t, uint16(512), adc.Pot(1))
	adc.SetPot(1, -1)
	require.Equal(t, uint16(PotMax), adc.Pot(1))
}

func TestCameraAndCallsign(t *testing.T) {
	var cam Camera
	id, err := cam.Snapshot()
	require.NoError(t, err)
	require.Equal(t, uint16(1), id)
	id, _ = cam.Snapshot()
	require.Equal(t, uint16(2), id)

	var cs Callsign
	require.NoError(t, cs.Set("KK7ABC"))
	require.Equal(t, "KK7ABC", cs.Get())
	require.Equal(t, ErrInvalidCallsign, cs.Set("KK7 ABC"))
	require.Equal(t, ErrInvalidCallsign, cs.Set("ABCDEFGHIJKLMNOPQ"))
	require.Equal(t, ErrInvalidCallsign, cs.Validate("N0 CALL"))
	require.NoError(t, cs.Validate("W1AW"))
	require.Equal(t, "KK7ABC", cs.Get())

	led := &LED{Name: "status"}
	led.Toggle()
	require.True(t, led.On())
	led.Set(false)
	require.False(t, led.On())
}

func TestNewPeripherals(t *testing.T) {
	conf := &Config{Origin: LatLon{Lat: 1, Lon: 2}, GPSPeriod: time.Millisecond, Pots: "512,,1023"}
	p, err := conf.NewPeripherals()
	require.NoError(t, err)
	require.Equal(t, uint16(512), p.ADC.Pot(1))
	require.Equal(t, uint16(PotMax), p.ADC.Pot(3))
	require.Equal(t, time.Millisecond, p.GPS.(*GPS).Period)

	conf.Pots = "1,2,3,4,5,6"
	_, err = conf.NewPeripherals()
	require.Error(t, err)
	conf.Pots = "high"
	_, err = conf.NewPeripherals()
	require.Error(t, err)

	pos, err := ParseLatLon("47.5, -122.25")
	require.NoError(t, err)
	require.Equal(t, LatLon{Lat: 47.5, Lon: -122.25}, pos)
	_, err = ParseLatLon("47.5")
	require.Error(t, err)
}
