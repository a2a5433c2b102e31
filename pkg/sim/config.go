package sim

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/miniboard/pkg/l0/board"
	"github.com/robotalks/miniboard/pkg/l0/store"
)

// Config defines the simulated peripherals.
type Config struct {
	Origin    LatLon
	GPSPeriod time.Duration
	// Pots pins potentiometers, e.g. "512,,1023" pins pot 1 and 3.
	Pots string
}

var defaultConfig = Config{
	Origin:    LatLon{Lat: 47.6205, Lon: -122.3493},
	GPSPeriod: time.Second,
}

func init() {
	if val := os.Getenv("MINIBOARD_SIM_ORIGIN"); val != "" {
		if origin, err := ParseLatLon(val); err == nil {
			defaultConfig.Origin = origin
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.Origin.Lat, "sim-lat", defaultConfig.Origin.Lat, "Simulated GPS origin latitude")
	flag.Float64Var(&defaultConfig.Origin.Lon, "sim-lon", defaultConfig.Origin.Lon, "Simulated GPS origin longitude")
	flag.DurationVar(&defaultConfig.GPSPeriod, "sim-gps-period", defaultConfig.GPSPeriod, "Simulated GPS fix period")
	flag.StringVar(&defaultConfig.Pots, "sim-pots", defaultConfig.Pots, "Pinned pot values, comma separated, empty sweeps")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// ParseLatLon parses "lat,lon".
func ParseLatLon(s string) (LatLon, error) {
	var pos LatLon
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return pos, strconv.ErrSyntax
	}
	var err error
	if pos.Lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return pos, err
	}
	pos.Lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	return pos, err
}

// NewPeripherals creates a complete set of simulated peripherals.
func (c *Config) NewPeripherals() (board.Peripherals, error) {
	rover := NewRover()
	gps := NewGPS(rover, c.Origin)
	gps.Period = c.GPSPeriod
	adc := NewADC()
	if c.Pots != "" {
		vals := strings.Split(c.Pots, ",")
		if len(vals) > store.NumPots {
			return board.Peripherals{}, fmt.Errorf("at most %d pots", store.NumPots)
		}
		for n, val := range vals {
			if val = strings.TrimSpace(val); val == "" {
				continue
			}
			v, err := strconv.Atoi(val)
			if err != nil {
				return board.Peripherals{}, err
			}
			adc.SetPot(n+1, v)
		}
	}
	return board.Peripherals{
		ADC:      adc,
		GPS:      gps,
		Motor:    &Motor{Rover: rover},
		Callsign: &Callsign{},
		Camera:   &Camera{},
		LED:      &LED{Name: "status"},
	}, nil
}
