package sim

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/miniboard/pkg/l0/store"
)

// ADC simulates a draining battery and potentiometers.
type ADC struct {
	// Full and Empty battery voltages in mV.
	Full, Empty uint16
	// Drain is the time from Full to Empty.
	Drain time.Duration
	Start time.Time
	// Now returns the current time, time.Now if nil.
	Now func() time.Time

	lock sync.Mutex
	pots [store.NumPots]int
}

// PotMax is the full scale of a 10-bit pot reading.
const PotMax = 1023

// NewADC creates an ADC with a 2S lithium battery draining in 2 hours.
func NewADC() *ADC {
	a := &ADC{Full: 8400, Empty: 6600, Drain: 2 * time.Hour, Start: time.Now()}
	for n := range a.pots {
		a.pots[n] = -1
	}
	return a
}

func (a *ADC) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// BatteryMillivolts implements board.ADC.
func (a *ADC) BatteryMillivolts() uint16 {
	frac := float64(a.now().Sub(a.Start)) / float64(a.Drain)
	if frac >= 1 {
		return a.Empty
	}
	if frac < 0 {
		frac = 0
	}
	return a.Full - uint16(float64(a.Full-a.Empty)*frac)
}

// SetPot pins pot ch to val, a negative val restores the sweep.
func (a *ADC) SetPot(ch, val int) {
	a.lock.Lock()
	a.pots[ch-1] = val
	a.lock.Unlock()
}

// Pot implements board.ADC. Unpinned channel ch sweeps with a
// period of ch*10 seconds.
func (a *ADC) Pot(ch int) uint16 {
	a.lock.Lock()
	val := a.pots[ch-1]
	a.lock.Unlock()
	if val >= 0 {
		return uint16(val)
	}
	period := time.Duration(ch) * 10 * time.Second
	phase := float64(a.now().Sub(a.Start)%period) / float64(period)
	return uint16(math.Round((1 - math.Cos(2*math.Pi*phase)) / 2 * PotMax))
}

// Camera numbers snapshots sequentially.
type Camera struct {
	seq atomic.Uint32
}

// Snapshot implements board.Camera.
func (c *Camera) Snapshot() (uint16, error) {
	return uint16(c.seq.Add(1)), nil
}

// ErrInvalidCallsign indicates a callsign the radio rejects.
var ErrInvalidCallsign = errors.New("invalid callsign")

// Callsign is an in-memory radio callsign module.
type Callsign struct {
	lock  sync.Mutex
	value string
}

// Validate implements board.Callsign. A callsign is up to
// store.CallsignSize printable characters without spaces.
func (c *Callsign) Validate(callsign string) error {
	if len(callsign) > store.CallsignSize {
		return ErrInvalidCallsign
	}
	for _, ch := range callsign {
		if ch <= ' ' || ch > '~' {
			return ErrInvalidCallsign
		}
	}
	return nil
}

// Set implements board.Callsign.
func (c *Callsign) Set(callsign string) error {
	if err := c.Validate(callsign); err != nil {
		return err
	}
	c.lock.Lock()
	c.value = callsign
	c.lock.Unlock()
	glog.Infof("radio: callsign %q", callsign)
	return nil
}

// Get implements board.Callsign.
func (c *Callsign) Get() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.value
}

// LED logs its state.
type LED struct {
	Name string

	lock sync.Mutex
	on   bool
}

// Set implements board.LED.
func (l *LED) Set(on bool) {
	l.lock.Lock()
	l.on = on
	l.lock.Unlock()
	glog.V(3).Infof("led %s: %v", l.Name, on)
}

// Toggle implements board.LED.
func (l *LED) Toggle() {
	l.lock.Lock()
	l.on = !l.on
	on := l.on
	l.lock.Unlock()
	glog.V(3).Infof("led %s: %v", l.Name, on)
}

// On returns the LED state.
func (l *LED) On() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.on
}
