package board

import (
	fx "github.com/robotalks/miniboard/pkg/framework"
	"github.com/robotalks/miniboard/pkg/l0/store"
)

// ADC samples analog channels.
type ADC interface {
	// BatteryMillivolts reads the battery voltage in mV.
	BatteryMillivolts() uint16
	// Pot reads potentiometer channel ch, 1 to store.NumPots.
	Pot(ch int) uint16
}

// GPS receives fixes asynchronously and publishes them into the
// GPSFix, GPSLatitude and GPSLongitude cells from its own goroutine.
type GPS interface {
	Init(s *store.Store) error
	fx.Runnable
}

// Motor drives the two wheels.
type Motor interface {
	Init() error
	Drive(left, right int16) error
	Stop() error
}

// Callsign is the radio callsign module.
type Callsign interface {
	Validate(callsign string) error
	Set(callsign string) error
	Get() string
}

// Camera captures snapshots.
type Camera interface {
	// Snapshot captures a frame and returns its id.
	Snapshot() (uint16, error)
}

// LED is a single GPIO driven indicator.
type LED interface {
	Set(on bool)
	Toggle()
}

// Peripherals are the collaborators of a Board.
// ADC and LED are required, the others are optional.
type Peripherals struct {
	ADC      ADC
	GPS      GPS
	Motor    Motor
	Callsign Callsign
	Camera   Camera
	LED      LED
}
