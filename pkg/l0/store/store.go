// Package store holds the board state shared between the main loop,
// asynchronous producers and the comms engine.
package store

// NumPots is the number of potentiometer channels sampled.
const NumPots = 5

// Sizes of the variable-length fields.
const (
	DebugInfoSize = 32
	CallsignSize  = 16
	BuildInfoSize = 32
)

// Store is the board data store. Every field has a single producer:
//
//	BatteryVoltage, Pots       main loop
//	GPSFix, GPSLat/Longitude   GPS module
//	MotorLeft/Right, EStop     comms engine (host writes)
//	Callsign                   comms engine (host writes)
//	DebugInfo                  debug trigger
//	CameraSnapshot             camera trigger
//
// Readers are the comms engine and the telemetry publisher.
type Store struct {
	BatteryVoltage *Cell
	Pots           [NumPots]*Cell
	GPSFix         *Cell
	GPSLatitude    *Cell
	GPSLongitude   *Cell
	MotorLeft      *Cell
	MotorRight     *Cell
	EStop          *Cell
	CameraSnapshot *Cell
	DebugInfo      *Cell
	Callsign       *Cell
	BuildInfo      *Cell

	cells []*Cell
}

// New creates a Store with all cells zero-valued.
func New() *Store {
	s := &Store{
		BatteryVoltage: NewCell("battery_voltage", 2),
		GPSFix:         NewCell("gps_fix", 1),
		GPSLatitude:    NewCell("gps_latitude", 4),
		GPSLongitude:   NewCell("gps_longitude", 4),
		MotorLeft:      NewCell("motor_left", 2),
		MotorRight:     NewCell("motor_right", 2),
		EStop:          NewCell("e_stop", 1),
		CameraSnapshot: NewCell("camera_snapshot", 2),
		DebugInfo:      NewCell("debug_info", DebugInfoSize),
		Callsign:       NewCell("callsign", CallsignSize),
		BuildInfo:      NewCell("build_info", BuildInfoSize),
	}
	for n := range s.Pots {
		s.Pots[n] = NewCell(potName(n+1), 2)
	}
	s.cells = append(s.cells, s.BatteryVoltage)
	s.cells = append(s.cells, s.Pots[:]...)
	s.cells = append(s.cells,
		s.GPSFix, s.GPSLatitude, s.GPSLongitude,
		s.MotorLeft, s.MotorRight, s.EStop,
		s.CameraSnapshot, s.DebugInfo, s.Callsign, s.BuildInfo)

	// numeric fields start as explicit zeros rather than empty.
	for _, c := range s.cells {
		if c.Cap() <= 4 {
			c.Commit(make([]byte, c.Cap()))
		}
	}
	return s
}

// Cells returns all cells in a fixed order.
func (s *Store) Cells() []*Cell {
	return s.cells
}

// Snapshot copies every cell value, keyed by name.
// There is no consistency across cells.
func (s *Store) Snapshot() map[string][]byte {
	m := make(map[string][]byte, len(s.cells))
	for _, c := range s.cells {
		m[c.Name()] = c.Bytes()
	}
	return m
}

func potName(ch int) string {
	return "pot_" + string(rune('0'+ch))
}
