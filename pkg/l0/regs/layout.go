package regs

import "github.com/robotalks/miniboard/pkg/l0/store"

// Register IDs of the miniboard.
const (
	IDBatteryVoltage byte = 0x01
	IDPot1           byte = 0x02
	IDPot2           byte = 0x03
	IDPot3           byte = 0x04
	IDPot4           byte = 0x05
	IDPot5           byte = 0x06
	IDGPSFix         byte = 0x07
	IDGPSLatitude    byte = 0x08
	IDGPSLongitude   byte = 0x09
	IDMotorLeft      byte = 0x0a
	IDMotorRight     byte = 0x0b
	IDEStop          byte = 0x0c
	IDCameraSnapshot byte = 0x10
	IDDebugInfo      byte = 0x11
	IDCallsign       byte = 0x12
	IDBuildInfo      byte = 0x13
)

// Layout returns the miniboard register map without cells or triggers
// bound. Hosts use it to address registers by name.
func Layout() []Register {
	return []Register{
		{ID: IDBatteryVoltage, Name: "battery_voltage", Type: TypeUint16, Access: ReadOnly},
		{ID: IDPot1, Name: "pot_1", Type: TypeUint16, Access: ReadOnly},
		{ID: IDPot2, Name: "pot_2", Type: TypeUint16, Access: ReadOnly},
		{ID: IDPot3, Name: "pot_3", Type: TypeUint16, Access: ReadOnly},
		{ID: IDPot4, Name: "pot_4", Type: TypeUint16, Access: ReadOnly},
		{ID: IDPot5, Name: "pot_5", Type: TypeUint16, Access: ReadOnly},
		{ID: IDGPSFix, Name: "gps_fix", Type: TypeUint8, Access: ReadOnly},
		{ID: IDGPSLatitude, Name: "gps_latitude", Type: TypeFloat, Access: ReadOnly},
		{ID: IDGPSLongitude, Name: "gps_longitude", Type: TypeFloat, Access: ReadOnly},
		{ID: IDMotorLeft, Name: "motor_left", Type: TypeInt16, Access: ReadWrite},
		{ID: IDMotorRight, Name: "motor_right", Type: TypeInt16, Access: ReadWrite},
		{ID: IDEStop, Name: "e_stop", Type: TypeUint8, Access: WriteOnly},
		{ID: IDCameraSnapshot, Name: "camera_snapshot", Type: TypeUint16, Access: ReadOnly},
		{ID: IDDebugInfo, Name: "debug_info", Type: TypeBytes, Access: ReadOnly, MaxSize: store.DebugInfoSize},
		{ID: IDCallsign, Name: "callsign", Type: TypeBytes, Access: ReadWrite, MaxSize: store.CallsignSize},
		{ID: IDBuildInfo, Name: "build_info", Type: TypeBytes, Access: ReadOnly, MaxSize: store.BuildInfoSize},
	}
}

// LayoutTable builds a sealed table of Layout, for host side lookups.
func LayoutTable() *Table {
	return NewTable().MustDefine(Layout()...).Seal()
}

// Bind builds a table of Layout with each register backed by the
// store cell of the same name. Triggers and write hooks are attached
// by the caller through the returned table before Seal.
func Bind(s *store.Store) (*Table, error) {
	cells := make(map[string]*store.Cell)
	for _, c := range s.Cells() {
		cells[c.Name()] = c
	}
	t := NewTable()
	for _, r := range Layout() {
		r.Cell = cells[r.Name]
		if err := t.Define(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AttachValidator sets the pre-commit check of a defined register.
// Only valid before Seal.
func (t *Table) AttachValidator(id byte, validate func([]byte) error) error {
	if t.sealed {
		return ErrSealed
	}
	r, err := t.Lookup(id)
	if err != nil {
		return err
	}
	r.Validate = validate
	return nil
}

// Attach sets the trigger and write hook of a defined register.
// Only valid before Seal.
func (t *Table) Attach(id byte, trigger Trigger, onWrite func([]byte)) error {
	if t.sealed {
		return ErrSealed
	}
	r, err := t.Lookup(id)
	if err != nil {
		return err
	}
	if trigger != nil {
		r.Trigger = trigger
	}
	if onWrite != nil {
		r.OnWrite = onWrite
	}
	return nil
}
