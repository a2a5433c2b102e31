package trigger

import (
	"bytes"

	"github.com/golang/glog"

	"github.com/robotalks/miniboard/pkg/l0/store"
)

// CallsignModule is the radio callsign module.
type CallsignModule interface {
	// Validate checks a callsign without applying it.
	Validate(callsign string) error
	Set(callsign string) error
	Get() string
}

// Callsign reports the callsign configured in the radio module and
// forwards host writes of the callsign register to it.
type Callsign struct {
	Module CallsignModule
	Cell   *store.Cell
}

// Fire implements regs.Trigger.
// Without a module the last written value is reported.
func (c *Callsign) Fire(dst []byte) int {
	if c.Module == nil {
		n, _ := c.Cell.ReadInto(dst)
		return n
	}
	return copy(dst, c.Module.Get())
}

func callsignOf(val []byte) string {
	return string(bytes.TrimRight(val, "\x00 "))
}

// Validate is the pre-commit check of the callsign register, so a
// callsign the module refuses is never stored.
func (c *Callsign) Validate(val []byte) error {
	if c.Module == nil {
		return nil
	}
	return c.Module.Validate(callsignOf(val))
}

// OnWrite is the write hook of the callsign register.
func (c *Callsign) OnWrite(val []byte) {
	if c.Module == nil {
		return
	}
	callsign := callsignOf(val)
	if err := c.Module.Set(callsign); err != nil {
		glog.Warningf("set callsign %q failed: %v", callsign, err)
	}
}
