package comm

import (
	"errors"
	"fmt"

	"github.com/robotalks/miniboard/pkg/l0/regs"
)

var (
	// ErrChecksum indicates a frame failed checksum validation.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrOverflow indicates a declared length above MaxPayload.
	ErrOverflow = errors.New("payload overflow")
	// ErrTimeout indicates a partial frame was discarded.
	ErrTimeout = errors.New("frame timeout")
	// ErrNoReply indicates no reply received from peer.
	// This happens when a reply is received for a later request, and all
	// earlier requests fail with this error.
	ErrNoReply = errors.New("no reply")
)

// StatusError wraps a non-OK status from a response.
type StatusError struct {
	Status Status
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("status %s", e.Status)
}

// StatusOf maps a dispatch error to the response status.
func StatusOf(err error) Status {
	var se *StatusError
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, regs.ErrUnknownRegister):
		return StatusUnknownReg
	case errors.Is(err, regs.ErrAccessDenied):
		return StatusAccess
	case errors.Is(err, regs.ErrBadLength):
		return StatusBadLen
	case errors.Is(err, ErrChecksum):
		return StatusChecksum
	case errors.As(err, &se):
		return se.Status
	}
	return StatusBadCmd
}

// IsStatus checks whether err is a StatusError with the given status.
func IsStatus(err error, status Status) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}
