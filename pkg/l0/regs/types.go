// Package regs provides the register table addressed by the L0 protocol.
package regs

import (
	"errors"
	"fmt"

	"github.com/robotalks/miniboard/pkg/l0/store"
)

// Type is the value type of a register.
type Type byte

// Register types.
const (
	TypeUint8 Type = iota + 1
	TypeUint16
	TypeInt16
	TypeFloat
	TypeBytes
)

// Size returns the encoded size of fixed-size types, 0 for TypeBytes.
func (t Type) Size() int {
	switch t {
	case TypeUint8:
		return 1
	case TypeUint16, TypeInt16:
		return 2
	case TypeFloat:
		return 4
	}
	return 0
}

func (t Type) String() string {
	switch t {
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeInt16:
		return "int16"
	case TypeFloat:
		return "float"
	case TypeBytes:
		return "bytes"
	}
	return fmt.Sprintf("type(%d)", byte(t))
}

// Access is the access mode of a register.
type Access byte

// Access modes.
const (
	ReadOnly  Access = 0x01
	WriteOnly Access = 0x02
	ReadWrite Access = ReadOnly | WriteOnly
)

// CanRead indicates the register is readable.
func (a Access) CanRead() bool { return a&ReadOnly != 0 }

// CanWrite indicates the register is writable.
func (a Access) CanWrite() bool { return a&WriteOnly != 0 }

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "ro"
	case WriteOnly:
		return "wo"
	case ReadWrite:
		return "rw"
	}
	return "none"
}

// Trigger computes a value on demand into dst and returns its length.
type Trigger interface {
	Fire(dst []byte) int
}

// TriggerFunc is the func form of Trigger.
type TriggerFunc func(dst []byte) int

// Fire implements Trigger.
func (f TriggerFunc) Fire(dst []byte) int {
	return f(dst)
}

// MaxSize is the largest encoded register value, bounded by the
// link payload.
const MaxSize = 64

// Register is an addressable value.
type Register struct {
	ID     byte
	Name   string
	Type   Type
	Access Access
	// MaxSize is the capacity of TypeBytes registers. Ignored otherwise.
	MaxSize int

	// Cell backs reads and writes.
	Cell *store.Cell
	// Trigger is invoked by the TRIGGER command.
	Trigger Trigger
	// Validate checks a write payload before it is committed.
	Validate func(value []byte) error
	// OnWrite is called with the committed value after a successful write.
	OnWrite func(value []byte)
}

// Size returns the maximum encoded size.
func (r *Register) Size() int {
	if sz := r.Type.Size(); sz > 0 {
		return sz
	}
	return r.MaxSize
}

// HasTrigger indicates the register supports the TRIGGER command.
func (r *Register) HasTrigger() bool {
	return r.Trigger != nil
}

var (
	// ErrUnknownRegister indicates the register id is not defined.
	ErrUnknownRegister = errors.New("unknown register")
	// ErrAccessDenied indicates the access mode forbids the operation.
	ErrAccessDenied = errors.New("access denied")
	// ErrRejected indicates the register refused the written value.
	ErrRejected = fmt.Errorf("%w: value rejected", ErrAccessDenied)
	// ErrBadLength indicates the payload length doesn't fit the register.
	ErrBadLength = errors.New("bad length")
	// ErrDuplicateID indicates the register id is already defined.
	ErrDuplicateID = errors.New("duplicate register id")
	// ErrBadDefinition indicates an inconsistent register definition.
	ErrBadDefinition = errors.New("bad register definition")
	// ErrSealed indicates the table no longer accepts definitions.
	ErrSealed = errors.New("register table sealed")
)
