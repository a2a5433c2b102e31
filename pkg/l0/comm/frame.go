package comm

import (
	"fmt"
	"io"

	"github.com/robotalks/miniboard/pkg/l0/regs"
)

// Framing constants.
const (
	// SOF marks the start of every frame.
	SOF byte = 0xa5
	// MaxPayload is the largest payload accepted on the link.
	MaxPayload = regs.MaxSize
	// MaxFrameSize is SOF, code, reg, len, payload and checksum.
	MaxFrameSize = MaxPayload + 5
)

// Command is the code of a request frame.
type Command byte

// Commands.
const (
	CmdRead    Command = 0x01
	CmdWrite   Command = 0x02
	CmdTrigger Command = 0x03
)

func (c Command) String() string {
	switch c {
	case CmdRead:
		return "READ"
	case CmdWrite:
		return "WRITE"
	case CmdTrigger:
		return "TRIGGER"
	}
	return fmt.Sprintf("CMD(%02x)", byte(c))
}

// Status is the code of a response frame.
type Status byte

// Status codes.
const (
	StatusOK         Status = 0x00
	StatusUnknownReg Status = 0x01
	StatusBadLen     Status = 0x02
	StatusAccess     Status = 0x03
	StatusChecksum   Status = 0x04
	StatusBadCmd     Status = 0x05
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusUnknownReg:
		return "ERR_UNKNOWN_REG"
	case StatusBadLen:
		return "ERR_BAD_LEN"
	case StatusAccess:
		return "ERR_ACCESS"
	case StatusChecksum:
		return "ERR_CHECKSUM"
	case StatusBadCmd:
		return "ERR_BAD_CMD"
	}
	return fmt.Sprintf("STATUS(%02x)", byte(s))
}

// Frame is a request or a response.
// Code carries a Command in requests and a Status in responses.
type Frame struct {
	Code    byte
	Reg     byte
	Payload []byte
}

// Checksum returns the byte that makes the 8-bit sum of
// code, reg, len, payload and checksum zero.
func Checksum(code, reg byte, payload []byte) byte {
	sum := code + reg + byte(len(payload))
	for _, b := range payload {
		sum += b
	}
	return -sum
}

// AppendTo appends the encoded frame to b.
func (f *Frame) AppendTo(b []byte) []byte {
	b = append(b, SOF, f.Code, f.Reg, byte(len(f.Payload)))
	b = append(b, f.Payload...)
	return append(b, Checksum(f.Code, f.Reg, f.Payload))
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	return f.AppendTo(make([]byte, 0, len(f.Payload)+5))
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	var buf [MaxFrameSize]byte
	if len(f.Payload) > MaxPayload {
		return 0, ErrOverflow
	}
	n, err := w.Write(f.AppendTo(buf[:0]))
	return int64(n), err
}

// Clone copies the frame including the payload.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Payload = append([]byte(nil), f.Payload...)
	return &c
}

// NewRequest creates a request frame.
func NewRequest(cmd Command, reg byte, payload []byte) *Frame {
	return &Frame{Code: byte(cmd), Reg: reg, Payload: payload}
}
