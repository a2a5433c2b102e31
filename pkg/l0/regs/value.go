package regs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Decode converts an encoded value to a Go value:
// uint8, uint16, int16, float32 or string for TypeBytes.
func (t Type) Decode(b []byte) (interface{}, error) {
	if sz := t.Size(); sz > 0 && len(b) != sz {
		return nil, ErrBadLength
	}
	switch t {
	case TypeUint8:
		return b[0], nil
	case TypeUint16:
		return binary.LittleEndian.Uint16(b), nil
	case TypeInt16:
		return int16(binary.LittleEndian.Uint16(b)), nil
	case TypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case TypeBytes:
		return string(bytes.TrimRight(b, "\x00")), nil
	}
	return nil, ErrBadDefinition
}

// Format renders an encoded value for display.
func (t Type) Format(b []byte) string {
	v, err := t.Decode(b)
	if err != nil {
		return fmt.Sprintf("%x", b)
	}
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(v)
}

// Parse encodes a textual value.
func (t Type) Parse(s string) ([]byte, error) {
	switch t {
	case TypeUint8:
		v, err := strconv.ParseUint(s, 0, 8)
		if err != nil {
			return nil, err
		}
		return []byte{byte(v)}, nil
	case TypeUint16:
		v, err := strconv.ParseUint(s, 0, 16)
		if err != nil {
			return nil, err
		}
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v))
		return b, nil
	case TypeInt16:
		v, err := strconv.ParseInt(s, 0, 16)
		if err != nil {
			return nil, err
		}
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
		return b, nil
	case TypeFloat:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, err
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		return b, nil
	case TypeBytes:
		return []byte(s), nil
	}
	return nil, ErrBadDefinition
}
