package store

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
)

var (
	// ErrOverflow indicates a value larger than the cell capacity.
	ErrOverflow = errors.New("value exceeds cell capacity")
	// ErrShortBuffer indicates the destination can't hold the cell value.
	ErrShortBuffer = errors.New("short buffer")
)

// Cell is a fixed-capacity value shared between exactly one producer
// and any number of readers.
//
// Producers compute a value privately and then Commit it. Commit and
// ReadInto hold the cell lock only for the copy, so a reader observes
// either the previous or the new value, never a mix.
type Cell struct {
	name    string
	lock    sync.Mutex
	buf     []byte
	n       int
	scratch []byte
}

// NewCell allocates a cell. Capacity is fixed for the cell lifetime.
func NewCell(name string, capacity int) *Cell {
	return &Cell{
		name:    name,
		buf:     make([]byte, capacity),
		scratch: make([]byte, capacity),
	}
}

// Name returns the cell name.
func (c *Cell) Name() string {
	return c.name
}

// Cap returns the fixed capacity.
func (c *Cell) Cap() int {
	return len(c.buf)
}

// Len returns the length of the current value.
func (c *Cell) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.n
}

// Commit publishes val.
func (c *Cell) Commit(val []byte) error {
	if len(val) > len(c.buf) {
		return ErrOverflow
	}
	c.lock.Lock()
	c.n = copy(c.buf, val)
	c.lock.Unlock()
	return nil
}

// Update runs compute against the producer scratch buffer outside the
// critical section and commits the first n bytes it reports.
// Only the single producer of the cell may call Update.
func (c *Cell) Update(compute func(scratch []byte) int) error {
	n := compute(c.scratch)
	if n < 0 || n > len(c.scratch) {
		return ErrOverflow
	}
	return c.Commit(c.scratch[:n])
}

// ReadInto copies the current value into dst.
func (c *Cell) ReadInto(dst []byte) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if len(dst) < c.n {
		return 0, ErrShortBuffer
	}
	return copy(dst, c.buf[:c.n]), nil
}

// Bytes returns a copy of the current value.
func (c *Cell) Bytes() []byte {
	c.lock.Lock()
	defer c.lock.Unlock()
	b := make([]byte, c.n)
	copy(b, c.buf[:c.n])
	return b
}

// SetUint8 commits a uint8.
func (c *Cell) SetUint8(v uint8) error {
	return c.Commit([]byte{v})
}

// SetUint16 commits a little-endian uint16.
func (c *Cell) SetUint16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return c.Commit(b[:])
}

// SetInt16 commits a little-endian int16.
func (c *Cell) SetInt16(v int16) error {
	return c.SetUint16(uint16(v))
}

// SetFloat32 commits a little-endian IEEE-754 float.
func (c *Cell) SetFloat32(v float32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return c.Commit(b[:])
}

// Uint8 reads a uint8, zero if the cell is empty.
func (c *Cell) Uint8() uint8 {
	var b [1]byte
	c.ReadInto(b[:])
	return b[0]
}

// Uint16 reads a little-endian uint16.
func (c *Cell) Uint16() uint16 {
	var b [2]byte
	c.ReadInto(b[:])
	return binary.LittleEndian.Uint16(b[:])
}

// Int16 reads a little-endian int16.
func (c *Cell) Int16() int16 {
	return int16(c.Uint16())
}

// Float32 reads a little-endian IEEE-754 float.
func (c *Cell) Float32() float32 {
	var b [4]byte
	c.ReadInto(b[:])
	return math.Float32frombits(binary.LittleEndian.Uint32(b[:]))
}
