package store

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCellTyped(t *testing.T) {
	c := NewCell("c", 4)
	require.NoError(t, c.SetUint16(7400))
	require.Equal(t, uint16(7400), c.Uint16())
	require.Equal(t, []byte{0xe8, 0x1c}, c.Bytes())

	require.NoError(t, c.SetInt16(-2))
	require.Equal(t, int16(-2), c.Int16())

	require.NoError(t, c.SetFloat32(44.5625))
	require.Equal(t, float32(44.5625), c.Float32())

	require.NoError(t, c.SetUint8(3))
	require.Equal(t, uint8(3), c.Uint8())
	require.Equal(t, 1, c.Len())
}

func TestCellOverflow(t *testing.T) {
	c := NewCell("c", 2)
	require.NoError(t, c.Commit([]byte{1, 2}))
	require.Equal(t, ErrOverflow, c.Commit([]byte{1, 2, 3}))
	require.Equal(t, []byte{1, 2}, c.Bytes())

	require.Equal(t, ErrOverflow, c.Update(func(scratch []byte) int { return 3 }))
	require.Equal(t, []byte{1, 2}, c.Bytes())

	var small [1]byte
	_, err := c.ReadInto(small[:])
	require.Equal(t, ErrShortBuffer, err)
}

func TestCellUpdate(t *testing.T) {
	c := NewCell("c", 8)
	require.NoError(t, c.Update(func(scratch []byte) int {
		return copy(scratch, "abc")
	}))
	require.Equal(t, []byte("abc"), c.Bytes())
}

func TestCellNoTornReads(t *testing.T) {
	const size = 32
	c := NewCell("c", size)
	before, after := bytes.Repeat([]byte{0x55}, size), bytes.Repeat([]byte{0xaa}, size)
	require.NoError(t, c.Commit(before))

	stop, producerDone := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(producerDone)
		vals := [][]byte{after, before}
		for n := 0; ; n++ {
			select {
			case <-stop:
				return
			default:
			}
			c.Update(func(scratch []byte) int {
				return copy(scratch, vals[n%2])
			})
		}
	}()

	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			var buf [size]byte
			for i := 0; i < 2000; i++ {
				n, err := c.ReadInto(buf[:])
				if err != nil {
					t.Errorf("read: %v", err)
					return
				}
				if v := buf[:n]; !bytes.Equal(v, before) && !bytes.Equal(v, after) {
					t.Errorf("torn read: %x", v)
					return
				}
			}
		}()
	}
	readers.Wait()
	close(stop)
	<-producerDone
}

func TestStoreDefaults(t *testing.T) {
	s := New()
	require.Len(t, s.Cells(), 16)
	require.Equal(t, uint16(0), s.BatteryVoltage.Uint16())
	require.Equal(t, "pot_5", s.Pots[4].Name())
	require.Equal(t, 0, s.Callsign.Len())
	snap := s.Snapshot()
	require.Equal(t, []byte{0, 0}, snap["pot_1"])
	require.Empty(t, snap["debug_info"])
}
