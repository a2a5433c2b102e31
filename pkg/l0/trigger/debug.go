package trigger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/robotalks/miniboard/pkg/l0/comm"
	"github.com/robotalks/miniboard/pkg/l0/store"
)

// DebugInfoSize is the encoded size of DebugInfo.
const DebugInfoSize = 32

// ErrShortDebugInfo indicates an encoded DebugInfo is truncated.
var ErrShortDebugInfo = errors.New("short debug info")

// DebugInfo is the debug dump, encoded as 8 little-endian uint32:
// uptime (ms), loop iterations, then the link counters in
// comm.StatsSnapshot order.
type DebugInfo struct {
	Uptime     time.Duration
	Iterations uint32
	Link       comm.StatsSnapshot
}

// Encode writes the dump into b and returns the size written,
// 0 if b is too small.
func (d *DebugInfo) Encode(b []byte) int {
	if len(b) < DebugInfoSize {
		return 0
	}
	vals := [...]uint32{
		uint32(d.Uptime / time.Millisecond),
		d.Iterations,
		d.Link.Dispatched,
		d.Link.Responses,
		d.Link.ChecksumErrors,
		d.Link.Overflows,
		d.Link.Timeouts,
		d.Link.Halted,
	}
	for n, v := range vals {
		binary.LittleEndian.PutUint32(b[n*4:], v)
	}
	return DebugInfoSize
}

// DecodeDebugInfo decodes an encoded dump.
func DecodeDebugInfo(b []byte) (*DebugInfo, error) {
	if len(b) < DebugInfoSize {
		return nil, ErrShortDebugInfo
	}
	u := func(n int) uint32 { return binary.LittleEndian.Uint32(b[n*4:]) }
	return &DebugInfo{
		Uptime:     time.Duration(u(0)) * time.Millisecond,
		Iterations: u(1),
		Link: comm.StatsSnapshot{
			Dispatched:     u(2),
			Responses:      u(3),
			ChecksumErrors: u(4),
			Overflows:      u(5),
			Timeouts:       u(6),
			Halted:         u(7),
		},
	}, nil
}

func (d *DebugInfo) String() string {
	return fmt.Sprintf("uptime=%v iterations=%d dispatched=%d responses=%d checksum=%d overflow=%d timeout=%d halted=%d",
		d.Uptime, d.Iterations, d.Link.Dispatched, d.Link.Responses,
		d.Link.ChecksumErrors, d.Link.Overflows, d.Link.Timeouts, d.Link.Halted)
}

// IterationCounter counts main loop iterations.
type IterationCounter interface {
	Iterations() uint64
}

// DebugDump assembles DebugInfo and publishes it to Cell.
type DebugDump struct {
	Stats *comm.Stats
	Loop  IterationCounter
	Start time.Time
	Cell  *store.Cell
	// Now returns the current time, time.Now if nil.
	Now func() time.Time
}

// Fire implements regs.Trigger.
func (d *DebugDump) Fire(dst []byte) int {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	info := DebugInfo{Uptime: now().Sub(d.Start)}
	if d.Loop != nil {
		info.Iterations = uint32(d.Loop.Iterations())
	}
	if d.Stats != nil {
		info.Link = d.Stats.Snapshot()
	}
	n := info.Encode(dst)
	if n > 0 {
		d.Cell.Commit(dst[:n])
	}
	return n
}
