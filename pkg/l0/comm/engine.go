package comm

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/miniboard/pkg/framework"
	"github.com/robotalks/miniboard/pkg/l0/regs"
)

// DefaultTimeout is the default inter-byte timeout.
const DefaultTimeout = 100 * time.Millisecond

// Halter reports whether the board stopped serving the link.
type Halter interface {
	Halted() bool
}

// Stats counts link events. All fields are updated atomically.
type Stats struct {
	Dispatched     atomic.Uint32
	Responses      atomic.Uint32
	ChecksumErrors atomic.Uint32
	Overflows      atomic.Uint32
	Timeouts       atomic.Uint32
	Halted         atomic.Uint32
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Dispatched     uint32
	Responses      uint32
	ChecksumErrors uint32
	Overflows      uint32
	Timeouts       uint32
	Halted         uint32
}

// Snapshot copies the counters. Counters are not consistent with each other.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Dispatched:     s.Dispatched.Load(),
		Responses:      s.Responses.Load(),
		ChecksumErrors: s.ChecksumErrors.Load(),
		Overflows:      s.Overflows.Load(),
		Timeouts:       s.Timeouts.Load(),
		Halted:         s.Halted.Load(),
	}
}

// Engine serves register requests from a host over a byte stream.
type Engine struct {
	ReadWriter io.ReadWriter
	Table      *regs.Table
	Timeout    time.Duration
	Halter     Halter
	Stats      Stats

	state   atomic.Int32
	parser  Parser
	resp    Frame
	respBuf [MaxPayload]byte
	out     [MaxFrameSize]byte
}

// NewEngine creates an Engine.
func NewEngine(rw io.ReadWriter, table *regs.Table) *Engine {
	return &Engine{
		ReadWriter: rw,
		Table:      table,
		Timeout:    DefaultTimeout,
	}
}

// State gets the current engine state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Run processes the link until ctx is done or the stream fails.
func (e *Engine) Run(ctx context.Context) error {
	e.parser.Reset()
	e.setState(StateIdle)
	timeout := e.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return runStream(ctx, e.ReadWriter, timeout, e)
}

// AddToLoop implements LoopAdder.
func (e *Engine) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("comm", e))
}

// Feed consumes one received byte.
func (e *Engine) Feed(b byte) error {
	return e.feed(context.Background(), b)
}

// Expire notifies the inter-byte timer expired.
func (e *Engine) Expire() {
	e.expire(context.Background())
}

func (e *Engine) halted() bool {
	return e.Halter != nil && e.Halter.Halted()
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

func (e *Engine) feed(ctx context.Context, b byte) error {
	if e.halted() {
		e.Stats.Halted.Add(1)
		e.setState(e.parser.Reset().State)
		return nil
	}
	pr := e.parser.Parse(b)
	e.setState(pr.State)
	switch pr.Err {
	case nil:
	case ErrOverflow:
		e.Stats.Overflows.Add(1)
		glog.Warningf("comm: frame dropped: %v", pr.Err)
		return nil
	case ErrChecksum:
		e.Stats.ChecksumErrors.Add(1)
		glog.V(2).Infof("comm: checksum mismatch reg=%02x", pr.Frame.Reg)
		e.resp.Code, e.resp.Reg, e.resp.Payload = byte(StatusChecksum), pr.Frame.Reg, nil
		return e.respond()
	}
	if pr.Frame == nil {
		return nil
	}
	e.dispatch(pr.Frame)
	return e.respond()
}

func (e *Engine) expire(ctx context.Context) error {
	pr := e.parser.Timeout()
	e.setState(pr.State)
	if pr.Err != nil {
		e.Stats.Timeouts.Add(1)
		glog.V(2).Infof("comm: partial frame discarded: %v", pr.Err)
	}
	return nil
}

func (e *Engine) timerAction() TimerAction {
	return ParseResult{State: e.parser.State()}.WhatAboutTimer()
}

func (e *Engine) dispatch(req *Frame) {
	e.setState(StateDispatching)
	e.Stats.Dispatched.Add(1)
	resp := &e.resp
	resp.Reg, resp.Payload = req.Reg, nil
	n, err := e.execute(req)
	resp.Code = byte(StatusOf(err))
	if err == nil {
		resp.Payload = e.respBuf[:n]
	}
	if glog.V(2) {
		glog.Infof("comm: %s reg=%02x len=%d -> %s", Command(req.Code), req.Reg, len(req.Payload), Status(resp.Code))
	}
}

func (e *Engine) execute(req *Frame) (int, error) {
	cmd := Command(req.Code)
	switch cmd {
	case CmdRead, CmdWrite, CmdTrigger:
	default:
		return 0, &StatusError{Status: StatusBadCmd}
	}
	r, err := e.Table.Lookup(req.Reg)
	if err != nil {
		return 0, err
	}
	if len(req.Payload) > r.Size() {
		return 0, regs.ErrBadLength
	}
	switch cmd {
	case CmdRead:
		if len(req.Payload) != 0 {
			return 0, regs.ErrBadLength
		}
		return e.Table.Read(req.Reg, e.respBuf[:])
	case CmdWrite:
		if err = e.Table.Write(req.Reg, req.Payload); err != nil {
			return 0, err
		}
		return copy(e.respBuf[:], req.Payload), nil
	default:
		if len(req.Payload) != 0 {
			return 0, regs.ErrBadLength
		}
		return e.Table.Fire(req.Reg, e.respBuf[:])
	}
}

func (e *Engine) respond() error {
	// the trap may have been entered while dispatching.
	if e.halted() {
		e.Stats.Halted.Add(1)
		e.setState(StateIdle)
		return nil
	}
	e.setState(StateResponding)
	_, err := e.ReadWriter.Write(e.resp.AppendTo(e.out[:0]))
	e.setState(StateIdle)
	if err != nil {
		return err
	}
	e.Stats.Responses.Add(1)
	return nil
}
