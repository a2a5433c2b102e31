// Package board assembles the miniboard: data store, register table,
// comms engine, main loop and the interrupt vectors.
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/miniboard/pkg/framework"
	"github.com/robotalks/miniboard/pkg/l0/comm"
	"github.com/robotalks/miniboard/pkg/l0/regs"
	"github.com/robotalks/miniboard/pkg/l0/store"
	"github.com/robotalks/miniboard/pkg/l0/trigger"
)

// Interrupt vectors with handlers installed by the board.
const (
	// IRQTimer requests an immediate main loop iteration.
	IRQTimer IRQ = 1
	// IRQSpurious has no handler.
	IRQSpurious IRQ = 31
)

// ErrTrapped is returned by Run once the board entered the trap.
var ErrTrapped = errors.New("board trapped")

// Board is an assembled miniboard.
type Board struct {
	Peripherals

	Store   *store.Store
	Table   *regs.Table
	Engine  *comm.Engine
	Loop    *fx.Loop
	Trap    *Trap
	Vectors *Vectors
	Start   time.Time
	BoardID string

	callsign string
	cancelCh chan context.CancelFunc
}

// New assembles a board serving the link rw.
func New(conf *Config, p Peripherals, rw io.ReadWriter) (*Board, error) {
	if p.ADC == nil || p.LED == nil {
		return nil, fmt.Errorf("ADC and LED are required")
	}
	b := &Board{
		Peripherals: p,
		Store:       store.New(),
		Loop:        fx.NewLoop(),
		Start:       time.Now(),
		BoardID:     conf.BoardID,
		callsign:    conf.Callsign,
		cancelCh:    make(chan context.CancelFunc, 1),
	}
	if b.BoardID == "" {
		b.BoardID = MachineID()
	}
	b.Loop.Interval = conf.SamplePeriod
	b.Trap = &Trap{LED: p.LED, OnEnter: b.halt}
	b.Vectors = NewVectors(b.Trap)
	b.Vectors.Handle(IRQTimer, b.Loop.TriggerNext)

	tbl, err := regs.Bind(b.Store)
	if err != nil {
		return nil, err
	}
	b.Table = tbl
	b.Engine = comm.NewEngine(rw, tbl)
	b.Engine.Timeout = conf.FrameTimeout
	b.Engine.Halter = b.Trap

	callsign := &trigger.Callsign{Module: p.Callsign, Cell: b.Store.Callsign}
	motor := &motorHooks{store: b.Store}
	if conf.MotorEnabled {
		motor.motor = p.Motor
	}
	attach := []struct {
		id      byte
		trigger regs.Trigger
		onWrite func([]byte)
	}{
		{regs.IDMotorLeft, nil, motor.onDrive},
		{regs.IDMotorRight, nil, motor.onDrive},
		{regs.IDEStop, nil, motor.onEStop},
		{regs.IDCameraSnapshot, &trigger.CameraSnapshot{Camera: p.Camera, Cell: b.Store.CameraSnapshot}, nil},
		{regs.IDDebugInfo, &trigger.DebugDump{
			Stats: &b.Engine.Stats,
			Loop:  b.Loop,
			Start: b.Start,
			Cell:  b.Store.DebugInfo,
		}, nil},
		{regs.IDCallsign, callsign, callsign.OnWrite},
		{regs.IDBuildInfo, &trigger.BuildInfo{BoardID: b.BoardID, Cell: b.Store.BuildInfo}, nil},
	}
	for _, a := range attach {
		if err := tbl.Attach(a.id, a.trigger, a.onWrite); err != nil {
			return nil, err
		}
	}
	if err := tbl.AttachValidator(regs.IDCallsign, callsign.Validate); err != nil {
		return nil, err
	}
	tbl.Seal()

	b.Loop.Add(
		&Sampler{ADC: p.ADC, Store: b.Store},
		&Heartbeat{LED: p.LED, Halter: b.Trap},
		b.Engine,
	)
	if p.GPS != nil {
		b.Loop.AddRunnable(fx.NamedRun("gps", p.GPS))
	}
	return b, nil
}

// Init initializes peripherals. Run calls it before starting the loop.
func (b *Board) Init() error {
	if b.GPS != nil {
		if err := b.GPS.Init(b.Store); err != nil {
			return fmt.Errorf("GPS init error: %w", err)
		}
	}
	if b.Motor != nil {
		if err := b.Motor.Init(); err != nil {
			return fmt.Errorf("motor init error: %w", err)
		}
	}
	if b.callsign != "" {
		if err := b.Store.Callsign.Commit([]byte(b.callsign)); err != nil {
			return fmt.Errorf("invalid callsign %q: %w", b.callsign, err)
		}
		if b.Callsign != nil {
			if err := b.Callsign.Set(b.callsign); err != nil {
				return fmt.Errorf("callsign init error: %w", err)
			}
		}
	}
	return nil
}

// Run runs the board until ctx is done.
// Once trapped, the loop and the link stop, and Run keeps the trap
// blinking until ctx is done, then returns ErrTrapped.
func (b *Board) Run(ctx context.Context) error {
	if err := b.Init(); err != nil {
		return err
	}
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	b.cancelCh <- cancel
	if b.Trap.Halted() {
		cancel()
	}

	glog.Infof("board %s started, sample period %v", b.BoardID, b.Loop.Interval)
	err := b.Loop.Run(loopCtx)
	if !b.Trap.Halted() {
		return err
	}
	<-ctx.Done()
	return ErrTrapped
}

// Raise fires an interrupt.
func (b *Board) Raise(irq IRQ) {
	b.Vectors.Raise(irq)
}

// Add adds components to the board loop, e.g. telemetry.
func (b *Board) Add(adders ...fx.LoopAdder) {
	b.Loop.Add(adders...)
}

func (b *Board) halt() {
	select {
	case cancel := <-b.cancelCh:
		cancel()
	default:
	}
	if b.Motor != nil {
		b.Motor.Stop()
	}
}

type motorHooks struct {
	motor Motor
	store *store.Store
}

func (m *motorHooks) onDrive([]byte) {
	if m.motor == nil {
		return
	}
	if m.store.EStop.Uint8() != 0 {
		glog.V(1).Info("motor: e-stop engaged, drive ignored")
		return
	}
	left, right := m.store.MotorLeft.Int16(), m.store.MotorRight.Int16()
	if err := m.motor.Drive(left, right); err != nil {
		glog.Warningf("motor drive %d,%d failed: %v", left, right, err)
	}
}

func (m *motorHooks) onEStop(val []byte) {
	if m.motor == nil {
		return
	}
	if val[0] == 0 {
		glog.Info("motor: e-stop released")
		return
	}
	glog.Warning("motor: e-stop engaged")
	if err := m.motor.Stop(); err != nil {
		glog.Warningf("motor stop failed: %v", err)
	}
}
