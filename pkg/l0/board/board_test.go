package board

import (
	"context"
	"errors"
	"net"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/miniboard/pkg/framework"
	"github.com/robotalks/miniboard/pkg/l0/comm"
	"github.com/robotalks/miniboard/pkg/l0/regs"
	"github.com/robotalks/miniboard/pkg/l0/store"
	"github.com/robotalks/miniboard/pkg/l0/trigger"
)

type fakeADC struct {
	battery atomic.Uint32
	trace   []string
}

func (a *fakeADC) BatteryMillivolts() uint16 {
	a.trace = append(a.trace, "battery")
	return uint16(a.battery.Load())
}

func (a *fakeADC) Pot(ch int) uint16 {
	a.trace = append(a.trace, "pot"+string(rune('0'+ch)))
	return uint16(ch * 100)
}

type fakeLED struct {
	lock    sync.Mutex
	on      bool
	toggles int
	steps   []bool
}

func (l *fakeLED) Set(on bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = on
	l.steps = append(l.steps, on)
}

func (l *fakeLED) Toggle() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = !l.on
	l.toggles++
}

func (l *fakeLED) Toggles() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.toggles
}

type fakeMotor struct {
	drives  [][2]int16
	stopped int
}

func (m *fakeMotor) Init() error { return nil }
func (m *fakeMotor) Drive(left, right int16) error {
	m.drives = append(m.drives, [2]int16{left, right})
	return nil
}
func (m *fakeMotor) Stop() error { m.stopped++; return nil }

type fakeRadio struct {
	callsign string
}

func (r *fakeRadio) Validate(v string) error {
	if len(v) > 6 {
		return errors.New("callsign too long")
	}
	return nil
}

func (r *fakeRadio) Set(v string) error {
	if err := r.Validate(v); err != nil {
		return err
	}
	r.callsign = v
	return nil
}

func (r *fakeRadio) Get() string { return r.callsign }

func TestSamplerOrder(t *testing.T) {
	s := store.New()
	adc := &fakeADC{}
	adc.battery.Store(7400)
	led := &fakeLED{}
	loop := fx.NewLoop().Add(&Heartbeat{LED: led}, &Sampler{ADC: adc, Store: s})
	loop.AddController(fx.PrLvSense, fx.ControlFunc(func(fx.ControlContext) error {
		require.Equal(t, 0, led.Toggles())
		return nil
	}))

	loop.RunIteration(context.Background())
	require.Equal(t, []string{"battery", "pot1", "pot2", "pot3", "pot4", "pot5"}, adc.trace)
	require.Equal(t, uint16(7400), s.BatteryVoltage.Uint16())
	for n, cell := range s.Pots {
		require.Equal(t, uint16((n+1)*100), cell.Uint16())
	}
	require.Equal(t, 1, led.Toggles())
}

func TestTrapPattern(t *testing.T) {
	led := &fakeLED{}
	var delays []time.Duration
	done := make(chan struct{})
	var entered int
	trap := &Trap{
		LED: led,
		Delay: func(d time.Duration) {
			delays = append(delays, d)
			if len(delays) == 2*len(TrapPattern) {
				close(done)
				runtime.Goexit()
			}
		},
		OnEnter: func() { entered++ },
	}
	require.False(t, trap.Halted())
	trap.Enter("first")
	trap.Enter("second")
	<-done

	require.True(t, trap.Halted())
	require.Equal(t, "first", trap.Reason())
	require.Equal(t, 1, entered)
	ms := time.Millisecond
	require.Equal(t, []time.Duration{100 * ms, 200 * ms, 300 * ms, 300 * ms, 100 * ms, 200 * ms, 300 * ms, 300 * ms}, delays)
	led.lock.Lock()
	defer led.lock.Unlock()
	require.Equal(t, []bool{true, false, true, false, true, false, true, false}, led.steps)
}

func TestVectors(t *testing.T) {
	trap := &Trap{}
	v := NewVectors(trap)
	var fired int
	v.Handle(IRQTimer, func() { fired++ })
	v.Raise(IRQTimer)
	require.Equal(t, 1, fired)
	require.False(t, trap.Halted())

	v.Raise(IRQSpurious)
	require.True(t, trap.Halted())
	require.Equal(t, "unhandled IRQ 31", trap.Reason())

	v.Raise(IRQTimer)
	require.Equal(t, 1, fired)

	v.Handle(IRQTimer, nil)
	require.Len(t, v.handlers, 0)
}

func TestHeartbeatSilentWhenHalted(t *testing.T) {
	led := &fakeLED{}
	trap := &Trap{}
	loop := fx.NewLoop().Add(&Heartbeat{LED: led, Halter: trap})
	loop.RunIteration(context.Background())
	require.Equal(t, 1, led.Toggles())

	trap.Enter("halt")
	loop.RunIteration(context.Background())
	require.Equal(t, 1, led.Toggles())
}

func TestCallsignRejected(t *testing.T) {
	radio := &fakeRadio{}
	conf := NewConfig()
	conf.BoardID = "test"
	conf.Callsign = "N0CALL"
	link, host := net.Pipe()
	defer host.Close()
	b, err := New(conf, Peripherals{ADC: &fakeADC{}, LED: &fakeLED{}, Callsign: radio}, link)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	err = b.Table.Write(regs.IDCallsign, []byte("TOOLONGCALL"))
	require.Equal(t, comm.StatusAccess, comm.StatusOf(err))
	require.Equal(t, "N0CALL", string(b.Store.Callsign.Bytes()))
	require.Equal(t, "N0CALL", radio.Get())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Engine.Run(ctx)
	client := comm.NewClient(host)
	go client.Run(ctx)
	reqCtx, reqCancel := context.WithTimeout(ctx, time.Second)
	defer reqCancel()

	err = client.Write(reqCtx, regs.IDCallsign, []byte("W1AWXYZ"))
	require.True(t, comm.IsStatus(err, comm.StatusAccess))
	val, err := client.Read(reqCtx, regs.IDCallsign)
	require.NoError(t, err)
	require.Equal(t, "N0CALL", string(val))
	val, err = client.Trigger(reqCtx, regs.IDCallsign)
	require.NoError(t, err)
	require.Equal(t, "N0CALL", string(val))

	require.NoError(t, client.Write(reqCtx, regs.IDCallsign, []byte("KK7ABC")))
	require.Equal(t, "KK7ABC", radio.Get())
}

func TestMotorHooks(t *testing.T) {
	motor := &fakeMotor{}
	conf := NewConfig()
	conf.BoardID = "test"
	conf.MotorEnabled = true
	b, err := New(conf, Peripherals{ADC: &fakeADC{}, LED: &fakeLED{}, Motor: motor}, nil)
	require.NoError(t, err)
	s := b.Store

	require.NoError(t, b.Table.Write(regs.IDMotorLeft, []byte{100, 0}))
	require.NoError(t, b.Table.Write(regs.IDMotorRight, []byte{0x9c, 0xff}))
	require.Equal(t, [][2]int16{{100, 0}, {100, -100}}, motor.drives)

	require.NoError(t, b.Table.Write(regs.IDEStop, []byte{1}))
	require.Equal(t, 1, motor.stopped)
	require.NoError(t, b.Table.Write(regs.IDMotorLeft, []byte{50, 0}))
	require.Len(t, motor.drives, 2)
	require.Equal(t, int16(50), s.MotorLeft.Int16())

	require.NoError(t, b.Table.Write(regs.IDEStop, []byte{0}))
	require.NoError(t, b.Table.Write(regs.IDMotorLeft, []byte{60, 0}))
	require.Equal(t, [2]int16{60, -100}, motor.drives[2])
}

func TestBoardEndToEnd(t *testing.T) {
	link, host := net.Pipe()
	defer host.Close()
	adc := &fakeADC{}
	adc.battery.Store(7400)
	led := &fakeLED{}
	conf := NewConfig()
	conf.BoardID = "0123456789abcdef"
	conf.Callsign = "N0CALL"
	conf.SamplePeriod = 10 * time.Millisecond
	b, err := New(conf, Peripherals{ADC: adc, LED: led}, link)
	require.NoError(t, err)
	b.Trap.Delay = func(time.Duration) { time.Sleep(time.Millisecond) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()
	require.Eventually(t, func() bool { return b.Loop.Iterations() > 0 }, time.Second, time.Millisecond)

	client := comm.NewClient(host)
	go client.Run(ctx)
	call := func() context.Context {
		reqCtx, reqCancel := context.WithTimeout(ctx, time.Second)
		t.Cleanup(reqCancel)
		return reqCtx
	}

	val, err := client.Read(call(), regs.IDBatteryVoltage)
	require.NoError(t, err)
	require.Equal(t, []byte{0xe8, 0x1c}, val)

	err = client.Write(call(), regs.IDBatteryVoltage, []byte{0, 0})
	require.True(t, comm.IsStatus(err, comm.StatusAccess))
	require.Equal(t, uint16(7400), b.Store.BatteryVoltage.Uint16())

	val, err = client.Trigger(call(), regs.IDBuildInfo)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(val), trigger.Version))
	require.True(t, strings.HasSuffix(string(val), "@01234567"))

	val, err = client.Read(call(), regs.IDCallsign)
	require.NoError(t, err)
	require.Equal(t, "N0CALL", string(val))

	val, err = client.Trigger(call(), regs.IDDebugInfo)
	require.NoError(t, err)
	info, err := trigger.DecodeDebugInfo(val)
	require.NoError(t, err)
	require.NotZero(t, info.Iterations)
	require.Equal(t, uint32(5), info.Link.Dispatched)

	for n := 0; n < 2; n++ {
		frame := comm.NewRequest(comm.CmdWrite, regs.IDMotorLeft, []byte{1, 0}).Bytes()
		frame[len(frame)-1]++
		_, err = host.Write(frame)
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool {
		return b.Engine.Stats.ChecksumErrors.Load() == 2
	}, time.Second, time.Millisecond)
	require.Equal(t, int16(0), b.Store.MotorLeft.Int16())
	require.True(t, led.Toggles() > 0)

	b.Raise(IRQSpurious)
	require.True(t, b.Trap.Halted())
	before := b.Store.Snapshot()
	responses := b.Engine.Stats.Responses.Load()
	host.SetWriteDeadline(time.Now().Add(100 * time.Millisecond))
	reqCtx, reqCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer reqCancel()
	require.Error(t, client.Write(reqCtx, regs.IDMotorLeft, []byte{1, 0}))
	require.Equal(t, before, b.Store.Snapshot())
	require.Equal(t, responses, b.Engine.Stats.Responses.Load())

	cancel()
	link.Close()
	require.Equal(t, ErrTrapped, <-errCh)
}
