package board

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// BlinkStep is one step of the trap blink pattern.
type BlinkStep struct {
	On  bool
	Dur time.Duration
}

// TrapPattern is played on the LED forever once trapped.
var TrapPattern = []BlinkStep{
	{On: true, Dur: 100 * time.Millisecond},
	{On: false, Dur: 200 * time.Millisecond},
	{On: true, Dur: 300 * time.Millisecond},
	{On: false, Dur: 300 * time.Millisecond},
}

// Trap is the terminal diagnostic state of the board.
// Nothing leaves it but a process restart.
type Trap struct {
	LED LED
	// Delay waits between blink steps, time.Sleep if nil.
	Delay func(time.Duration)
	// OnEnter is called once when the trap is entered, before blinking.
	OnEnter func()

	entered atomic.Bool
	reason  atomic.Value
}

// Enter enters the trap. Only the first call has effect.
func (t *Trap) Enter(reason string) {
	if !t.entered.CompareAndSwap(false, true) {
		return
	}
	t.reason.Store(reason)
	glog.Errorf("FATAL TRAP: %s", reason)
	if t.OnEnter != nil {
		t.OnEnter()
	}
	if t.LED != nil {
		go t.blink()
	}
}

// Halted implements comm.Halter.
func (t *Trap) Halted() bool {
	return t.entered.Load()
}

// Reason returns the reason passed to Enter.
func (t *Trap) Reason() string {
	reason, _ := t.reason.Load().(string)
	return reason
}

func (t *Trap) blink() {
	delay := t.Delay
	if delay == nil {
		delay = time.Sleep
	}
	for {
		for _, step := range TrapPattern {
			t.LED.Set(step.On)
			delay(step.Dur)
		}
	}
}

// IRQ is an interrupt request number.
type IRQ int

// Vectors is the interrupt vector table. Raising an IRQ without a
// handler enters the trap.
type Vectors struct {
	Trap *Trap

	lock     sync.RWMutex
	handlers map[IRQ]func()
}

// NewVectors creates Vectors entering trap on unhandled interrupts.
func NewVectors(trap *Trap) *Vectors {
	return &Vectors{Trap: trap, handlers: make(map[IRQ]func())}
}

// Handle installs the handler of irq, nil removes it.
func (v *Vectors) Handle(irq IRQ, handler func()) {
	v.lock.Lock()
	defer v.lock.Unlock()
	if handler == nil {
		delete(v.handlers, irq)
		return
	}
	v.handlers[irq] = handler
}

// Raise fires irq. Interrupts are ignored once trapped.
func (v *Vectors) Raise(irq IRQ) {
	if v.Trap.Halted() {
		return
	}
	v.lock.RLock()
	handler := v.handlers[irq]
	v.lock.RUnlock()
	if handler == nil {
		v.Trap.Enter(fmt.Sprintf("unhandled IRQ %d", irq))
		return
	}
	handler()
}
