package board

import (
	fx "github.com/robotalks/miniboard/pkg/framework"
	"github.com/robotalks/miniboard/pkg/l0/comm"
	"github.com/robotalks/miniboard/pkg/l0/store"
)

// Sampler publishes the battery voltage and then pots 1 to 5,
// one cell at a time.
type Sampler struct {
	ADC   ADC
	Store *store.Store
}

// Control implements Controller.
func (s *Sampler) Control(fx.ControlContext) error {
	if err := s.Store.BatteryVoltage.SetUint16(s.ADC.BatteryMillivolts()); err != nil {
		return err
	}
	for n, cell := range s.Store.Pots {
		if err := cell.SetUint16(s.ADC.Pot(n + 1)); err != nil {
			return err
		}
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (s *Sampler) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, s)
}

// Heartbeat toggles the LED once per iteration, after sampling.
// Once halted the LED belongs to the trap pattern.
type Heartbeat struct {
	LED    LED
	Halter comm.Halter
}

// Control implements Controller.
func (h *Heartbeat) Control(fx.ControlContext) error {
	if h.Halter != nil && h.Halter.Halted() {
		return nil
	}
	h.LED.Toggle()
	return nil
}

// AddToLoop implements LoopAdder.
func (h *Heartbeat) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvPostProc, h)
}
