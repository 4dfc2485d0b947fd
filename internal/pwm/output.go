// ABOUTME: Audio PWM output shared between the playback loop and its wrap interrupt
// ABOUTME: Owns the Uninitialized -> Configured -> Running lifecycle and duty writes
package pwm

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/Sendspin/sendspin-pico/internal/critical"
	"github.com/Sendspin/sendspin-pico/internal/irq"
)

// Slice is one hardware PWM slice driving the audio pin
type Slice interface {
	SetTop(top uint16)
	Top() uint16
	SetDiv(divInt, divFrac uint8)
	EnableInterrupt()
	Enable()
	SetDuty(duty uint16)
	ClearInterrupt()
}

// State is the output lifecycle
type State int32

const (
	Uninitialized State = iota
	Configured
	Running
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Configured:
		return "configured"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Output is the audio peripheral. Once running, the slice lives in a shared
// cell and every access, the interrupt handler's included, is made inside
// the critical section.
type Output struct {
	cell    *critical.Cell[Slice]
	pending Slice
	carrier Carrier

	state   atomic.Int32
	duty    atomic.Uint32
	handled atomic.Uint64
}

// NewOutput creates an unconfigured output
func NewOutput() *Output {
	return &Output{
		cell: critical.NewCell[Slice]("PWM"),
	}
}

// Configure programs the free-running carrier and arms the wrap interrupt on
// the slice. The NVIC line stays masked until Start.
func (o *Output) Configure(s Slice, c Carrier) error {
	if st := o.State(); st != Uninitialized {
		return fmt.Errorf("%w: configure while %s", ErrState, st)
	}

	s.SetTop(c.Top)
	s.SetDiv(c.DivInt, c.DivFrac)
	s.SetDuty(0)
	s.EnableInterrupt()
	s.Enable()

	o.pending = s
	o.carrier = c
	o.state.Store(int32(Configured))

	log.Printf("PWM configured: top=%d div=%d+%d/16", c.Top, c.DivInt, c.DivFrac)
	return nil
}

// Start hands the slice to the shared cell and only then unmasks the wrap
// interrupt on ctrl.
func (o *Output) Start(ctrl *irq.Controller) error {
	if st := o.State(); st != Configured {
		return fmt.Errorf("%w: start while %s", ErrState, st)
	}

	if err := o.cell.Set(o.pending); err != nil {
		return fmt.Errorf("install pwm: %w", err)
	}
	o.pending = nil

	ctrl.Register(irq.PWMWrap, o.HandleWrap)
	ctrl.Unmask(irq.PWMWrap)

	o.state.Store(int32(Running))
	log.Printf("PWM running, %s unmasked on %s", irq.PWMWrap, ctrl.Name())
	return nil
}

// HandleWrap is the wrap interrupt handler. It only acknowledges the
// interrupt so it is not re-entered immediately.
func (o *Output) HandleWrap() {
	o.cell.Access(func(s *Slice) {
		(*s).ClearInterrupt()
	})
	o.handled.Add(1)
}

// WriteDuty clamps v to [0, top] and writes it to the compare register
// inside the critical section. It returns the value written.
func (o *Output) WriteDuty(v uint16) uint16 {
	if v > o.carrier.Top {
		v = o.carrier.Top
	}

	o.cell.Access(func(s *Slice) {
		(*s).SetDuty(v)
	})
	o.duty.Store(uint32(v))
	return v
}

// Duty returns the last value written by WriteDuty
func (o *Output) Duty() uint16 {
	return uint16(o.duty.Load())
}

// Carrier returns the configured carrier
func (o *Output) Carrier() Carrier {
	return o.carrier
}

// State returns the lifecycle state
func (o *Output) State() State {
	return State(o.state.Load())
}

// Handled returns how many wrap interrupts were acknowledged
func (o *Output) Handled() uint64 {
	return o.handled.Load()
}
