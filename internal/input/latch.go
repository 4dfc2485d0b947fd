// ABOUTME: Interrupt-driven button latches shared with the GPIO bank interrupt
// ABOUTME: The handler sets pressed flags; the foreground loop takes and clears them
package input

import (
	"fmt"
	"log"

	"github.com/Sendspin/sendspin-pico/internal/critical"
	"github.com/Sendspin/sendspin-pico/internal/irq"
)

// EdgePin is a Pin that can interrupt on a falling edge
type EdgePin interface {
	Pin
	SetEdgeLowInterrupt(enabled bool)
	ClearInterrupt()
}

type latchState struct {
	pins    []EdgePin
	pressed []bool
}

// Latch records button presses from interrupt context.
type Latch struct {
	cell        *critical.Cell[latchState]
	pendingPins []EdgePin
	n           int
}

// NewLatch creates a latch for pins, indexed in the order given
func NewLatch(name string, pins ...EdgePin) *Latch {
	for _, p := range pins {
		p.SetEdgeLowInterrupt(true)
	}
	return &Latch{
		cell:        critical.NewCell[latchState](name),
		pendingPins: pins,
		n:           len(pins),
	}
}

// Install hands the pins to the shared cell, then unmasks the bank interrupt on ctrl.
func (l *Latch) Install(ctrl *irq.Controller) error {
	state := latchState{
		pins:    l.pendingPins,
		pressed: make([]bool, l.n),
	}
	if err := l.cell.Set(state); err != nil {
		return fmt.Errorf("install %s: %w", l.cell.Name(), err)
	}
	l.pendingPins = nil

	ctrl.Register(irq.IOBank0, l.handle)
	ctrl.Unmask(irq.IOBank0)

	log.Printf("Button latch %s installed on %s (%d pins)", l.cell.Name(), ctrl.Name(), l.n)
	return nil
}

func (l *Latch) handle() {
	l.cell.Access(func(s *latchState) {
		for i, p := range s.pins {
			if p.IsLow() {
				s.pressed[i] = true
			}
			p.ClearInterrupt()
		}
	})
}

// Take reports whether button i was pressed since the last Take and clears it
func (l *Latch) Take(i int) bool {
	var pressed bool
	l.cell.Access(func(s *latchState) {
		pressed = s.pressed[i]
		s.pressed[i] = false
	})
	return pressed
}

// Len returns the number of latched buttons
func (l *Latch) Len() int {
	return l.n
}
