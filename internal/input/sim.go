// ABOUTME: Simulated GPIO input with an internal pull-up
// ABOUTME: Front panels and tests drive it; a falling edge can raise the bank interrupt
package input

import (
	"sync"

	"github.com/Sendspin/sendspin-pico/internal/irq"
)

// SimPin is a pulled-up GPIO input. It reads high until pressed.
type SimPin struct {
	num int

	mu      sync.Mutex
	low     bool
	edgeIRQ bool
	pending bool
	ctrl    *irq.Controller
}

// NewSimPin creates a released pin numbered num
func NewSimPin(num int) *SimPin {
	return &SimPin{num: num}
}

// Num returns the GPIO number
func (p *SimPin) Num() int {
	return p.num
}

// Attach routes the pin's edge interrupt to ctrl
func (p *SimPin) Attach(ctrl *irq.Controller) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctrl = ctrl
}

func (p *SimPin) IsLow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.low
}

func (p *SimPin) SetEdgeLowInterrupt(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edgeIRQ = enabled
}

func (p *SimPin) ClearInterrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = false
}

// InterruptPending reports whether an edge is waiting to be acknowledged
func (p *SimPin) InterruptPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Press pulls the pin low
func (p *SimPin) Press() {
	p.mu.Lock()
	falling := !p.low
	p.low = true
	raise := falling && p.edgeIRQ
	if raise {
		p.pending = true
	}
	ctrl := p.ctrl
	p.mu.Unlock()

	if raise && ctrl != nil {
		ctrl.Raise(irq.IOBank0)
	}
}

// Release lets the pull-up take the pin high again
func (p *SimPin) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.low = false
}
