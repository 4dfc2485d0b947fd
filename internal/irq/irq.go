// ABOUTME: Per-core interrupt controller standing in for the NVIC
// ABOUTME: Dispatches handlers on hardware events and backs wait-for-interrupt
package irq

import (
	"context"
	"fmt"
	"sync"
)

// Line identifies an interrupt request line
type Line int

const (
	PWMWrap Line = 4
	IOBank0 Line = 13
)

func (l Line) String() string {
	switch l {
	case PWMWrap:
		return "PWM_IRQ_WRAP"
	case IOBank0:
		return "IO_IRQ_BANK0"
	default:
		return fmt.Sprintf("IRQ%d", int(l))
	}
}

// Handler is an interrupt service routine. It runs at interrupt priority and
// must only acknowledge hardware state.
type Handler func()

// Controller routes interrupt lines of one core to their handlers.
type Controller struct {
	name string

	mu       sync.Mutex
	handlers map[Line]Handler
	unmasked map[Line]bool
	pending  map[Line]bool
	wake     chan struct{}
	count    uint64

	// One handler at a time per core
	isr sync.Mutex
}

// NewController creates a controller with every line masked
func NewController(name string) *Controller {
	return &Controller{
		name:     name,
		handlers: make(map[Line]Handler),
		unmasked: make(map[Line]bool),
		pending:  make(map[Line]bool),
		wake:     make(chan struct{}),
	}
}

// Name returns the owning core's name
func (c *Controller) Name() string {
	return c.name
}

// Register installs the handler for line. The line stays masked.
func (c *Controller) Register(line Line, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[line] = h
}

// Unmask enables line. An event raised while masked is delivered now.
func (c *Controller) Unmask(line Line) {
	c.mu.Lock()
	c.unmasked[line] = true
	deliver := c.pending[line]
	c.mu.Unlock()

	if deliver {
		c.dispatch(line)
	}
}

// Mask disables line. Events stay pending until it is unmasked again.
func (c *Controller) Mask(line Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unmasked[line] = false
}

// IsUnmasked reports whether line is enabled
func (c *Controller) IsUnmasked(line Line) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unmasked[line]
}

// Raise is called by peripherals when they assert line.
func (c *Controller) Raise(line Line) {
	c.mu.Lock()
	c.pending[line] = true
	deliver := c.unmasked[line]
	c.mu.Unlock()

	if deliver {
		c.dispatch(line)
	}
}

func (c *Controller) dispatch(line Line) {
	c.isr.Lock()
	defer c.isr.Unlock()

	c.mu.Lock()
	h := c.handlers[line]
	if !c.pending[line] {
		// Another dispatch already serviced it
		c.mu.Unlock()
		return
	}
	c.pending[line] = false
	c.mu.Unlock()

	if h != nil {
		h()
	}

	c.mu.Lock()
	c.count++
	close(c.wake)
	c.wake = make(chan struct{})
	c.mu.Unlock()
}

// WaitForInterrupt suspends the caller until the next handler on this core has
// run to completion. It never returns early because of an event that was
// serviced before the call.
func (c *Controller) WaitForInterrupt(ctx context.Context) error {
	c.mu.Lock()
	wake := c.wake
	c.mu.Unlock()

	select {
	case <-wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatched returns how many handler invocations have completed
func (c *Controller) Dispatched() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
