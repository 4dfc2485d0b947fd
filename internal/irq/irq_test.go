// ABOUTME: Tests for the interrupt controller
// ABOUTME: Tests masking, pending delivery and wait-for-interrupt ordering
package irq

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestMaskedLineStaysPending(t *testing.T) {
	c := NewController("core0")

	var calls atomic.Int32
	c.Register(PWMWrap, func() { calls.Add(1) })

	c.Raise(PWMWrap)
	if calls.Load() != 0 {
		t.Fatal("handler ran while line was masked")
	}

	c.Unmask(PWMWrap)
	if calls.Load() != 1 {
		t.Errorf("expected pending event delivered on unmask, got %d calls", calls.Load())
	}

	c.Raise(PWMWrap)
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}

	c.Mask(PWMWrap)
	c.Raise(PWMWrap)
	if calls.Load() != 2 {
		t.Errorf("expected masked raise to be held, got %d calls", calls.Load())
	}
}

func TestWaitForInterruptReturnsAfterHandler(t *testing.T) {
	c := NewController("core0")

	var handled atomic.Bool
	c.Register(PWMWrap, func() {
		time.Sleep(5 * time.Millisecond)
		handled.Store(true)
	})
	c.Unmask(PWMWrap)

	done := make(chan bool)
	go func() {
		if err := c.WaitForInterrupt(context.Background()); err != nil {
			t.Errorf("wait failed: %v", err)
		}
		done <- handled.Load()
	}()

	// Give the waiter time to park before raising
	time.Sleep(10 * time.Millisecond)
	c.Raise(PWMWrap)

	select {
	case ok := <-done:
		if !ok {
			t.Error("WaitForInterrupt returned before the handler finished")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForInterrupt never returned")
	}
}

func TestWaitForInterruptIgnoresEarlierEvents(t *testing.T) {
	c := NewController("core0")
	c.Register(PWMWrap, func() {})
	c.Unmask(PWMWrap)

	c.Raise(PWMWrap)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.WaitForInterrupt(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestDispatchedCount(t *testing.T) {
	c := NewController("core1")
	c.Register(IOBank0, func() {})
	c.Unmask(IOBank0)

	for range 5 {
		c.Raise(IOBank0)
	}

	if c.Dispatched() != 5 {
		t.Errorf("expected 5 dispatches, got %d", c.Dispatched())
	}
}

func TestLineString(t *testing.T) {
	if PWMWrap.String() != "PWM_IRQ_WRAP" {
		t.Errorf("unexpected name %q", PWMWrap.String())
	}
	if Line(99).String() != "IRQ99" {
		t.Errorf("unexpected name %q", Line(99).String())
	}
}
