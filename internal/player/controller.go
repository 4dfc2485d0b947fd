// ABOUTME: Playback controller that drains the inter-core FIFO into the PWM duty register
// ABOUTME: Runs on core 0 and is paced by the carrier's wrap interrupt
package player

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/Sendspin/sendspin-pico/internal/audio"
	"github.com/Sendspin/sendspin-pico/internal/fifo"
	"github.com/Sendspin/sendspin-pico/internal/input"
	"github.com/Sendspin/sendspin-pico/internal/irq"
	"github.com/Sendspin/sendspin-pico/internal/pwm"
)

// Controller plays one stream. Run owns the window; everything else is
// safe to call from other goroutines.
type Controller struct {
	output *pwm.Output
	core   *irq.Controller
	port   fifo.Port
	pause  *input.Button
	window *audio.Window

	// OnStateChange, if set, is called from the Run goroutine on every transition
	OnStateChange func(from, to State)

	// Trace logs how long each window took to play against its real-time goal
	Trace bool

	state       atomic.Int32
	ended       atomic.Bool
	emitted     atomic.Int64
	refills     atomic.Int64
	acksDropped atomic.Int64

	frameStart time.Time
}

// ControllerStats tracks playback metrics
type ControllerStats struct {
	State       State
	Emitted     int64
	Refills     int64
	AcksDropped int64
	Ended       bool
	Duty        uint16
}

// NewController creates a controller reading from port and writing output.
// pause may be nil when the board has no pause button.
func NewController(output *pwm.Output, core *irq.Controller, port fifo.Port, pause *input.Button, windowSize int) *Controller {
	return &Controller{
		output: output,
		core:   core,
		port:   port,
		pause:  pause,
		window: audio.NewWindow(windowSize),
	}
}

// State returns the current playback state
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Stats returns playback statistics
func (c *Controller) Stats() ControllerStats {
	return ControllerStats{
		State:       c.State(),
		Emitted:     c.emitted.Load(),
		Refills:     c.refills.Load(),
		AcksDropped: c.acksDropped.Load(),
		Ended:       c.ended.Load(),
		Duty:        c.output.Duty(),
	}
}

// Run plays until ctx is done. It returns ctx's error.
func (c *Controller) Run(ctx context.Context) error {
	log.Printf("Playback loop started on %s, window %d", c.core.Name(), c.window.Cap())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.pause != nil && c.pause.Pressed() {
			c.togglePause()
		}

		switch c.State() {
		case Paused:
			// Duty holds its last value
			if err := c.core.WaitForInterrupt(ctx); err != nil {
				return err
			}
			continue

		case Idle:
			if c.ended.Load() {
				if err := c.core.WaitForInterrupt(ctx); err != nil {
					return err
				}
				continue
			}
			if err := c.refill(ctx); err != nil {
				return err
			}
			continue
		}

		if !c.window.Exhausted() {
			c.output.WriteDuty(audio.Rescale(c.window.Next()))
			c.emitted.Add(1)
		}

		if c.window.Exhausted() {
			if c.ended.Load() {
				c.setState(Idle)
				log.Printf("End of stream after %d samples", c.emitted.Load())
				continue
			}
			if err := c.refill(ctx); err != nil {
				return err
			}
			continue
		}

		if err := c.core.WaitForInterrupt(ctx); err != nil {
			return err
		}
	}
}

func (c *Controller) togglePause() {
	switch c.State() {
	case Playing:
		c.setState(Paused)
	case Paused:
		c.setState(Playing)
	}
}

// refill reads a full window one word at a time. EndOfStream cuts the
// window short and marks the stream ended.
func (c *Controller) refill(ctx context.Context) error {
	c.traceFrame()

	buf := c.window.Buffer()
	n := 0
	for n < len(buf) {
		w, err := c.port.ReadContext(ctx)
		if err != nil {
			return err
		}
		if w == fifo.EndOfStream {
			c.ended.Store(true)
			break
		}
		if !w.IsSample() {
			log.Printf("Ignoring unexpected FIFO word %#x", uint32(w))
			continue
		}
		buf[n] = w.Sample()
		n++
	}
	c.window.Fill(n)

	if n == 0 {
		if c.State() != Idle {
			c.setState(Idle)
			log.Printf("End of stream after %d samples", c.emitted.Load())
		}
		return nil
	}

	c.refills.Add(1)
	if !c.port.TryWrite(fifo.Ack) {
		c.acksDropped.Add(1)
	}
	if c.State() == Idle {
		c.setState(Playing)
	}
	return nil
}

func (c *Controller) traceFrame() {
	if !c.Trace {
		return
	}
	now := time.Now()
	if !c.frameStart.IsZero() && c.window.Len() > 0 {
		goal := time.Duration(c.window.Len()) * time.Second / audio.SampleRate
		log.Printf("Stream frame took: %dus goal: %dus",
			now.Sub(c.frameStart).Microseconds(), goal.Microseconds())
	}
	c.frameStart = now
}

func (c *Controller) setState(to State) {
	from := State(c.state.Swap(int32(to)))
	if from == to {
		return
	}
	log.Printf("Playback %s -> %s", from, to)
	if c.OnStateChange != nil {
		c.OnStateChange(from, to)
	}
}
