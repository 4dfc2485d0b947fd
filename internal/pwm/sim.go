// ABOUTME: Simulated PWM slice with a free-running counter
// ABOUTME: Raises the wrap interrupt and feeds the pin level to an optional tap
package pwm

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/Sendspin/sendspin-pico/internal/irq"
)

const (
	spinThreshold = 2 * time.Millisecond
	maxLag        = 50 * time.Millisecond
)

// Tap observes the compare value in effect for each carrier period
type Tap func(duty, top uint16)

// SimSlice is a software PWM slice. Wrap advances it by one counter period.
type SimSlice struct {
	mu   sync.Mutex
	ctrl *irq.Controller

	top        uint16
	divInt     uint8
	divFrac    uint8
	duty       uint16
	irqEnabled bool
	enabled    bool
	flag       bool

	wraps    uint64
	overruns uint64

	record bool
	writes []uint16
	tap    Tap
}

// SimStats reports counter activity
type SimStats struct {
	Wraps    uint64
	Overruns uint64
	Duty     uint16
	Pending  bool
}

// NewSimSlice creates a slice in its reset configuration that raises
// irq.PWMWrap on ctrl
func NewSimSlice(ctrl *irq.Controller) *SimSlice {
	return &SimSlice{
		ctrl:   ctrl,
		top:    0xFFFF,
		divInt: 1,
	}
}

func (s *SimSlice) SetTop(top uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.top = top
}

func (s *SimSlice) Top() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.top
}

func (s *SimSlice) SetDiv(divInt, divFrac uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.divInt = divInt
	s.divFrac = divFrac & 0x0F
}

func (s *SimSlice) EnableInterrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.irqEnabled = true
}

func (s *SimSlice) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
}

func (s *SimSlice) SetDuty(duty uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duty = duty
	if s.record {
		s.writes = append(s.writes, duty)
	}
}

func (s *SimSlice) ClearInterrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flag = false
}

// SetTap installs fn to receive the compare value on every wrap
func (s *SimSlice) SetTap(fn Tap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tap = fn
}

// Record toggles logging of every SetDuty call
func (s *SimSlice) Record(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = on
	s.writes = nil
}

// Writes returns a copy of the recorded duty writes
func (s *SimSlice) Writes() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint16, len(s.writes))
	copy(out, s.writes)
	return out
}

// Carrier returns the programmed carrier registers
func (s *SimSlice) Carrier() Carrier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Carrier{Top: s.top, DivInt: s.divInt, DivFrac: s.divFrac}
}

// Stats returns counter activity
func (s *SimSlice) Stats() SimStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SimStats{
		Wraps:    s.wraps,
		Overruns: s.overruns,
		Duty:     s.duty,
		Pending:  s.flag,
	}
}

// Wrap completes one counter period. A wrap that finds the previous
// interrupt still unacknowledged counts as an overrun.
func (s *SimSlice) Wrap() {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return
	}
	s.wraps++

	raise := false
	if s.irqEnabled {
		if s.flag {
			s.overruns++
		}
		s.flag = true
		raise = true
	}
	duty, top, tap := s.duty, s.top, s.tap
	s.mu.Unlock()

	if tap != nil {
		tap(duty, top)
	}
	if raise && s.ctrl != nil {
		s.ctrl.Raise(irq.PWMWrap)
	}
}

// Run free-runs the counter at the carrier's wrap rate for sysHz until ctx is done.
func (s *SimSlice) Run(ctx context.Context, sysHz uint32) error {
	rate := s.Carrier().WrapHz(sysHz)
	if rate <= 0 {
		return ErrCarrier
	}
	period := time.Duration(float64(time.Second) / rate)

	next := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := time.Now()
		if wait := next.Sub(now); wait > 0 {
			if wait > spinThreshold {
				time.Sleep(wait - spinThreshold)
			} else {
				runtime.Gosched()
			}
			continue
		}

		s.Wrap()
		next = next.Add(period)

		// Host stalls are dropped rather than replayed as a burst
		if now.Sub(next) > maxLag {
			next = now
		}
	}
}
