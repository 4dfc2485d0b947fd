// ABOUTME: Tests for the PWM audio output and its carrier
// ABOUTME: Tests divider selection, lifecycle, wrap handling and duty clamping
package pwm

import (
	"errors"
	"math"
	"testing"

	"github.com/Sendspin/sendspin-pico/internal/irq"
)

func TestCarrierFor(t *testing.T) {
	tests := []struct {
		name    string
		sysHz   uint32
		rate    uint32
		divInt  uint8
		divFrac uint8
	}{
		{"131MHz 32kHz", 131_000_000, 32_000, 1, 0},
		{"176MHz 32kHz", 176_000_000, 32_000, 1, 5},
		{"176MHz 16kHz", 176_000_000, 16_000, 2, 11},
	}

	for _, tt := range tests {
		c, err := CarrierFor(tt.sysHz, DefaultTop, tt.rate)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if c.DivInt != tt.divInt || c.DivFrac != tt.divFrac {
			t.Errorf("%s: expected div %d+%d/16, got %d+%d/16",
				tt.name, tt.divInt, tt.divFrac, c.DivInt, c.DivFrac)
		}
	}
}

func TestCarrierWrapRate(t *testing.T) {
	c, err := CarrierFor(131_000_000, DefaultTop, 32_000)
	if err != nil {
		t.Fatal(err)
	}

	got := c.WrapHz(131_000_000)
	if math.Abs(got-32_000) > 100 {
		t.Errorf("expected ~32kHz wrap, got %.1f", got)
	}
}

func TestCarrierOutOfRange(t *testing.T) {
	if _, err := CarrierFor(131_000_000, DefaultTop, 100_000); !errors.Is(err, ErrCarrier) {
		t.Errorf("expected ErrCarrier for too fast a rate, got %v", err)
	}
	if _, err := CarrierFor(131_000_000, DefaultTop, 10); !errors.Is(err, ErrCarrier) {
		t.Errorf("expected ErrCarrier for too slow a rate, got %v", err)
	}
	if _, err := CarrierFor(0, DefaultTop, 32_000); !errors.Is(err, ErrCarrier) {
		t.Errorf("expected ErrCarrier for zero clock, got %v", err)
	}
}

func newRunning(t *testing.T) (*Output, *SimSlice, *irq.Controller) {
	t.Helper()

	ctrl := irq.NewController("core0")
	slice := NewSimSlice(ctrl)
	out := NewOutput()

	if out.State() != Uninitialized {
		t.Fatalf("expected uninitialized, got %s", out.State())
	}
	if err := out.Configure(slice, Carrier{Top: DefaultTop, DivInt: 1}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if out.State() != Configured {
		t.Fatalf("expected configured, got %s", out.State())
	}
	if err := out.Start(ctrl); err != nil {
		t.Fatalf("start: %v", err)
	}
	if out.State() != Running {
		t.Fatalf("expected running, got %s", out.State())
	}
	return out, slice, ctrl
}

func TestOutputLifecycle(t *testing.T) {
	out, slice, ctrl := newRunning(t)

	if slice.Top() != DefaultTop {
		t.Errorf("expected top %d, got %d", DefaultTop, slice.Top())
	}
	if !ctrl.IsUnmasked(irq.PWMWrap) {
		t.Error("expected wrap line unmasked after start")
	}

	if err := out.Start(ctrl); !errors.Is(err, ErrState) {
		t.Errorf("expected ErrState on second start, got %v", err)
	}
	if err := out.Configure(slice, Carrier{Top: 100, DivInt: 1}); !errors.Is(err, ErrState) {
		t.Errorf("expected ErrState on reconfigure, got %v", err)
	}
}

func TestWrapHandlerClearsFlag(t *testing.T) {
	out, slice, _ := newRunning(t)

	for range 100 {
		slice.Wrap()
	}

	stats := slice.Stats()
	if stats.Wraps != 100 {
		t.Errorf("expected 100 wraps, got %d", stats.Wraps)
	}
	if stats.Overruns != 0 {
		t.Errorf("expected no overruns, got %d", stats.Overruns)
	}
	if stats.Pending {
		t.Error("expected interrupt flag cleared")
	}
	if out.Handled() != 100 {
		t.Errorf("expected 100 handled interrupts, got %d", out.Handled())
	}
}

func TestUnhandledWrapOverruns(t *testing.T) {
	ctrl := irq.NewController("core0")
	slice := NewSimSlice(ctrl)
	out := NewOutput()
	if err := out.Configure(slice, Carrier{Top: DefaultTop, DivInt: 1}); err != nil {
		t.Fatal(err)
	}

	// Line still masked: nobody clears the flag
	slice.Wrap()
	slice.Wrap()

	if got := slice.Stats().Overruns; got != 1 {
		t.Errorf("expected 1 overrun, got %d", got)
	}
}

func TestWriteDutyClamps(t *testing.T) {
	out, slice, _ := newRunning(t)
	slice.Record(true)

	if got := out.WriteDuty(1024); got != 1024 {
		t.Errorf("expected 1024, got %d", got)
	}
	if got := out.WriteDuty(5000); got != DefaultTop {
		t.Errorf("expected clamp to %d, got %d", DefaultTop, got)
	}

	writes := slice.Writes()
	if len(writes) != 2 || writes[0] != 1024 || writes[1] != DefaultTop {
		t.Errorf("unexpected writes %v", writes)
	}
	if out.Duty() != DefaultTop {
		t.Errorf("expected last duty %d, got %d", DefaultTop, out.Duty())
	}
}

func TestWriteDutyBeforeStartPanics(t *testing.T) {
	out := NewOutput()

	defer func() {
		if recover() == nil {
			t.Error("expected panic writing duty before hand-off")
		}
	}()
	out.WriteDuty(1)
}

func TestTapSeesDuty(t *testing.T) {
	out, slice, _ := newRunning(t)

	var seen []uint16
	slice.SetTap(func(duty, top uint16) {
		if top != DefaultTop {
			t.Errorf("expected top %d, got %d", DefaultTop, top)
		}
		seen = append(seen, duty)
	})

	out.WriteDuty(10)
	slice.Wrap()
	out.WriteDuty(20)
	slice.Wrap()

	if len(seen) != 2 || seen[0] != 10 || seen[1] != 20 {
		t.Errorf("unexpected tap values %v", seen)
	}
}
