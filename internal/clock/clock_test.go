// ABOUTME: Tests for clock tree bring-up
// ABOUTME: Tests PLL presets and divider validation
package clock

import (
	"errors"
	"testing"
)

func TestPresets(t *testing.T) {
	tests := []struct {
		name string
		cfg  PLLConfig
		want uint32
	}{
		{"sys176", PLLSys176MHz, 176_000_000},
		{"sys131", PLLSys131MHz, 131_000_000},
		{"usb48", PLLUSB48MHz, 48_000_000},
	}

	for _, tt := range tests {
		if got := tt.cfg.OutputHz(); got != tt.want {
			t.Errorf("%s: expected %d Hz, got %d", tt.name, tt.want, got)
		}
	}
}

func TestConfigureDefault(t *testing.T) {
	tree, err := Configure(XtalFreqHz, DefaultSysPLL, PLLUSB48MHz)
	if err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	if tree.SysHz != 131_000_000 {
		t.Errorf("expected sys 131MHz, got %d", tree.SysHz)
	}
	if tree.PeripheralHz != tree.SysHz {
		t.Errorf("expected peripheral clock to follow sys, got %d", tree.PeripheralHz)
	}
	if tree.WatchdogTickDiv != 12 {
		t.Errorf("expected watchdog tick divider 12, got %d", tree.WatchdogTickDiv)
	}
}

func TestConfigureRejects(t *testing.T) {
	tests := []struct {
		name string
		xtal uint32
		sys  PLLConfig
		want error
	}{
		{"xtal too fast", 20_000_000, PLLSys131MHz, ErrXosc},
		{"xtal zero", 0, PLLSys131MHz, ErrXosc},
		{"vco too fast", XtalFreqHz, PLLConfig{VCOFreqHz: 1_800_000_000, RefDiv: 1, PostDiv1: 6, PostDiv2: 2}, ErrPLL},
		{"vco not integral", XtalFreqHz, PLLConfig{VCOFreqHz: 1_000_000_001, RefDiv: 1, PostDiv1: 6, PostDiv2: 2}, ErrPLL},
		{"postdiv zero", XtalFreqHz, PLLConfig{VCOFreqHz: 1_572_000_000, RefDiv: 1, PostDiv1: 0, PostDiv2: 2}, ErrPLL},
		{"postdiv order", XtalFreqHz, PLLConfig{VCOFreqHz: 1_572_000_000, RefDiv: 1, PostDiv1: 2, PostDiv2: 6}, ErrPLL},
		{"refdiv too large", XtalFreqHz, PLLConfig{VCOFreqHz: 1_572_000_000, RefDiv: 4, PostDiv1: 6, PostDiv2: 2}, ErrPLL},
	}

	for _, tt := range tests {
		_, err := Configure(tt.xtal, tt.sys, PLLUSB48MHz)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}
