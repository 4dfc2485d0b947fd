// ABOUTME: Oscillator and PLL bring-up for the device clock tree
// ABOUTME: Presets pick system clocks that divide cleanly into audio sample rates
package clock

import (
	"fmt"
	"log"
)

// XtalFreqHz is the frequency of the on-board crystal
const XtalFreqHz uint32 = 12_000_000

const (
	minXtalHz   = 1_000_000
	maxXtalHz   = 15_000_000
	minRefHz    = 5_000_000
	minVCOHz    = 400_000_000
	maxVCOHz    = 1_600_000_000
	minFeedback = 16
	maxFeedback = 320
	maxRefDiv   = 63
	maxPostDiv  = 7
)

// PLLConfig describes one phase-locked loop
type PLLConfig struct {
	VCOFreqHz uint32
	RefDiv    uint8
	PostDiv1  uint8
	PostDiv2  uint8
}

var (
	// PLLSys176MHz is the closest clock to 176.4 MHz, a multiple of 44.1 kHz.
	PLLSys176MHz = PLLConfig{VCOFreqHz: 528_000_000, RefDiv: 1, PostDiv1: 3, PostDiv2: 1}

	// PLLSys131MHz is the closest clock to 131.072 MHz, a multiple of 32 kHz.
	PLLSys131MHz = PLLConfig{VCOFreqHz: 1_572_000_000, RefDiv: 1, PostDiv1: 6, PostDiv2: 2}

	// PLLUSB48MHz feeds the USB and ADC clocks.
	PLLUSB48MHz = PLLConfig{VCOFreqHz: 480_000_000, RefDiv: 1, PostDiv1: 5, PostDiv2: 2}

	// DefaultSysPLL is the system PLL the device boots with
	DefaultSysPLL = PLLSys131MHz
)

// OutputHz returns the PLL output frequency
func (c PLLConfig) OutputHz() uint32 {
	if c.PostDiv1 == 0 || c.PostDiv2 == 0 {
		return 0
	}
	return c.VCOFreqHz / (uint32(c.PostDiv1) * uint32(c.PostDiv2))
}

// Tree is the configured clock tree handed to peripheral drivers
type Tree struct {
	XtalHz          uint32
	SysHz           uint32
	USBHz           uint32
	PeripheralHz    uint32
	WatchdogTickDiv uint8
}

// Configure brings up the crystal oscillator and both PLLs. Any error is fatal
// to the device.
func Configure(xtalHz uint32, sys, usb PLLConfig) (*Tree, error) {
	if xtalHz < minXtalHz || xtalHz > maxXtalHz {
		return nil, fmt.Errorf("%w: crystal %d Hz out of range", ErrXosc, xtalHz)
	}

	if err := validatePLL(xtalHz, sys); err != nil {
		return nil, fmt.Errorf("sys pll: %w", err)
	}
	if err := validatePLL(xtalHz, usb); err != nil {
		return nil, fmt.Errorf("usb pll: %w", err)
	}

	tree := &Tree{
		XtalHz:          xtalHz,
		SysHz:           sys.OutputHz(),
		USBHz:           usb.OutputHz(),
		PeripheralHz:    sys.OutputHz(),
		WatchdogTickDiv: uint8(xtalHz / 1_000_000),
	}

	log.Printf("Clocks configured: sys=%dHz usb=%dHz (VCO %dMHz /%d /%d)",
		tree.SysHz, tree.USBHz, sys.VCOFreqHz/1_000_000, sys.PostDiv1, sys.PostDiv2)

	return tree, nil
}

func validatePLL(xtalHz uint32, cfg PLLConfig) error {
	if cfg.RefDiv == 0 || cfg.RefDiv > maxRefDiv {
		return fmt.Errorf("%w: refdiv %d", ErrPLL, cfg.RefDiv)
	}

	refHz := xtalHz / uint32(cfg.RefDiv)
	if refHz < minRefHz {
		return fmt.Errorf("%w: reference %d Hz below %d Hz", ErrPLL, refHz, minRefHz)
	}

	if cfg.VCOFreqHz < minVCOHz || cfg.VCOFreqHz > maxVCOHz {
		return fmt.Errorf("%w: vco %d Hz out of range", ErrPLL, cfg.VCOFreqHz)
	}

	if cfg.VCOFreqHz%refHz != 0 {
		return fmt.Errorf("%w: vco %d Hz is not a multiple of reference %d Hz", ErrPLL, cfg.VCOFreqHz, refHz)
	}
	fbdiv := cfg.VCOFreqHz / refHz
	if fbdiv < minFeedback || fbdiv > maxFeedback {
		return fmt.Errorf("%w: feedback divider %d", ErrPLL, fbdiv)
	}

	if cfg.PostDiv1 < 1 || cfg.PostDiv1 > maxPostDiv || cfg.PostDiv2 < 1 || cfg.PostDiv2 > maxPostDiv {
		return fmt.Errorf("%w: post dividers %d/%d", ErrPLL, cfg.PostDiv1, cfg.PostDiv2)
	}
	if cfg.PostDiv1 < cfg.PostDiv2 {
		return fmt.Errorf("%w: postdiv1 %d must not be below postdiv2 %d", ErrPLL, cfg.PostDiv1, cfg.PostDiv2)
	}

	return nil
}
