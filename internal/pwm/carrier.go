// ABOUTME: PWM carrier timing: top-of-count and clock divider
// ABOUTME: Chooses the divider whose counter wrap rate is closest to the sample rate
package pwm

import (
	"fmt"
)

// DefaultTop is the counter top used for audio output
const DefaultTop uint16 = 4096

// Carrier holds the counter top and the 8.4 fixed-point clock divider.
//
//	fPWM = fSYS / ((TOP + 1) * (DIV_INT + DIV_FRAC/16))
type Carrier struct {
	Top     uint16
	DivInt  uint8
	DivFrac uint8
}

// CarrierFor picks the divider for top that makes the counter wrap closest to sampleRate
func CarrierFor(sysHz uint32, top uint16, sampleRate uint32) (Carrier, error) {
	if sysHz == 0 || sampleRate == 0 {
		return Carrier{}, fmt.Errorf("%w: sys=%dHz rate=%dHz", ErrCarrier, sysHz, sampleRate)
	}

	period := (uint64(top) + 1) * uint64(sampleRate)
	div16 := (uint64(sysHz)*16 + period/2) / period

	if div16 < 16 {
		return Carrier{}, fmt.Errorf("%w: %dHz too fast for top %d at %dHz", ErrCarrier, sampleRate, top, sysHz)
	}
	if div16 > 255*16+15 {
		return Carrier{}, fmt.Errorf("%w: %dHz too slow for top %d at %dHz", ErrCarrier, sampleRate, top, sysHz)
	}

	return Carrier{
		Top:     top,
		DivInt:  uint8(div16 / 16),
		DivFrac: uint8(div16 % 16),
	}, nil
}

// WrapHz returns how often the counter wraps at sysHz
func (c Carrier) WrapHz(sysHz uint32) float64 {
	div := float64(c.DivInt) + float64(c.DivFrac)/16
	if div == 0 {
		return 0
	}
	return float64(sysHz) / ((float64(c.Top) + 1) * div)
}
