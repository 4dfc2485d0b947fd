package clock

import "errors"

var (
	ErrXosc = errors.New("crystal oscillator failed to start")
	ErrPLL  = errors.New("pll failed to lock")
)
