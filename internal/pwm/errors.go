package pwm

import "errors"

var (
	ErrCarrier = errors.New("no clock divider reaches the sample rate")
	ErrState   = errors.New("pwm output in wrong state")
)
