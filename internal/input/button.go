// ABOUTME: Polled edge detector for active-low push buttons
// ABOUTME: Reports one press per continuous low level, however long it is held
package input

// Pin is a GPIO input read as active-low with a pull-up bias
type Pin interface {
	IsLow() bool
}

// Button turns a level-sampled pin into single press events.
type Button struct {
	pin         Pin
	alreadyDown bool
}

// NewButton samples pin once so a button held through boot does not count as a press
func NewButton(pin Pin) *Button {
	return &Button{
		pin:         pin,
		alreadyDown: pin.IsLow(),
	}
}

// Pressed samples the pin and returns true only on the down-edge
func (b *Button) Pressed() bool {
	if !b.pin.IsLow() {
		b.alreadyDown = false
		return false
	}
	if b.alreadyDown {
		return false
	}
	b.alreadyDown = true
	return true
}

// IsDown reports the latched level from the last sample
func (b *Button) IsDown() bool {
	return b.alreadyDown
}
