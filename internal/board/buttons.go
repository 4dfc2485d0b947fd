// ABOUTME: Front panel button identities
// ABOUTME: Maps each button to its GPIO and the core that services it
package board

import "fmt"

// ButtonID names a physical button
type ButtonID int

const (
	Pause ButtonID = iota
	Restart
	Stop
)

// GPIO returns the pin the button is wired to
func (id ButtonID) GPIO() int {
	switch id {
	case Pause:
		return PauseGPIO
	case Restart:
		return RestartGPIO
	case Stop:
		return StopGPIO
	default:
		return -1
	}
}

func (id ButtonID) String() string {
	switch id {
	case Pause:
		return "pause"
	case Restart:
		return "restart"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("ButtonID(%d)", int(id))
	}
}
