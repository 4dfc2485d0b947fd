// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the front panel
package ui

import (
	"github.com/Sendspin/sendspin-pico/internal/board"
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeChangeMsg reports a speaker volume change from the panel
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg signals the user asked to quit
type QuitMsg struct{}

// Control holds channels from the panel back to main
type Control struct {
	Changes chan VolumeChangeMsg
	Quit    chan QuitMsg
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model showing the given speaker volume (0-100)
func NewModel(buttons Buttons, ctrl *Control, volume int) Model {
	volume = max(0, min(volume, 100))
	return Model{
		volume:  volume,
		state:   "idle",
		held:    make(map[board.ButtonID]bool),
		buttons: buttons,
		control: ctrl,
	}
}

// Run creates the TUI program; the caller runs it
func Run(buttons Buttons, ctrl *Control, volume int) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(buttons, ctrl, volume), tea.WithAltScreen())
	return p, nil
}
