// ABOUTME: Bubbletea model for the device front panel
// ABOUTME: Shows playback state and counters; keys press the board's buttons
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sendspin/sendspin-pico/internal/audio"
	"github.com/Sendspin/sendspin-pico/internal/board"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// holdTime is how long a key keeps its button pin low
const holdTime = 80 * time.Millisecond

// Buttons is the board side of the panel
type Buttons interface {
	Press(id board.ButtonID)
	Release(id board.ButtonID)
}

// Model represents the TUI state
type Model struct {
	// Identity
	bootID string
	sysHz  uint32
	asset  string
	volLbl string

	// Playback
	state       string
	emitted     int64
	refills     int64
	acksDropped int64
	duty        uint16
	top         uint16
	ended       bool

	// Producer
	bytesRead int64
	restarts  int64

	// Carrier
	wraps    uint64
	overruns uint64

	// Speaker
	volume int
	muted  bool

	// Runtime
	goroutines int
	memAlloc   uint64
	memSys     uint64

	held      map[board.ButtonID]bool
	showDebug bool

	buttons Buttons
	control *Control

	// Dimensions
	width  int
	height int
}

type releaseMsg board.ButtonID

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case releaseMsg:
		id := board.ButtonID(msg)
		if m.buttons != nil {
			m.buttons.Release(id)
		}
		delete(m.held, id)
	}

	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	stateStyles = map[string]lipgloss.Style{
		"playing": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		"paused":  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		"idle":    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}

	faintStyle = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderPlayback())
	b.WriteString(m.renderButtons())

	if m.showDebug {
		b.WriteString(m.renderDebug())
	}

	b.WriteString(m.renderHelp())
	return b.String()
}

func field(name, value string) string {
	return headerStyle.Render(fmt.Sprintf("%-9s", name+":")) + valueStyle.Render(value) + "\n"
}

// renderHeader renders device identity
func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sendspin Pico"))
	b.WriteString("\n\n")
	b.WriteString(field("Boot", truncate(m.bootID, 36)))
	b.WriteString(field("Clock", fmt.Sprintf("%.1f MHz", float64(m.sysHz)/1e6)))
	b.WriteString(field("Asset", truncate(fmt.Sprintf("%s/%s", m.volLbl, m.asset), 42)))
	b.WriteString("\n")
	return b.String()
}

// renderPlayback renders state, counters and the pin level
func (m Model) renderPlayback() string {
	style, ok := stateStyles[m.state]
	if !ok {
		style = valueStyle
	}
	state := m.state
	if m.ended {
		state += " (end of stream)"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-9s", "State:")) + style.Render(state) + "\n")
	b.WriteString(field("Samples", fmt.Sprintf("%d (%s)", m.emitted, playTime(m.emitted))))
	b.WriteString(field("Windows", fmt.Sprintf("%d", m.refills)))
	b.WriteString(field("Duty", fmt.Sprintf("[%s] %4d/%d", renderBar(int(m.duty), int(m.top)/2, 20), m.duty, m.top)))

	muteIcon := ""
	if m.muted {
		muteIcon = " muted"
	}
	b.WriteString(field("Volume", fmt.Sprintf("[%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteIcon)))
	b.WriteString("\n")
	return b.String()
}

// renderButtons renders which buttons are currently held
func (m Model) renderButtons() string {
	var parts []string
	for _, id := range []board.ButtonID{board.Pause, board.Restart, board.Stop} {
		label := fmt.Sprintf("GPIO%d %s", id.GPIO(), id)
		if m.held[id] {
			parts = append(parts, titleStyle.Render("["+label+"]"))
		} else {
			parts = append(parts, faintStyle.Render(" "+label+" "))
		}
	}
	return strings.Join(parts, "  ") + "\n\n"
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("DEBUG"))
	b.WriteString("\n")
	b.WriteString(field("Read", fmt.Sprintf("%d bytes, %d restarts", m.bytesRead, m.restarts)))
	b.WriteString(field("Acks", fmt.Sprintf("%d dropped", m.acksDropped)))
	b.WriteString(field("Wraps", fmt.Sprintf("%d (%d overruns)", m.wraps, m.overruns)))
	b.WriteString(field("Runtime", fmt.Sprintf("%d goroutines, %.1f/%.1f MB",
		m.goroutines, float64(m.memAlloc)/(1<<20), float64(m.memSys)/(1<<20))))
	b.WriteString("\n")
	return b.String()
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return faintStyle.Render("space:Pause  r:Restart  s:Stop  ↑/↓:Volume  m:Mute  d:Debug  q:Quit") + "\n"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.control != nil {
			select {
			case m.control.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case " ", "space":
		return m.press(board.Pause)
	case "r":
		return m.press(board.Restart)
	case "s":
		return m.press(board.Stop)
	case "up":
		if m.volume < 100 {
			m.volume += 5
			if m.volume > 100 {
				m.volume = 100
			}
			m.sendVolume()
		}
	case "down":
		if m.volume > 0 {
			m.volume -= 5
			if m.volume < 0 {
				m.volume = 0
			}
			m.sendVolume()
		}
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// press pulls the button low and schedules its release. A key repeat while
// the button is held does nothing, like a finger resting on it.
func (m Model) press(id board.ButtonID) (tea.Model, tea.Cmd) {
	if m.held[id] {
		return m, nil
	}
	if m.held == nil {
		m.held = make(map[board.ButtonID]bool)
	}
	m.held[id] = true
	if m.buttons != nil {
		m.buttons.Press(id)
	}
	return m, tea.Tick(holdTime, func(time.Time) tea.Msg {
		return releaseMsg(id)
	})
}

func (m Model) sendVolume() {
	if m.control == nil {
		return
	}
	select {
	case m.control.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.BootID != "" {
		m.bootID = msg.BootID
		m.sysHz = msg.SysHz
		m.asset = msg.Asset
		m.volLbl = msg.VolumeLabel
	}
	if msg.State != "" {
		m.state = msg.State
		m.emitted = msg.Emitted
		m.refills = msg.Refills
		m.acksDropped = msg.AcksDropped
		m.duty = msg.Duty
		m.top = msg.Top
		m.ended = msg.Ended
		m.bytesRead = msg.BytesRead
		m.restarts = msg.Restarts
		m.wraps = msg.Wraps
		m.overruns = msg.Overruns
	}
	if msg.Goroutines != 0 {
		m.goroutines = msg.Goroutines
		m.memAlloc = msg.MemAlloc
		m.memSys = msg.MemSys
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	BootID      string
	SysHz       uint32
	Asset       string
	VolumeLabel string

	State       string
	Emitted     int64
	Refills     int64
	AcksDropped int64
	Duty        uint16
	Top         uint16
	Ended       bool
	BytesRead   int64
	Restarts    int64
	Wraps       uint64
	Overruns    uint64

	Goroutines int
	MemAlloc   uint64
	MemSys     uint64
}

// StatusFrom converts a board snapshot
func StatusFrom(s board.Status) StatusMsg {
	return StatusMsg{
		BootID:      s.ID,
		SysHz:       s.SysHz,
		Asset:       s.Asset,
		VolumeLabel: s.Volume,
		State:       s.Playback.State.String(),
		Emitted:     s.Playback.Emitted,
		Refills:     s.Playback.Refills,
		AcksDropped: s.Playback.AcksDropped,
		Duty:        s.Playback.Duty,
		Top:         s.Top,
		Ended:       s.Playback.Ended,
		BytesRead:   s.Producer.BytesRead,
		Restarts:    s.Producer.Restarts,
		Wraps:       s.Carrier.Wraps,
		Overruns:    s.Carrier.Overruns,
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		return strings.Repeat("░", width)
	}
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

// playTime renders a sample count as wall time at the device rate
func playTime(samples int64) string {
	d := time.Duration(samples) * time.Second / audio.SampleRate
	return d.Round(10 * time.Millisecond).String()
}
