// ABOUTME: Playback state machine states
// ABOUTME: Idle until the first window arrives, then Playing and Paused toggle on the pause button
package player

import "fmt"

// State is the playback state
type State int32

const (
	Idle State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
