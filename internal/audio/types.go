// ABOUTME: Audio type definitions for the PWM player
// ABOUTME: Defines the asset format and the sample-to-duty rescale
package audio

const (
	// SampleRate is the fixed emission rate of the PWM output
	SampleRate = 32000

	// HeaderSize is the canonical WAV header skipped before the first sample
	HeaderSize = 0x2C

	// DefaultWindowSize is the playback window refilled from the inter-core FIFO
	DefaultWindowSize = 128

	// MaxDuty is the largest value Rescale can produce
	MaxDuty = 2047
)

// Format describes an audio asset on storage
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
	DataBytes  int64
}

// Sample is an unsigned 8-bit PCM magnitude
type Sample = byte

// Rescale maps a sample onto the 12-bit compare range of the carrier, then
// halves it to reduce loudness. The result is always in [0, MaxDuty].
func Rescale(v Sample) uint16 {
	value := (uint16(v) << 4) & 0xFFF
	return value >> 1
}
