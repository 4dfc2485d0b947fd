// ABOUTME: Host stand-in for the audio pin's RC filter and amplifier
// ABOUTME: Averages each carrier period's duty into PCM and plays it through oto
package speaker

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// DefaultCapacity holds a quarter second at the device rate
const DefaultCapacity = 8000

// Speaker buffers one sample per PWM wrap and hands them to the host audio
// device on demand. The device clock and the carrier drift apart slowly, so
// the ring drops the oldest samples on overflow and plays the last level on
// underflow.
type Speaker struct {
	mu     sync.Mutex
	ring   []int16
	head   int
	size   int
	last   int16
	volume int
	muted  bool

	underruns int64
	overruns  int64

	otoCtx *oto.Context
	player *oto.Player
	ready  bool
}

// Stats reports ring health
type Stats struct {
	Buffered  int
	Underruns int64
	Overruns  int64
}

// New creates a speaker with room for capacity samples
func New(capacity int) *Speaker {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Speaker{
		ring:   make([]int16, capacity),
		volume: 100,
	}
}

// Open starts host playback at sampleRate
func (s *Speaker) Open(sampleRate int) error {
	if s.otoCtx != nil {
		log.Printf("Audio output already initialized, reusing context")
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	s.otoCtx = ctx
	s.player = ctx.NewPlayer(s)
	s.player.Play()
	s.ready = true

	log.Printf("Audio output initialized: %dHz mono", sampleRate)
	return nil
}

// Level converts the compare value of one carrier period into a signed
// sample. Rescaled audio only reaches half of top, so that half spans the
// full output range.
func Level(duty, top uint16) int16 {
	if top == 0 {
		return 0
	}
	frac := float64(duty) / float64(top)
	v := frac*4 - 1
	if v > 1 {
		v = 1
	}
	return int16(v * 32767)
}

// Tap receives the pin level once per wrap. Install it with SimSlice.SetTap.
func (s *Speaker) Tap(duty, top uint16) {
	v := Level(duty, top)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size == len(s.ring) {
		s.head = (s.head + 1) % len(s.ring)
		s.size--
		s.overruns++
	}
	s.ring[(s.head+s.size)%len(s.ring)] = v
	s.size++
}

// Read fills p with little-endian int16 samples for the audio device
func (s *Speaker) Read(p []byte) (int, error) {
	n := len(p) &^ 1

	s.mu.Lock()
	defer s.mu.Unlock()

	multiplier := getVolumeMultiplier(s.volume, s.muted)
	short := false
	for i := 0; i < n; i += 2 {
		if s.size > 0 {
			s.last = s.ring[s.head]
			s.head = (s.head + 1) % len(s.ring)
			s.size--
		} else {
			short = true
		}
		sample := int16(float64(s.last) * multiplier)
		binary.LittleEndian.PutUint16(p[i:], uint16(sample))
	}
	if short {
		s.underruns++
	}
	return n, nil
}

// SetVolume sets the volume (0-100)
func (s *Speaker) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()

	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (s *Speaker) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()

	log.Printf("Muted: %v", muted)
}

// Volume returns current volume
func (s *Speaker) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// IsMuted returns mute state
func (s *Speaker) IsMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Stats returns ring statistics
func (s *Speaker) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Buffered:  s.size,
		Underruns: s.underruns,
		Overruns:  s.overruns,
	}
}

// Close stops host playback
func (s *Speaker) Close() error {
	if s.player != nil {
		if err := s.player.Close(); err != nil {
			log.Printf("Error closing audio player: %v", err)
		}
		s.player = nil
	}
	if s.otoCtx != nil {
		s.otoCtx.Suspend()
		s.ready = false
	}
	return nil
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
