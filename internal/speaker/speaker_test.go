// ABOUTME: Tests for the host speaker
// ABOUTME: Tests duty-to-level mapping, ring overflow and underflow, and volume
package speaker

import (
	"encoding/binary"
	"testing"
)

func readSamples(t *testing.T, s *Speaker, n int) []int16 {
	t.Helper()

	buf := make([]byte, n*2)
	got, err := s.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != len(buf) {
		t.Fatalf("expected %d bytes, got %d", len(buf), got)
	}

	out := make([]int16, n)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return out
}

func TestLevel(t *testing.T) {
	tests := []struct {
		duty, top uint16
		expected  int16
	}{
		{0, 4096, -32767},
		{1024, 4096, 0},
		{2048, 4096, 32767},
		{4096, 4096, 32767},
		{5, 0, 0},
	}

	for _, tt := range tests {
		if got := Level(tt.duty, tt.top); got != tt.expected {
			t.Errorf("Level(%d, %d): expected %d, got %d", tt.duty, tt.top, tt.expected, got)
		}
	}
}

func TestTapThenRead(t *testing.T) {
	s := New(16)
	s.Tap(2048, 4096)
	s.Tap(1024, 4096)

	got := readSamples(t, s, 2)
	if got[0] != 32767 || got[1] != 0 {
		t.Errorf("expected [32767 0], got %v", got)
	}
}

func TestUnderflowRepeatsLastLevel(t *testing.T) {
	s := New(16)
	s.Tap(2048, 4096)

	got := readSamples(t, s, 3)
	for i, v := range got {
		if v != 32767 {
			t.Errorf("sample %d: expected 32767, got %d", i, v)
		}
	}
	if s.Stats().Underruns != 1 {
		t.Errorf("expected 1 underrun, got %d", s.Stats().Underruns)
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	s := New(2)
	s.Tap(0, 4096)
	s.Tap(1024, 4096)
	s.Tap(2048, 4096)

	stats := s.Stats()
	if stats.Overruns != 1 || stats.Buffered != 2 {
		t.Errorf("expected 1 overrun and 2 buffered, got %+v", stats)
	}

	got := readSamples(t, s, 2)
	if got[0] != 0 || got[1] != 32767 {
		t.Errorf("expected [0 32767], got %v", got)
	}
}

func TestOddReadLength(t *testing.T) {
	s := New(4)
	n, _ := s.Read(make([]byte, 5))
	if n != 4 {
		t.Errorf("expected 4 bytes, got %d", n)
	}
}

func TestVolumeMultiplier(t *testing.T) {
	tests := []struct {
		volume   int
		muted    bool
		expected float64
	}{
		{100, false, 1.0},
		{50, false, 0.5},
		{0, false, 0.0},
		{80, true, 0.0}, // Muted overrides volume
	}

	for _, tt := range tests {
		result := getVolumeMultiplier(tt.volume, tt.muted)
		if result != tt.expected {
			t.Errorf("volume=%d, muted=%v: expected %f, got %f",
				tt.volume, tt.muted, tt.expected, result)
		}
	}
}

func TestVolumeScalesOutput(t *testing.T) {
	s := New(4)
	s.SetVolume(150)
	if s.Volume() != 100 {
		t.Errorf("expected volume clamped to 100, got %d", s.Volume())
	}

	s.SetVolume(50)
	s.Tap(2048, 4096)
	if got := readSamples(t, s, 1)[0]; got != 16383 {
		t.Errorf("expected 16383, got %d", got)
	}

	s.SetMuted(true)
	s.Tap(2048, 4096)
	if got := readSamples(t, s, 1)[0]; got != 0 {
		t.Errorf("expected silence when muted, got %d", got)
	}
}
