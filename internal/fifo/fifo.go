// ABOUTME: Inter-core FIFO carrying 32-bit words between the two cores
// ABOUTME: Blocking on both ends; the sole backpressure path from storage to playback
package fifo

import (
	"context"
	"sync/atomic"
)

// Word is one 32-bit FIFO entry
type Word uint32

const (
	// Ack is sent from the playback core once a window has been consumed.
	Ack Word = 0

	// EndOfStream follows the last sample of an asset. It lies outside the
	// 8-bit sample range so it can never be confused with audio.
	EndOfStream Word = 0xFFFF_FFFF
)

// Depth is the hardware slot count used by the device.
const Depth = 1

// SampleWord zero-extends an 8-bit sample into a word
func SampleWord(b byte) Word {
	return Word(b)
}

// Sample returns the sample carried in the low byte
func (w Word) Sample() byte {
	return byte(w & 0xFF)
}

// IsSample reports whether w carries audio data
func (w Word) IsSample() bool {
	return w <= 0xFF
}

// FIFO is one direction of the inter-core queue.
type FIFO struct {
	slot chan Word

	written atomic.Uint64
	read    atomic.Uint64
}

// Stats reports FIFO traffic
type Stats struct {
	Written uint64
	Read    uint64
	Queued  int
}

// New creates a FIFO holding at most depth words. Depth below one is treated as one.
func New(depth int) *FIFO {
	if depth < 1 {
		depth = 1
	}
	return &FIFO{slot: make(chan Word, depth)}
}

// Write blocks until w has been accepted
func (f *FIFO) Write(w Word) {
	f.slot <- w
	f.written.Add(1)
}

// Read blocks until a word is available
func (f *FIFO) Read() Word {
	w := <-f.slot
	f.read.Add(1)
	return w
}

// TryWrite pushes w only if there is room, without blocking
func (f *FIFO) TryWrite(w Word) bool {
	select {
	case f.slot <- w:
		f.written.Add(1)
		return true
	default:
		return false
	}
}

// TryRead pops a word only if one is queued, without blocking
func (f *FIFO) TryRead() (Word, bool) {
	select {
	case w := <-f.slot:
		f.read.Add(1)
		return w, true
	default:
		return 0, false
	}
}

// WriteContext is Write that gives up when ctx is done
func (f *FIFO) WriteContext(ctx context.Context, w Word) error {
	select {
	case f.slot <- w:
		f.written.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadContext is Read that gives up when ctx is done
func (f *FIFO) ReadContext(ctx context.Context) (Word, error) {
	select {
	case w := <-f.slot:
		f.read.Add(1)
		return w, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Len returns the number of queued words
func (f *FIFO) Len() int {
	return len(f.slot)
}

// Stats returns traffic counters
func (f *FIFO) Stats() Stats {
	return Stats{
		Written: f.written.Load(),
		Read:    f.read.Load(),
		Queued:  len(f.slot),
	}
}
