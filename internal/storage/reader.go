// ABOUTME: Storage producer that streams an asset into the inter-core FIFO
// ABOUTME: Runs on core 1; the only component allowed to touch storage
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/Sendspin/sendspin-pico/internal/audio"
	"github.com/Sendspin/sendspin-pico/internal/fifo"
	"github.com/Sendspin/sendspin-pico/internal/input"
	"github.com/go-audio/wav"
)

// Button indices on the producer core's latch
const (
	ButtonRestart = 0
	ButtonStop    = 1
)

// pitchTolerance is how far an asset's nominal rate may drift from the
// output rate before a warning is logged
const pitchTolerance = 1000

// Reader streams one asset, a chunk at a time, one FIFO word per byte.
type Reader struct {
	name   string
	file   File
	format audio.Format
	chunk  []byte

	// remaining counts data bytes left before the declared end of the data
	// chunk; negative when the header declares no length.
	remaining int64

	// Loop is consulted on end of stream; returning true restarts from the first sample.
	Loop func() bool

	// Buttons, if set, is drained after every chunk.
	Buttons *input.Latch

	bytesRead atomic.Int64
	chunks    atomic.Int64
	acks      atomic.Int64
	restarts  atomic.Int64
	finished  atomic.Bool
}

// ReaderStats reports producer progress
type ReaderStats struct {
	BytesRead int64
	Chunks    int64
	Acks      int64
	Restarts  int64
	Finished  bool
}

// Open opens name on vol, validates its container and positions the cursor at
// the first sample. chunkSize is the read size, normally the window size.
func Open(vol *Volume, name string, chunkSize int) (*Reader, error) {
	if chunkSize < 1 {
		chunkSize = audio.DefaultWindowSize
	}

	f, err := vol.Open(name)
	if err != nil {
		return nil, err
	}

	format, err := probe(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	checkSize(f, name, format)

	r := &Reader{
		name:   name,
		file:   f,
		format: format,
		chunk:  make([]byte, chunkSize),
	}
	if err := r.Reset(); err != nil {
		f.Close()
		return nil, err
	}

	log.Printf("Asset %s: %dHz %dch %d-bit, %d data bytes",
		name, format.SampleRate, format.Channels, format.BitDepth, format.DataBytes)
	return r, nil
}

// probe reads the container header
func probe(f File) (audio.Format, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return audio.Format{}, ErrNotWAV
	}

	format := audio.Format{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if err := dec.FwdToPCM(); err == nil {
		format.DataBytes = dec.PCMLen()
	}

	if dec.WavAudioFormat != 1 || format.BitDepth != 8 || format.Channels != 1 {
		log.Printf("Warning: asset is format %d, %d-bit, %dch; device plays unsigned 8-bit mono PCM",
			dec.WavAudioFormat, format.BitDepth, format.Channels)
	}
	if diff := format.SampleRate - audio.SampleRate; diff > pitchTolerance || diff < -pitchTolerance {
		log.Printf("Warning: asset rate %dHz differs from output rate %dHz, pitch will shift",
			format.SampleRate, audio.SampleRate)
	}

	return format, nil
}

// checkSize warns when the file length disagrees with the declared data chunk
func checkSize(f File, name string, format audio.Format) {
	if format.DataBytes <= 0 {
		return
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return
	}
	want := audio.HeaderSize + format.DataBytes
	switch {
	case size > want:
		log.Printf("Warning: %s has %d bytes after the data chunk, ignoring them", name, size-want)
	case size < want:
		log.Printf("Warning: %s is truncated, header declares %d data bytes but file holds %d",
			name, format.DataBytes, max(size-audio.HeaderSize, 0))
	}
}

// Name returns the asset name
func (r *Reader) Name() string {
	return r.name
}

// Format returns the asset's declared format
func (r *Reader) Format() audio.Format {
	return r.format
}

// Reset moves the read cursor back to the first sample after the header
func (r *Reader) Reset() error {
	if _, err := r.file.Seek(audio.HeaderSize, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", r.name, err)
	}
	r.remaining = -1
	if r.format.DataBytes > 0 {
		r.remaining = r.format.DataBytes
	}
	return nil
}

// Position returns the current read offset in the asset
func (r *Reader) Position() (int64, error) {
	return r.file.Seek(0, io.SeekCurrent)
}

// Close releases the asset
func (r *Reader) Close() error {
	return r.file.Close()
}

// Stats returns producer counters
func (r *Reader) Stats() ReaderStats {
	return ReaderStats{
		BytesRead: r.bytesRead.Load(),
		Chunks:    r.chunks.Load(),
		Acks:      r.acks.Load(),
		Restarts:  r.restarts.Load(),
		Finished:  r.finished.Load(),
	}
}

// Run streams the asset into port until it ends, then writes
// fifo.EndOfStream. Each word write blocks while the consumer's slot is full.
func (r *Reader) Run(ctx context.Context, port fifo.Port) error {
	log.Printf("Streaming %s", r.name)

	for {
		buf := r.chunk
		if r.remaining >= 0 && r.remaining < int64(len(buf)) {
			buf = buf[:r.remaining]
		}
		n, err := io.ReadFull(r.file, buf)
		if r.remaining >= 0 {
			r.remaining -= int64(n)
		}
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("read %s: %w", r.name, err)
		}

		for i := range n {
			if err := port.WriteContext(ctx, fifo.SampleWord(r.chunk[i])); err != nil {
				return err
			}
		}
		r.bytesRead.Add(int64(n))
		r.chunks.Add(1)

		r.drainAcks(port)

		restart, stop := r.takeButtons()
		if stop {
			log.Printf("Stop pressed, ending stream")
			break
		}
		if restart {
			log.Printf("Restart pressed, rewinding %s", r.name)
			if err := r.restart(); err != nil {
				return err
			}
			continue
		}

		if n < len(r.chunk) {
			if r.Loop != nil && r.bytesRead.Load() > 0 && r.Loop() {
				if err := r.restart(); err != nil {
					return err
				}
				continue
			}
			break
		}
	}

	if err := port.WriteContext(ctx, fifo.EndOfStream); err != nil {
		return err
	}
	r.finished.Store(true)

	log.Printf("Read %d bytes of %s", r.bytesRead.Load(), r.name)
	return nil
}

func (r *Reader) restart() error {
	r.restarts.Add(1)
	return r.Reset()
}

// drainAcks counts windows the consumer reported as played
func (r *Reader) drainAcks(port fifo.Port) {
	for {
		w, ok := port.TryRead()
		if !ok {
			return
		}
		if w == fifo.Ack {
			r.acks.Add(1)
		}
	}
}

func (r *Reader) takeButtons() (restart, stop bool) {
	if r.Buttons == nil {
		return false, false
	}
	if r.Buttons.Len() > ButtonRestart {
		restart = r.Buttons.Take(ButtonRestart)
	}
	if r.Buttons.Len() > ButtonStop {
		stop = r.Buttons.Take(ButtonStop)
	}
	return restart, stop
}
