// ABOUTME: Converts arbitrary WAV or MP3 input into the device's asset format
// ABOUTME: Resamples to the PWM rate, mixes to mono and writes unsigned 8-bit PCM
package assetprep

import (
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/Sendspin/sendspin-pico/internal/audio"
	"github.com/faiface/beep"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// DefaultQuality is the beep resampler quality
	DefaultQuality = 4

	chunkFrames = 1024

	// WAVE_FORMAT_PCM
	pcmFormat = 1
)

// Options control the conversion
type Options struct {
	Rate    int
	Quality int
}

// Result describes the written asset
type Result struct {
	SourceRate     int
	SourceChannels int
	Frames         int
	Clipped        int
}

// Duration is the playing time at the output rate
func (r Result) Duration(rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(r.Frames) * time.Second / time.Duration(rate)
}

// Convert decodes src, resamples it to opts.Rate and writes an 8-bit mono
// WAV with a canonical 44-byte header to dst.
func Convert(src io.ReadCloser, kind Kind, dst io.WriteSeeker, opts Options) (Result, error) {
	if opts.Rate == 0 {
		opts.Rate = audio.SampleRate
	}
	if opts.Rate < 1 {
		return Result{}, fmt.Errorf("%w: %d", ErrRate, opts.Rate)
	}
	if opts.Quality == 0 {
		opts.Quality = DefaultQuality
	}
	if opts.Quality < 1 || opts.Quality > 64 {
		return Result{}, fmt.Errorf("%w: %d", ErrQuality, opts.Quality)
	}

	stream, format, err := Open(src, kind)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		SourceRate:     int(format.SampleRate),
		SourceChannels: format.NumChannels,
	}

	var s beep.Streamer = stream
	if int(format.SampleRate) != opts.Rate {
		log.Printf("Resampling %dHz -> %dHz (quality %d)", format.SampleRate, opts.Rate, opts.Quality)
		s = beep.Resample(opts.Quality, format.SampleRate, beep.SampleRate(opts.Rate), s)
	}

	enc := wav.NewEncoder(dst, opts.Rate, 8, 1, pcmFormat)

	frames := make([][2]float64, chunkFrames)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: opts.Rate},
		Data:           make([]int, chunkFrames),
		SourceBitDepth: 8,
	}

	for {
		n, ok := s.Stream(frames)
		if n > 0 {
			buf.Data = buf.Data[:n]
			for i := range n {
				v, clipped := Quantize(mix(frames[i], format.NumChannels))
				if clipped {
					res.Clipped++
				}
				buf.Data[i] = int(v)
			}
			if err := enc.Write(buf); err != nil {
				return res, fmt.Errorf("encode: %w", err)
			}
			res.Frames += n
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return res, fmt.Errorf("decode: %w", err)
	}

	if err := enc.Close(); err != nil {
		return res, fmt.Errorf("finalize: %w", err)
	}

	if res.Clipped > 0 {
		log.Printf("Warning: %d samples clipped", res.Clipped)
	}
	return res, nil
}

// mix folds a frame to mono. beep duplicates mono input into both channels.
func mix(f [2]float64, channels int) float64 {
	if channels == 1 {
		return f[0]
	}
	return (f[0] + f[1]) / 2
}

// Quantize maps [-1, 1] onto unsigned 8-bit PCM centred on 128
func Quantize(v float64) (byte, bool) {
	q := math.Round(v*127.5 + 127.5)
	switch {
	case q < 0:
		return 0, true
	case q > 255:
		return 255, true
	}
	return byte(q), false
}
