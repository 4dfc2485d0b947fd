// ABOUTME: Input decoders for asset preparation
// ABOUTME: Turns WAV and MP3 files into beep streamers
package assetprep

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
)

// Kind is an input container
type Kind int

const (
	KindUnknown Kind = iota
	KindWAV
	KindMP3
)

// KindFromName picks a decoder by file extension
func KindFromName(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".wave":
		return KindWAV
	case ".mp3":
		return KindMP3
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindWAV:
		return "wav"
	case KindMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// Open decodes r as kind
func Open(r io.ReadCloser, kind Kind) (beep.Streamer, beep.Format, error) {
	switch kind {
	case KindWAV:
		s, format, err := wav.Decode(r)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("decode wav: %w", err)
		}
		return s, format, nil

	case KindMP3:
		dec, err := gomp3.NewDecoder(r)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("decode mp3: %w", err)
		}
		// go-mp3 always outputs 16-bit stereo
		format := beep.Format{
			SampleRate:  beep.SampleRate(dec.SampleRate()),
			NumChannels: 2,
			Precision:   2,
		}
		return newMP3Streamer(dec), format, nil

	default:
		return nil, beep.Format{}, ErrUnsupported
	}
}

// mp3Reader is the part of gomp3.Decoder the streamer needs
type mp3Reader interface {
	Read([]byte) (int, error)
}

// mp3Streamer adapts go-mp3's interleaved little-endian int16 output to beep
type mp3Streamer struct {
	dec mp3Reader
	buf []byte
	err error
}

func newMP3Streamer(dec mp3Reader) *mp3Streamer {
	return &mp3Streamer{dec: dec, buf: make([]byte, 4096)}
}

func (s *mp3Streamer) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}

	need := len(samples) * 4
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	n, err := io.ReadFull(s.dec, buf)
	frames := n / 4
	for i := range frames {
		l := int16(uint16(buf[4*i]) | uint16(buf[4*i+1])<<8)
		r := int16(uint16(buf[4*i+2]) | uint16(buf[4*i+3])<<8)
		samples[i][0] = float64(l) / 32768.0
		samples[i][1] = float64(r) / 32768.0
	}

	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		s.err = err
	}
	if frames == 0 {
		return 0, false
	}
	return frames, true
}

func (s *mp3Streamer) Err() error {
	return s.err
}
