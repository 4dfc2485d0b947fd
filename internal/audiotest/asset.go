// ABOUTME: Test helpers that build synthetic device audio assets
// ABOUTME: Canonical 44-byte WAV headers over raw sample bytes, and in-memory volumes
package audiotest

import (
	"encoding/binary"
	"testing/fstest"
)

// Asset wraps data in a canonical PCM WAV header. data is used as-is.
func Asset(sampleRate, channels, bitDepth int, data []byte) []byte {
	blockAlign := channels * bitDepth / 8
	byteRate := sampleRate * blockAlign

	out := make([]byte, 44+len(data))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(data)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1)
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(bitDepth))

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(data)))

	copy(out[44:], data)
	return out
}

// DeviceAsset is an unsigned 8-bit mono asset at 32 kHz
func DeviceAsset(data []byte) []byte {
	return Asset(32000, 1, 8, data)
}

// Constant returns n samples of value v
func Constant(n int, v byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Ramp returns n samples counting up and wrapping at 256
func Ramp(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}

// Volume builds an in-memory storage volume from name -> contents
func Volume(files map[string][]byte) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys[name] = &fstest.MapFile{Data: data, Mode: 0o644}
	}
	return fsys
}
