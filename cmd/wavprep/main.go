// ABOUTME: Prepares audio files for the device's SD card
// ABOUTME: Converts WAV or MP3 input into 32 kHz unsigned 8-bit mono WAV
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sendspin/sendspin-pico/internal/assetprep"
	"github.com/Sendspin/sendspin-pico/internal/audio"
)

var (
	rate    = flag.Int("rate", audio.SampleRate, "Output sample rate in Hz")
	quality = flag.Int("quality", assetprep.DefaultQuality, "Resampler quality (1-64)")
	output  = flag.String("o", "", "Output path (default: input name with .wav in the current directory)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] input.{wav,mp3}\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	kind := assetprep.KindFromName(input)
	if kind == assetprep.KindUnknown {
		log.Fatalf("%s: %v", input, assetprep.ErrUnsupported)
	}

	outPath := *output
	if outPath == "" {
		base := filepath.Base(input)
		outPath = strings.TrimSuffix(base, filepath.Ext(base)) + ".wav"
	}
	if abs(outPath) == abs(input) {
		log.Fatalf("Refusing to overwrite input %s", input)
	}

	src, err := os.Open(input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer src.Close()

	dst, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}

	res, err := assetprep.Convert(src, kind, dst, assetprep.Options{
		Rate:    *rate,
		Quality: *quality,
	})
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(outPath)
		log.Fatalf("Conversion failed: %v", err)
	}

	log.Printf("Wrote %s: %d samples (%v) from %s %dHz %dch",
		outPath, res.Frames, res.Duration(*rate), kind, res.SourceRate, res.SourceChannels)
}

func abs(p string) string {
	a, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return a
}
