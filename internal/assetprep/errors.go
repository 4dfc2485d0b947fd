package assetprep

import "errors"

var (
	ErrUnsupported = errors.New("unsupported input format")
	ErrQuality     = errors.New("resample quality out of range")
	ErrRate        = errors.New("invalid sample rate")
)
