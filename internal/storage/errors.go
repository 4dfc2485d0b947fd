package storage

import "errors"

var (
	ErrMount        = errors.New("storage medium failed to mount")
	ErrAssetMissing = errors.New("audio asset missing")
	ErrNotSeekable  = errors.New("asset does not support seeking")
	ErrNotWAV       = errors.New("asset is not a WAV file")
)
