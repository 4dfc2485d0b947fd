// ABOUTME: Storage volume standing in for the mounted SD card partition
// ABOUTME: Mount failures and missing assets are fatal boot errors
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
)

// File is an open asset on a volume
type File interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Volume is a mounted filesystem holding audio assets
type Volume struct {
	fsys  fs.FS
	label string
}

// Mount opens the directory dir as the root volume
func Mount(dir string) (*Volume, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMount, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMount, dir)
	}

	return MountFS(os.DirFS(dir), info.Name()), nil
}

// MountFS wraps an existing filesystem as a volume
func MountFS(fsys fs.FS, label string) *Volume {
	return &Volume{fsys: fsys, label: label}
}

// Label returns the volume label
func (v *Volume) Label() string {
	return v.label
}

// List returns the names of the regular files in the volume root
func (v *Volume) List() ([]string, error) {
	entries, err := fs.ReadDir(v.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read root dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Open opens name for reading
func (v *Volume) Open(name string) (File, error) {
	f, err := v.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetMissing, name)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	rs, ok := f.(File)
	if !ok {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", name, ErrNotSeekable)
	}

	log.Printf("Opened /%s on volume %q", name, v.label)
	return rs, nil
}
