package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// UploadsRoute is the URL prefix the HTTP server serves disk images from.
const UploadsRoute = "/uploads"

// DiskBackend keeps images in a local directory.
type DiskBackend struct {
	dir string
}

// NewDiskBackend creates dir if needed.
func NewDiskBackend(dir string) (*DiskBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}
	return &DiskBackend{dir: dir}, nil
}

// Dir returns the directory images are written to.
func (d *DiskBackend) Dir() string {
	return d.dir
}

// Put writes body to a temporary file, syncs it and links it into place.
// An existing image of the same name is never replaced.
func (d *DiskBackend) Put(_ context.Context, name, _ string, _ int64, body io.Reader) error {
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		cleanup()
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close image: %w", err)
	}
	// Link fails with fs.ErrExist when name is taken, where Rename would replace it.
	err = os.Link(tmpName, d.path(name))
	_ = os.Remove(tmpName)
	if err != nil {
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}

func (d *DiskBackend) Remove(_ context.Context, name string) error {
	if err := os.Remove(d.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *DiskBackend) URL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + UploadsRoute + "/" + url.PathEscape(name)
}

// path confines name to the uploads directory.
func (d *DiskBackend) path(name string) string {
	return filepath.Join(d.dir, filepath.Base(name))
}
