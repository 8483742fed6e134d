// Package storage saves and deletes entity images behind an upload policy.
package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/iyhunko/academy-backend/internal/apperror"
	"github.com/iyhunko/academy-backend/internal/metrics"
	"github.com/iyhunko/academy-backend/internal/model"
)

// Naming selects how stored filenames are derived.
type Naming int

const (
	// NamingRandom names files <unix-millis>-<random><ext>.
	NamingRandom Naming = iota
	// NamingOriginal names files <unix-millis>-<random>-<original name>.
	NamingOriginal
)

var (
	DefaultExtensions = []string{".jpeg", ".jpg", ".png"}
	DefaultMediaTypes = []string{"image/jpeg", "image/jpg", "image/png"}
)

// Policy is the upload configuration of one entity type.
type Policy struct {
	Extensions []string
	MediaTypes []string
	// MaxBytes is the size ceiling. 0 means unlimited.
	MaxBytes int64
	Naming   Naming
}

// ProductPolicy returns the image policy used for products.
func ProductPolicy(maxBytes int64) Policy {
	return Policy{Extensions: DefaultExtensions, MediaTypes: DefaultMediaTypes, MaxBytes: maxBytes, Naming: NamingRandom}
}

// CoursePolicy returns the image policy used for courses and RoboGenius entries.
func CoursePolicy(maxBytes int64) Policy {
	return Policy{Extensions: DefaultExtensions, MediaTypes: DefaultMediaTypes, MaxBytes: maxBytes, Naming: NamingOriginal}
}

// Upload is an image received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	// BaseURL is scheme://host of the request, used by backends serving files themselves.
	BaseURL string
}

// Backend persists image bytes.
type Backend interface {
	Put(ctx context.Context, name, contentType string, size int64, body io.Reader) error
	// Remove deletes name. A missing file is not an error.
	Remove(ctx context.Context, name string) error
	URL(baseURL, name string) string
}

// ImageStore applies a Policy in front of a Backend.
type ImageStore struct {
	backend Backend
	policy  Policy
	now     func() time.Time
}

// NewImageStore creates an ImageStore.
func NewImageStore(backend Backend, policy Policy) *ImageStore {
	return &ImageStore{backend: backend, policy: policy, now: time.Now}
}

// Save validates up against the policy, writes it and returns its reference.
func (s *ImageStore) Save(ctx context.Context, up Upload) (*model.Image, error) {
	if err := s.check(up); err != nil {
		return nil, err
	}

	name := s.filename(up.Filename)
	if err := s.backend.Put(ctx, name, up.ContentType, up.Size, up.Body); err != nil {
		return nil, fmt.Errorf("failed to store image %s: %w", name, err)
	}
	metrics.ImagesStored.Inc()

	return &model.Image{Filename: name, URL: s.backend.URL(up.BaseURL, name)}, nil
}

// Delete removes a stored image. Deleting a missing file succeeds.
func (s *ImageStore) Delete(ctx context.Context, filename string) error {
	if filename == "" {
		return nil
	}
	if err := s.backend.Remove(ctx, filename); err != nil {
		return fmt.Errorf("failed to delete image %s: %w", filename, err)
	}
	return nil
}

func (s *ImageStore) check(up Upload) error {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(up.ContentType, ";", 2)[0]))
	if !slices.Contains(s.policy.Extensions, ext) || !slices.Contains(s.policy.MediaTypes, mediaType) {
		metrics.ImagesRejected.WithLabelValues("media_type").Inc()
		return apperror.UnsupportedMediaType("Only images are allowed (jpeg, jpg, png)")
	}
	if s.policy.MaxBytes > 0 && up.Size > s.policy.MaxBytes {
		metrics.ImagesRejected.WithLabelValues("size").Inc()
		return apperror.PayloadTooLarge(s.policy.MaxBytes)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *ImageStore) filename(original string) string {
	ts := s.now().UnixMilli()
	if s.policy.Naming == NamingOriginal {
		base := unsafeChars.ReplaceAllString(filepath.Base(original), "-")
		return fmt.Sprintf("%d-%d-%s", ts, rand.Int64N(1e6), base)
	}
	return fmt.Sprintf("%d-%d%s", ts, rand.Int64N(1e9), strings.ToLower(filepath.Ext(original)))
}
