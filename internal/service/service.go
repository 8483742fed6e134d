// Package service holds the business rules of the catalog, enrollment and review flows.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iyhunko/academy-backend/internal/apperror"
	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/repository"
	"github.com/iyhunko/academy-backend/internal/sqs"
	"github.com/iyhunko/academy-backend/internal/storage"
)

// ImageStore saves and deletes entity images.
type ImageStore interface {
	Save(ctx context.Context, up storage.Upload) (*model.Image, error)
	Delete(ctx context.Context, filename string) error
}

// ListCache caches full listings between writes.
type ListCache interface {
	Load(ctx context.Context, key string, dst any) bool
	Store(ctx context.Context, key string, v any)
	Invalidate(ctx context.Context, key string)
}

type noCache struct{}

func (noCache) Load(context.Context, string, any) bool { return false }
func (noCache) Store(context.Context, string, any)     {}
func (noCache) Invalidate(context.Context, string)     {}

func cacheOrNoop(c ListCache) ListCache {
	if c == nil {
		return noCache{}
	}
	return c
}

// lookupErr maps a repository miss to a NotFound error for resource.
func lookupErr(err error, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(resource, id)
	}
	return err
}

// recordEvent writes an outbox event with tx so it commits together with the change.
func recordEvent(ctx context.Context, tx repository.Store, eventType string, msg sqs.EventMessage) error {
	msg.Type = eventType
	msg.OccurredAt = time.Now().UTC()

	event, err := model.NewEvent(eventType, msg)
	if err != nil {
		return err
	}
	if _, err := tx.Events().Create(ctx, event); err != nil {
		return fmt.Errorf("failed to record %s event: %w", eventType, err)
	}
	return nil
}

// persistWithImage stores up (when given), runs persist with the new image and then
// settles the files: the new file is removed when persist fails, the old one when it succeeds.
// A failed removal of the old file is only logged.
func persistWithImage(ctx context.Context, images ImageStore, up *storage.Upload, old *model.Image, persist func(img *model.Image) error) error {
	var img *model.Image
	if up != nil {
		saved, err := images.Save(ctx, *up)
		if err != nil {
			return err
		}
		img = saved
	}

	if err := persist(img); err != nil {
		if img != nil {
			if delErr := images.Delete(ctx, img.Filename); delErr != nil {
				slog.Error("Failed to remove image of failed write", slog.String("filename", img.Filename), slog.Any("err", delErr))
			}
		}
		return err
	}

	if img != nil && old != nil && old.Filename != "" && old.Filename != img.Filename {
		if err := images.Delete(ctx, old.Filename); err != nil {
			slog.Warn("Failed to remove replaced image", slog.String("filename", old.Filename), slog.Any("err", err))
		}
	}
	return nil
}

func errNoFields() error {
	return apperror.Validation("At least one field must be provided for update.")
}
