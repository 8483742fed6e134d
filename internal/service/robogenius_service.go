package service

import (
	"context"

	"github.com/iyhunko/academy-backend/internal/cache"
	"github.com/iyhunko/academy-backend/internal/metrics"
	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/repository"
	"github.com/iyhunko/academy-backend/internal/sqs"
	"github.com/iyhunko/academy-backend/internal/storage"
	"github.com/iyhunko/academy-backend/internal/validator"
)

const roboGeniusResource = "RoboGenius"

// RoboGeniusInput carries the client supplied RoboGenius fields. Nil means absent.
type RoboGeniusInput struct {
	Title                   *string
	Description             *string
	MonthlyPrice            *float64
	AnnualPrice             *float64
	Category                *string
	WhatYouLearnDescription *string
	Skills                  *string
	TargetAudience          *string
	Features                *string
	Requirements            *string
	Rating                  *float64
	VideoURL                *string
}

func (in RoboGeniusInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.MonthlyPrice == nil && in.AnnualPrice == nil &&
		in.Category == nil && in.WhatYouLearnDescription == nil && in.Skills == nil &&
		in.TargetAudience == nil && in.Features == nil && in.Requirements == nil &&
		in.Rating == nil && in.VideoURL == nil
}

func (in RoboGeniusInput) apply(r *model.RoboGenius) {
	setIf(&r.Title, in.Title)
	setIf(&r.Description, in.Description)
	if in.MonthlyPrice != nil {
		r.MonthlyPrice = in.MonthlyPrice
	}
	if in.AnnualPrice != nil {
		r.AnnualPrice = in.AnnualPrice
	}
	setIf(&r.Category, in.Category)
	setIf(&r.WhatYouLearn.Description, in.WhatYouLearnDescription)
	setIf(&r.WhatYouLearn.Skills, in.Skills)
	setIf(&r.TargetAudience, in.TargetAudience)
	setIf(&r.Features, in.Features)
	setIf(&r.Requirements, in.Requirements)
	setIf(&r.Rating, in.Rating)
	setIf(&r.VideoURL, in.VideoURL)
}

// RoboGeniusService manages the RoboGenius catalog and its images.
type RoboGeniusService struct {
	store  repository.Store
	images ImageStore
	cache  ListCache
}

// NewRoboGeniusService creates a RoboGeniusService. A nil listCache disables list caching.
func NewRoboGeniusService(store repository.Store, images ImageStore, listCache ListCache) *RoboGeniusService {
	return &RoboGeniusService{
		store:  store,
		images: images,
		cache:  cacheOrNoop(listCache),
	}
}

func roboGeniusMessage(r *model.RoboGenius) sqs.EventMessage {
	msg := sqs.EventMessage{ResourceID: r.ID, Name: r.Title}
	if r.MonthlyPrice != nil {
		msg.Price = *r.MonthlyPrice
	}
	return msg
}

// CreateRoboGenius validates the item, stores its image when given and records robogenius.created.
func (rs *RoboGeniusService) CreateRoboGenius(ctx context.Context, in RoboGeniusInput, up *storage.Upload) (*model.RoboGenius, error) {
	entry := &model.RoboGenius{}
	in.apply(entry)
	if err := validator.Validate(entry); err != nil {
		return nil, err
	}

	err := persistWithImage(ctx, rs.images, up, nil, func(img *model.Image) error {
		entry.Image = img
		return rs.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			created, err := tx.RoboGenius().Create(ctx, entry)
			if err != nil {
				return err
			}
			entry = created
			return recordEvent(ctx, tx, model.EventRoboGeniusCreated, roboGeniusMessage(created))
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.RoboGeniusCreated.Inc()
	rs.cache.Invalidate(ctx, cache.RoboGeniusKey)
	return entry, nil
}

func (rs *RoboGeniusService) ListRoboGenius(ctx context.Context) ([]*model.RoboGenius, error) {
	var entries []*model.RoboGenius
	if rs.cache.Load(ctx, cache.RoboGeniusKey, &entries) {
		return entries, nil
	}

	entries, err := rs.store.RoboGenius().List(ctx, *repository.NewQuery())
	if err != nil {
		return nil, err
	}
	rs.cache.Store(ctx, cache.RoboGeniusKey, entries)
	return entries, nil
}

func (rs *RoboGeniusService) GetRoboGenius(ctx context.Context, id string) (*model.RoboGenius, error) {
	entry, err := rs.store.RoboGenius().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, roboGeniusResource, id)
	}
	return entry, nil
}

func (rs *RoboGeniusService) ListByCategory(ctx context.Context, category string) ([]*model.RoboGenius, error) {
	return rs.store.RoboGenius().List(ctx, *repository.NewQuery().With(repository.CategoryField, category))
}

// UpdateRoboGenius applies the supplied fields and optionally replaces the image.
func (rs *RoboGeniusService) UpdateRoboGenius(ctx context.Context, id string, in RoboGeniusInput, up *storage.Upload) (*model.RoboGenius, error) {
	entry, err := rs.GetRoboGenius(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.empty() && up == nil {
		return nil, errNoFields()
	}

	in.apply(entry)
	if err := validator.Validate(entry); err != nil {
		return nil, err
	}

	err = persistWithImage(ctx, rs.images, up, entry.Image, func(img *model.Image) error {
		if img != nil {
			entry.Image = img
		}
		return rs.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			if err := tx.RoboGenius().Update(ctx, entry); err != nil {
				return lookupErr(err, roboGeniusResource, id)
			}
			return recordEvent(ctx, tx, model.EventRoboGeniusUpdated, roboGeniusMessage(entry))
		})
	})
	if err != nil {
		return nil, err
	}

	rs.cache.Invalidate(ctx, cache.RoboGeniusKey)
	return entry, nil
}

// DeleteRoboGenius removes the item and records robogenius.deleted.
func (rs *RoboGeniusService) DeleteRoboGenius(ctx context.Context, id string) error {
	entry, err := rs.GetRoboGenius(ctx, id)
	if err != nil {
		return err
	}

	err = rs.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.RoboGenius().DeleteByID(ctx, id); err != nil {
			return lookupErr(err, roboGeniusResource, id)
		}
		return recordEvent(ctx, tx, model.EventRoboGeniusDeleted, roboGeniusMessage(entry))
	})
	if err != nil {
		return err
	}

	metrics.RoboGeniusDeleted.Inc()
	rs.cache.Invalidate(ctx, cache.RoboGeniusKey)
	return nil
}
