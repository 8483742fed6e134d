package service

import (
	"context"
	"errors"

	"github.com/iyhunko/academy-backend/internal/apperror"
	"github.com/iyhunko/academy-backend/internal/cache"
	"github.com/iyhunko/academy-backend/internal/metrics"
	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/repository"
	"github.com/iyhunko/academy-backend/internal/sqs"
	"github.com/iyhunko/academy-backend/internal/validator"
)

// ReviewInput carries the client supplied review fields. Nil means absent.
type ReviewInput struct {
	Rating  *int
	Comment *string
}

func (in ReviewInput) empty() bool {
	return in.Rating == nil && in.Comment == nil
}

func (in ReviewInput) apply(r *model.Review) {
	setIf(&r.Rating, in.Rating)
	setIf(&r.Comment, in.Comment)
}

// ReviewService manages product reviews. Every mutation recomputes the product's
// averageRating and numOfReviews in the same transaction.
type ReviewService struct {
	store repository.Store
	cache ListCache
}

// NewReviewService creates a ReviewService. A nil listCache disables list caching.
func NewReviewService(store repository.Store, listCache ListCache) *ReviewService {
	return &ReviewService{
		store: store,
		cache: cacheOrNoop(listCache),
	}
}

func reviewMessage(r *model.Review) sqs.EventMessage {
	return sqs.EventMessage{ResourceID: r.ID, ProductID: r.Product, Rating: r.Rating, UserID: r.User}
}

// AddReview stores a review by userID on an existing product.
func (rs *ReviewService) AddReview(ctx context.Context, productID, userID string, in ReviewInput) (*model.Review, error) {
	if _, err := rs.store.Products().FindByID(ctx, productID); err != nil {
		return nil, lookupErr(err, productResource, productID)
	}

	review := &model.Review{Product: productID, User: userID}
	in.apply(review)
	if err := validator.Validate(review); err != nil {
		return nil, err
	}

	err := rs.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		created, err := tx.Reviews().Create(ctx, review)
		if err != nil {
			return err
		}
		review = created
		if err := recomputeRating(ctx, tx, productID); err != nil {
			return err
		}
		return recordEvent(ctx, tx, model.EventReviewCreated, reviewMessage(created))
	})
	if err != nil {
		return nil, err
	}

	metrics.Reviews.WithLabelValues("created").Inc()
	rs.cache.Invalidate(ctx, cache.ProductsKey)
	return review, nil
}

func (rs *ReviewService) ListReviews(ctx context.Context, productID string) ([]*model.Review, error) {
	if _, err := rs.store.Products().FindByID(ctx, productID); err != nil {
		return nil, lookupErr(err, productResource, productID)
	}
	return rs.store.Reviews().List(ctx, *repository.NewQuery().With(repository.ProductField, productID))
}

func (rs *ReviewService) UpdateReview(ctx context.Context, productID, reviewID string, in ReviewInput) (*model.Review, error) {
	review, err := rs.findReview(ctx, productID, reviewID)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, errNoFields()
	}

	in.apply(review)
	if err := validator.Validate(review); err != nil {
		return nil, err
	}

	err = rs.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Reviews().Update(ctx, review); err != nil {
			return reviewLookupErr(err)
		}
		if err := recomputeRating(ctx, tx, productID); err != nil {
			return err
		}
		return recordEvent(ctx, tx, model.EventReviewUpdated, reviewMessage(review))
	})
	if err != nil {
		return nil, err
	}

	metrics.Reviews.WithLabelValues("updated").Inc()
	rs.cache.Invalidate(ctx, cache.ProductsKey)
	return review, nil
}

func (rs *ReviewService) DeleteReview(ctx context.Context, productID, reviewID string) error {
	review, err := rs.findReview(ctx, productID, reviewID)
	if err != nil {
		return err
	}

	err = rs.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Reviews().DeleteByID(ctx, reviewID); err != nil {
			return reviewLookupErr(err)
		}
		if err := recomputeRating(ctx, tx, productID); err != nil {
			return err
		}
		return recordEvent(ctx, tx, model.EventReviewDeleted, reviewMessage(review))
	})
	if err != nil {
		return err
	}

	metrics.Reviews.WithLabelValues("deleted").Inc()
	rs.cache.Invalidate(ctx, cache.ProductsKey)
	return nil
}

// findReview returns the review only when it belongs to productID.
func (rs *ReviewService) findReview(ctx context.Context, productID, reviewID string) (*model.Review, error) {
	review, err := rs.store.Reviews().FindByID(ctx, reviewID)
	if err != nil {
		return nil, reviewLookupErr(err)
	}
	if review.Product != productID {
		return nil, reviewLookupErr(repository.ErrNotFound)
	}
	return review, nil
}

func reviewLookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFoundMessage("Review not found")
	}
	return err
}

// recomputeRating derives the product's rating fields from its reviews.
// The product row is locked before the reviews are aggregated, so concurrent
// review writes recompute one after the other. A product deleted meanwhile has
// nothing to update.
func recomputeRating(ctx context.Context, tx repository.Store, productID string) error {
	if _, err := tx.Products().FindByIDForUpdate(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	summary, err := tx.Reviews().Summary(ctx, productID)
	if err != nil {
		return err
	}
	return tx.Products().SetRating(ctx, productID, summary)
}
