package sql

import (
	"context"

	"github.com/iyhunko/academy-backend/internal/model"
)

// ProductRepository stores products. Their rating fields are written only by SetRating.
type ProductRepository struct {
	*documentRepository[*model.Product]
}

// FindByIDForUpdate reads the product with SELECT ... FOR UPDATE. Outside a
// transaction the lock is released as soon as the statement ends.
func (r *ProductRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error) {
	return r.findForUpdate(ctx, id)
}

// SetRating merges the rating fields into the stored product.
func (r *ProductRepository) SetRating(ctx context.Context, id string, summary model.RatingSummary) error {
	return r.patch(ctx, id, map[string]any{
		"averageRating": summary.Average,
		"numOfReviews":  summary.Count,
	})
}
