package sql

import (
	"context"
	"fmt"

	"github.com/iyhunko/academy-backend/internal/model"
)

// ReviewRepository stores reviews and aggregates them per product.
type ReviewRepository struct {
	*documentRepository[*model.Review]
}

// Summary returns the average rating and review count of a product.
func (r *ReviewRepository) Summary(ctx context.Context, productID string) (model.RatingSummary, error) {
	query := `SELECT COALESCE(AVG((doc->>'rating')::numeric), 0)::float8, COUNT(*)
	          FROM reviews
	          WHERE doc->>'product' = $1`

	stmt, err := r.exec.PrepareContext(ctx, query)
	if err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to prepare summary statement: %w", err)
	}
	defer stmt.Close()

	var summary model.RatingSummary
	if err := stmt.QueryRowContext(ctx, productID).Scan(&summary.Average, &summary.Count); err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to summarize reviews: %w", err)
	}
	return summary, nil
}
