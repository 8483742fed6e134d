package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iyhunko/academy-backend/internal/model"
)

// ReviewRepository stores reviews and aggregates them per product.
type ReviewRepository struct {
	*collectionRepository[*model.Review]
}

// Summary returns the average rating and review count of a product.
func (r *ReviewRepository) Summary(ctx context.Context, productID string) (model.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "product", Value: productID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to summarize reviews: %w", err)
	}

	var summaries []model.RatingSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to decode review summary: %w", err)
	}
	if len(summaries) == 0 {
		return model.RatingSummary{}, nil
	}
	return summaries[0], nil
}
