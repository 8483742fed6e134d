package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/repository"
)

// ProductRepository stores products. Their rating fields are written only by SetRating.
type ProductRepository struct {
	*collectionRepository[*model.Product]
}

// FindByIDForUpdate reads the product through a write to it. Inside a session
// transaction that write makes concurrent transactions touching the product
// conflict, and the driver retries the loser from the start.
func (r *ProductRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error) {
	product := &model.Product{}
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	return product, nil
}

// SetRating sets only the rating fields of the product.
func (r *ProductRepository) SetRating(ctx context.Context, id string, summary model.RatingSummary) error {
	return r.patch(ctx, id, bson.M{
		"averageRating": summary.Average,
		"numOfReviews":  summary.Count,
	})
}
