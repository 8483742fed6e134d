package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iyhunko/academy-backend/internal/repository"
)

// collectionRepository stores resources of one type in a single collection.
// Keys listed in managed are never overwritten by Update.
type collectionRepository[T repository.Resource] struct {
	coll    *mongo.Collection
	newDoc  func() T
	managed []string
}

func newCollectionRepository[T repository.Resource](coll *mongo.Collection, newDoc func() T, managed ...string) *collectionRepository[T] {
	return &collectionRepository[T]{coll: coll, newDoc: newDoc, managed: managed}
}

func (r *collectionRepository[T]) Create(ctx context.Context, resource T) (T, error) {
	var zero T
	resource.InitMeta()

	if _, err := r.coll.InsertOne(ctx, resource); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return zero, &repository.UniqueConstraintError{Detail: fmt.Sprintf("%s id %s", r.coll.Name(), resource.GetID())}
		}
		return zero, fmt.Errorf("failed to insert into %s: %w", r.coll.Name(), err)
	}
	return resource, nil
}

// List returns documents matching every query value, oldest first.
// Array fields match when they contain the value.
func (r *collectionRepository[T]) List(ctx context.Context, query repository.Query) ([]T, error) {
	filter := bson.M{}
	for field, value := range query.Values {
		filter[string(field)] = value
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.coll.Name(), err)
	}

	result := make([]T, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s documents: %w", r.coll.Name(), err)
	}
	return result, nil
}

func (r *collectionRepository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	doc := r.newDoc()

	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, repository.ErrNotFound
		}
		return zero, fmt.Errorf("failed to query %s: %w", r.coll.Name(), err)
	}
	return doc, nil
}

// Update replaces the stored document. With managed keys it becomes a $set of
// every other key, so the managed ones keep their stored values.
func (r *collectionRepository[T]) Update(ctx context.Context, resource T) error {
	resource.Touch()

	var (
		result *mongo.UpdateResult
		err    error
	)
	if len(r.managed) == 0 {
		result, err = r.coll.ReplaceOne(ctx, bson.M{"_id": resource.GetID()}, resource)
	} else {
		var fields bson.M
		fields, err = r.unmanagedFields(resource)
		if err != nil {
			return err
		}
		result, err = r.coll.UpdateOne(ctx, bson.M{"_id": resource.GetID()}, bson.M{"$set": fields})
	}
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", r.coll.Name(), err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *collectionRepository[T]) unmanagedFields(resource T) (bson.M, error) {
	raw, err := bson.Marshal(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s document: %w", r.coll.Name(), err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to marshal %s document: %w", r.coll.Name(), err)
	}
	delete(fields, "_id")
	for _, key := range r.managed {
		delete(fields, key)
	}
	return fields, nil
}

// patch sets fields on the stored document without touching any other key.
func (r *collectionRepository[T]) patch(ctx context.Context, id string, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", r.coll.Name(), err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *collectionRepository[T]) DeleteByID(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", r.coll.Name(), err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
