package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/repository"
)

const (
	productsCollection   = "products"
	coursesCollection    = "courses"
	roboGeniusCollection = "robogenius"
	reviewsCollection    = "reviews"
	usersCollection      = "users"
	eventsCollection     = "events"
)

// Connect opens a client and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	slog.Info("Mongo connection done")
	return client, nil
}

// Store implements repository.Store on MongoDB.
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// NewStore creates a Store over db. With transactions disabled WithinTransaction runs fn directly.
func NewStore(client *mongo.Client, db *mongo.Database, transactions bool) *Store {
	return &Store{client: client, db: db, transactions: transactions}
}

// EnsureIndexes creates the secondary indexes used by category, enrollment and review lookups.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		productsCollection:   {{Keys: bson.D{{Key: "category", Value: 1}}}},
		coursesCollection:    {{Keys: bson.D{{Key: "category", Value: 1}}}, {Keys: bson.D{{Key: "students", Value: 1}}}},
		roboGeniusCollection: {{Keys: bson.D{{Key: "category", Value: 1}}}},
		reviewsCollection:    {{Keys: bson.D{{Key: "product", Value: 1}}}},
		eventsCollection:     {{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}}},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) Products() repository.ProductRepository {
	return &ProductRepository{
		collectionRepository: newCollectionRepository(s.db.Collection(productsCollection), func() *model.Product { return &model.Product{} },
			repository.ProductManagedKeys...),
	}
}

func (s *Store) Courses() repository.CourseRepository {
	return &CourseRepository{
		collectionRepository: newCollectionRepository(s.db.Collection(coursesCollection), func() *model.Course { return &model.Course{} },
			repository.CourseManagedKeys...),
	}
}

func (s *Store) RoboGenius() repository.Repository[*model.RoboGenius] {
	return newCollectionRepository(s.db.Collection(roboGeniusCollection), func() *model.RoboGenius { return &model.RoboGenius{} })
}

func (s *Store) Reviews() repository.ReviewRepository {
	return &ReviewRepository{
		collectionRepository: newCollectionRepository(s.db.Collection(reviewsCollection), func() *model.Review { return &model.Review{} }),
	}
}

func (s *Store) Users() repository.UserRepository {
	return &UserRepository{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Events() repository.EventRepository {
	return &EventRepository{coll: s.db.Collection(eventsCollection)}
}

// WithinTransaction runs fn inside a session transaction. The session travels in the context
// handed to fn, so every repository call made with that context joins the transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if !s.transactions || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}
