package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/repository"
)

const (
	productsTable   = "products"
	coursesTable    = "courses"
	roboGeniusTable = "robogenius"
	reviewsTable    = "reviews"
	usersTable      = "users"
)

// Store implements repository.Store on PostgreSQL, keeping every document as JSONB.
type Store struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewStore creates a new Store instance.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// statementPreparer is satisfied by both *sql.DB and *sql.Tx. Repositories
// built inside WithinTransaction prepare their statements on the transaction.
type statementPreparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (s *Store) getExecutor() statementPreparer {
	if s.txn != nil {
		return s.txn
	}
	return s.db
}

func (s *Store) Products() repository.ProductRepository {
	return &ProductRepository{
		documentRepository: newDocumentRepository(s.getExecutor(), productsTable, func() *model.Product { return &model.Product{} },
			repository.ProductManagedKeys...),
	}
}

func (s *Store) Courses() repository.CourseRepository {
	return &CourseRepository{
		documentRepository: newDocumentRepository(s.getExecutor(), coursesTable, func() *model.Course { return &model.Course{} },
			repository.CourseManagedKeys...),
	}
}

func (s *Store) RoboGenius() repository.Repository[*model.RoboGenius] {
	return newDocumentRepository(s.getExecutor(), roboGeniusTable, func() *model.RoboGenius { return &model.RoboGenius{} })
}

func (s *Store) Reviews() repository.ReviewRepository {
	return &ReviewRepository{
		documentRepository: newDocumentRepository(s.getExecutor(), reviewsTable, func() *model.Review { return &model.Review{} }),
	}
}

func (s *Store) Users() repository.UserRepository {
	return &UserRepository{exec: s.getExecutor()}
}

func (s *Store) Events() repository.EventRepository {
	return &EventRepository{exec: s.getExecutor()}
}

// WithinTransaction executes fn within a database transaction. Nested calls join the outer transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.txn != nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &Store{
		db:  s.db,
		txn: tx,
	}

	if err := fn(ctx, txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
