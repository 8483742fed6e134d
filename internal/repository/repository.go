package repository

import (
	"context"
	"errors"

	"github.com/iyhunko/academy-backend/internal/model"
)

// ErrNotFound is returned when no document matches the requested identity.
var ErrNotFound = errors.New("document not found")

// Resource represents a document that can be managed by a repository.
type Resource interface {
	InitMeta()
	GetID() string
	Touch()
}

// Keys maintained by dedicated operations. Update keeps their stored values, so
// writing back a document read earlier cannot undo a concurrent enrollment or
// rating change.
var (
	CourseManagedKeys  = []string{"students"}
	ProductManagedKeys = []string{"averageRating", "numOfReviews"}
)

// Repository defines generic document CRUD over one collection.
type Repository[T Resource] interface {
	Create(ctx context.Context, resource T) (T, error)
	List(ctx context.Context, query Query) ([]T, error)
	FindByID(ctx context.Context, id string) (T, error)
	Update(ctx context.Context, resource T) error
	DeleteByID(ctx context.Context, id string) error
}

// ProductRepository adds the review-owned rating fields.
type ProductRepository interface {
	Repository[*model.Product]
	// FindByIDForUpdate reads the product and keeps other writers of it waiting
	// until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error)
	// SetRating writes only the derived rating fields.
	SetRating(ctx context.Context, id string, summary model.RatingSummary) error
}

// CourseRepository adds the conditional student set updates used by enrollment.
type CourseRepository interface {
	Repository[*model.Course]
	// AddStudent appends userID unless it is already present. It reports whether the course changed.
	AddStudent(ctx context.Context, courseID, userID string) (bool, error)
	// RemoveStudent removes userID if present. It reports whether the course changed.
	RemoveStudent(ctx context.Context, courseID, userID string) (bool, error)
}

// ReviewRepository adds the per-product rating aggregate.
type ReviewRepository interface {
	Repository[*model.Review]
	Summary(ctx context.Context, productID string) (model.RatingSummary, error)
}

// UserRepository maintains the enrollment view of users.
type UserRepository interface {
	// AddEnrolledCourse adds courseID to the user's set, creating the user document if needed.
	AddEnrolledCourse(ctx context.Context, userID, courseID string) error
	RemoveEnrolledCourse(ctx context.Context, userID, courseID string) error
	FindByIDs(ctx context.Context, ids []string) ([]*model.User, error)
}

// EventRepository is the outbox.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	ListPending(ctx context.Context, limit int) ([]*model.Event, error)
	UpdateStatus(ctx context.Context, id string, status model.EventStatus) error
}

// Store groups the repositories of one backend so they can share a transaction.
type Store interface {
	Products() ProductRepository
	Courses() CourseRepository
	RoboGenius() Repository[*model.RoboGenius]
	Reviews() ReviewRepository
	Users() UserRepository
	Events() EventRepository
	// WithinTransaction runs fn with a Store whose repositories share one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// UniqueConstraintError represents a unique constraint violation.
type UniqueConstraintError struct {
	Detail string
}

func (u *UniqueConstraintError) Error() string {
	return "resource must be unique: " + u.Detail
}
