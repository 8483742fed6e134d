package service

import (
	"context"
	"encoding/json"

	"github.com/iyhunko/academy-backend/internal/apperror"
	"github.com/iyhunko/academy-backend/internal/cache"
	"github.com/iyhunko/academy-backend/internal/metrics"
	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/repository"
	"github.com/iyhunko/academy-backend/internal/sqs"
	"github.com/iyhunko/academy-backend/internal/storage"
	"github.com/iyhunko/academy-backend/internal/validator"
)

const courseResource = "Course"

// CourseInput carries the client supplied course fields. Nil means absent.
// Sections is the raw JSON array of sections.
type CourseInput struct {
	Title       *string
	Description *string
	Instructor  *string
	Duration    *float64
	Price       *float64
	Category    *string
	Level       *string
	Sections    *string
}

func (in CourseInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.Instructor == nil && in.Duration == nil &&
		in.Price == nil && in.Category == nil && in.Level == nil && in.Sections == nil
}

func (in CourseInput) apply(c *model.Course) error {
	setIf(&c.Title, in.Title)
	setIf(&c.Description, in.Description)
	setIf(&c.Instructor, in.Instructor)
	setIf(&c.Duration, in.Duration)
	setIf(&c.Price, in.Price)
	setIf(&c.Category, in.Category)
	setIf(&c.Level, in.Level)
	if in.Sections != nil {
		sections, err := ParseSections(*in.Sections)
		if err != nil {
			return err
		}
		c.Sections = sections
	}
	return nil
}

// ParseSections decodes a JSON array of sections.
func ParseSections(raw string) ([]model.Section, error) {
	var sections []model.Section
	if err := json.Unmarshal([]byte(raw), &sections); err != nil {
		return nil, apperror.Validation("Invalid JSON format for sections.")
	}
	return sections, nil
}

// CourseService manages the course catalog and its images.
type CourseService struct {
	store  repository.Store
	images ImageStore
	cache  ListCache
}

// NewCourseService creates a CourseService. A nil listCache disables list caching.
func NewCourseService(store repository.Store, images ImageStore, listCache ListCache) *CourseService {
	return &CourseService{
		store:  store,
		images: images,
		cache:  cacheOrNoop(listCache),
	}
}

func courseMessage(c *model.Course) sqs.EventMessage {
	return sqs.EventMessage{ResourceID: c.ID, Name: c.Title, Price: c.Price}
}

// CreateCourse validates the course, stores its image when given and records course.created.
func (cs *CourseService) CreateCourse(ctx context.Context, in CourseInput, up *storage.Upload) (*model.Course, error) {
	course := &model.Course{Students: []string{}}
	if err := in.apply(course); err != nil {
		return nil, err
	}
	if err := validator.Validate(course); err != nil {
		return nil, err
	}

	err := persistWithImage(ctx, cs.images, up, nil, func(img *model.Image) error {
		course.Image = img
		return cs.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			created, err := tx.Courses().Create(ctx, course)
			if err != nil {
				return err
			}
			course = created
			return recordEvent(ctx, tx, model.EventCourseCreated, courseMessage(created))
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.CoursesCreated.Inc()
	cs.cache.Invalidate(ctx, cache.CoursesKey)
	return course, nil
}

// ListCourses returns every course, oldest first, through the list cache.
func (cs *CourseService) ListCourses(ctx context.Context) ([]*model.Course, error) {
	var courses []*model.Course
	if cs.cache.Load(ctx, cache.CoursesKey, &courses) {
		return courses, nil
	}

	courses, err := cs.store.Courses().List(ctx, *repository.NewQuery())
	if err != nil {
		return nil, err
	}
	cs.cache.Store(ctx, cache.CoursesKey, courses)
	return courses, nil
}

func (cs *CourseService) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	course, err := cs.store.Courses().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, courseResource, id)
	}
	return course, nil
}

// ListByCategory returns every course of category. No match is an empty list.
func (cs *CourseService) ListByCategory(ctx context.Context, category string) ([]*model.Course, error) {
	return cs.store.Courses().List(ctx, *repository.NewQuery().With(repository.CategoryField, category))
}

// UpdateCourse applies the supplied fields and optionally replaces the image.
// The student set is owned by enrollment and is never overwritten here.
func (cs *CourseService) UpdateCourse(ctx context.Context, id string, in CourseInput, up *storage.Upload) (*model.Course, error) {
	course, err := cs.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.empty() && up == nil {
		return nil, errNoFields()
	}

	if err := in.apply(course); err != nil {
		return nil, err
	}
	if err := validator.Validate(course); err != nil {
		return nil, err
	}

	err = persistWithImage(ctx, cs.images, up, course.Image, func(img *model.Image) error {
		if img != nil {
			course.Image = img
		}
		return cs.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			// Update leaves the enrollment-owned student set as stored
			if err := tx.Courses().Update(ctx, course); err != nil {
				return lookupErr(err, courseResource, id)
			}
			stored, err := tx.Courses().FindByID(ctx, id)
			if err != nil {
				return lookupErr(err, courseResource, id)
			}
			course = stored
			if course.Students == nil {
				course.Students = []string{}
			}
			return recordEvent(ctx, tx, model.EventCourseUpdated, courseMessage(course))
		})
	})
	if err != nil {
		return nil, err
	}

	cs.cache.Invalidate(ctx, cache.CoursesKey)
	return course, nil
}

// DeleteCourse removes the course and records course.deleted. The stored image is kept.
func (cs *CourseService) DeleteCourse(ctx context.Context, id string) error {
	course, err := cs.GetCourse(ctx, id)
	if err != nil {
		return err
	}

	err = cs.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Courses().DeleteByID(ctx, id); err != nil {
			return lookupErr(err, courseResource, id)
		}
		return recordEvent(ctx, tx, model.EventCourseDeleted, courseMessage(course))
	})
	if err != nil {
		return err
	}

	metrics.CoursesDeleted.Inc()
	cs.cache.Invalidate(ctx, cache.CoursesKey)
	return nil
}
