package service

import (
	"context"

	"github.com/iyhunko/academy-backend/internal/apperror"
	"github.com/iyhunko/academy-backend/internal/cache"
	"github.com/iyhunko/academy-backend/internal/metrics"
	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/repository"
	"github.com/iyhunko/academy-backend/internal/sqs"
)

// Student is a course member as shown to the instructor. Unknown users carry only their id.
type Student struct {
	ID       string `json:"_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// EnrollmentService links users and courses. A user appears at most once in a course's
// students and the course appears in the user's enrolledCourses exactly when it does.
type EnrollmentService struct {
	store repository.Store
	cache ListCache
}

// NewEnrollmentService creates an EnrollmentService. A nil listCache disables list caching.
func NewEnrollmentService(store repository.Store, listCache ListCache) *EnrollmentService {
	return &EnrollmentService{
		store: store,
		cache: cacheOrNoop(listCache),
	}
}

// Enroll adds userID to the course. The push is conditional so two concurrent
// enrollments of the same user cannot both succeed.
func (es *EnrollmentService) Enroll(ctx context.Context, courseID, userID string) (*model.Course, error) {
	course, err := es.store.Courses().FindByID(ctx, courseID)
	if err != nil {
		return nil, lookupErr(err, courseResource, courseID)
	}
	if course.HasStudent(userID) {
		return nil, apperror.AlreadyEnrolled()
	}

	err = es.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		added, err := tx.Courses().AddStudent(ctx, courseID, userID)
		if err != nil {
			return err
		}
		if !added {
			return apperror.AlreadyEnrolled()
		}
		if err := tx.Users().AddEnrolledCourse(ctx, userID, courseID); err != nil {
			return err
		}
		return recordEvent(ctx, tx, model.EventCourseEnrolled, sqs.EventMessage{ResourceID: courseID, Name: course.Title, UserID: userID})
	})
	if err != nil {
		return nil, err
	}

	course.Students = append(course.Students, userID)
	metrics.Enrollments.WithLabelValues("enroll").Inc()
	es.cache.Invalidate(ctx, cache.CoursesKey)
	return course, nil
}

// Unenroll removes userID from the course and the course from the user.
func (es *EnrollmentService) Unenroll(ctx context.Context, courseID, userID string) error {
	course, err := es.store.Courses().FindByID(ctx, courseID)
	if err != nil {
		return lookupErr(err, courseResource, courseID)
	}
	if !course.HasStudent(userID) {
		return apperror.NotEnrolled()
	}

	err = es.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		removed, err := tx.Courses().RemoveStudent(ctx, courseID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return apperror.NotEnrolled()
		}
		if err := tx.Users().RemoveEnrolledCourse(ctx, userID, courseID); err != nil {
			return err
		}
		return recordEvent(ctx, tx, model.EventCourseUnenrolled, sqs.EventMessage{ResourceID: courseID, Name: course.Title, UserID: userID})
	})
	if err != nil {
		return err
	}

	metrics.Enrollments.WithLabelValues("unenroll").Inc()
	es.cache.Invalidate(ctx, cache.CoursesKey)
	return nil
}

// ListEnrolledCourses returns the courses userID is a student of.
func (es *EnrollmentService) ListEnrolledCourses(ctx context.Context, userID string) ([]*model.Course, error) {
	courses, err := es.store.Courses().List(ctx, *repository.NewQuery().With(repository.StudentsField, userID))
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, apperror.NotFoundMessage("You are not enrolled in any courses.")
	}
	return courses, nil
}

// ListEnrolledStudents returns the students of a course. Only its instructor may list them.
func (es *EnrollmentService) ListEnrolledStudents(ctx context.Context, courseID, requesterID string) ([]Student, error) {
	course, err := es.store.Courses().FindByID(ctx, courseID)
	if err != nil {
		return nil, lookupErr(err, courseResource, courseID)
	}
	if course.Instructor != requesterID {
		return nil, apperror.Forbidden("Access denied. Only the course instructor can view enrolled students.")
	}

	users, err := es.store.Users().FindByIDs(ctx, course.Students)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	students := make([]Student, 0, len(course.Students))
	for _, id := range course.Students {
		s := Student{ID: id}
		if u, ok := byID[id]; ok {
			s.Username = u.Username
			s.Email = u.Email
		}
		students = append(students, s)
	}
	return students, nil
}
