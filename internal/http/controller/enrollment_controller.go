package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iyhunko/academy-backend/internal/http/middleware"
	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/service"
)

// EnrollmentService is the enrollment logic used by EnrollmentController.
type EnrollmentService interface {
	Enroll(ctx context.Context, courseID, userID string) (*model.Course, error)
	Unenroll(ctx context.Context, courseID, userID string) error
	ListEnrolledCourses(ctx context.Context, userID string) ([]*model.Course, error)
	ListEnrolledStudents(ctx context.Context, courseID, requesterID string) ([]service.Student, error)
}

// EnrollmentController serves the enrollment endpoints. Every handler acts on behalf of the
// authenticated caller.
type EnrollmentController struct {
	enrollmentService EnrollmentService
}

// NewEnrollmentController creates an EnrollmentController backed by enrollmentService.
func NewEnrollmentController(enrollmentService EnrollmentService) *EnrollmentController {
	return &EnrollmentController{enrollmentService: enrollmentService}
}

// Enroll handles POST /courses/:id/enroll.
func (ec *EnrollmentController) Enroll(c *gin.Context) {
	course, err := ec.enrollmentService.Enroll(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully enrolled in the course",
		"data":    course,
	})
}

// Unenroll handles POST /courses/:id/unenroll.
func (ec *EnrollmentController) Unenroll(c *gin.Context) {
	if err := ec.enrollmentService.Unenroll(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "You have been unenrolled from the course",
	})
}

// GetEnrolledCourses handles GET /courses/enrolled.
func (ec *EnrollmentController) GetEnrolledCourses(c *gin.Context) {
	courses, err := ec.enrollmentService.ListEnrolledCourses(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": courses})
}

// GetEnrolledStudents handles GET /courses/:id/students. Only the instructor may call it.
func (ec *EnrollmentController) GetEnrolledStudents(c *gin.Context) {
	students, err := ec.enrollmentService.ListEnrolledStudents(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "students": emptyIfNil(students)})
}
