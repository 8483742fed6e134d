package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/service"
	"github.com/iyhunko/academy-backend/internal/storage"
)

// CourseService is the course catalog used by CourseController.
type CourseService interface {
	CreateCourse(ctx context.Context, in service.CourseInput, up *storage.Upload) (*model.Course, error)
	ListCourses(ctx context.Context) ([]*model.Course, error)
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	ListByCategory(ctx context.Context, category string) ([]*model.Course, error)
	UpdateCourse(ctx context.Context, id string, in service.CourseInput, up *storage.Upload) (*model.Course, error)
	DeleteCourse(ctx context.Context, id string) error
}

// CourseController handles the course catalog endpoints.
type CourseController struct {
	courseService CourseService
}

// NewCourseController creates a CourseController backed by courseService.
func NewCourseController(courseService CourseService) *CourseController {
	return &CourseController{courseService: courseService}
}

// courseRequest is the body of AddCourse and UpdateCourse.
type courseRequest struct {
	Title       *string   `form:"title" json:"title"`
	Description *string   `form:"description" json:"description"`
	Instructor  *string   `form:"instructor" json:"instructor"`
	Duration    *float64  `form:"duration" json:"duration"`
	Price       *float64  `form:"price" json:"price"`
	Category    *string   `form:"category" json:"category"`
	Level       *string   `form:"level" json:"level"`
	Sections    *sections `form:"sections" json:"sections"`
}

// input passes sections through as raw JSON for the service to decode.
func (r *courseRequest) input() (service.CourseInput, error) {
	in := service.CourseInput{
		Title:       r.Title,
		Description: r.Description,
		Instructor:  r.Instructor,
		Duration:    r.Duration,
		Price:       r.Price,
		Category:    r.Category,
		Level:       r.Level,
		Sections:    (*string)(r.Sections),
	}
	trimmed(&in.Title, &in.Description, &in.Instructor, &in.Category, &in.Level, &in.Sections)
	return in, finite(map[string]*float64{"duration": in.Duration, "price": in.Price})
}

// bindCourse reads the course fields and the optional image.
func bindCourse(c *gin.Context) (service.CourseInput, *storage.Upload, error) {
	var req courseRequest
	if err := bindRequest(c, &req); err != nil {
		return service.CourseInput{}, nil, err
	}
	in, err := req.input()
	if err != nil {
		return service.CourseInput{}, nil, err
	}
	up, err := formImage(c)
	return in, up, err
}

// AddCourse handles POST /addCourse.
func (cc *CourseController) AddCourse(c *gin.Context) {
	in, up, err := bindCourse(c)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeImage(up)

	course, err := cc.courseService.CreateCourse(c.Request.Context(), in, up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Course added successfully.",
		"course":  course,
	})
}

// GetAllCourses handles GET /getAllCourses. The response is a bare array.
func (cc *CourseController) GetAllCourses(c *gin.Context) {
	courses, err := cc.courseService.ListCourses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(courses))
}

// GetCourseByID handles GET /getCourseById/:id.
func (cc *CourseController) GetCourseByID(c *gin.Context) {
	course, err := cc.courseService.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": course})
}

// UpdateCourse handles PUT /updateCourse/:id.
func (cc *CourseController) UpdateCourse(c *gin.Context) {
	in, up, err := bindCourse(c)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeImage(up)

	course, err := cc.courseService.UpdateCourse(c.Request.Context(), c.Param("id"), in, up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Course updated successfully.",
		"course":  course,
	})
}

// DeleteCourse handles DELETE /deleteCourse/:id.
func (cc *CourseController) DeleteCourse(c *gin.Context) {
	if err := cc.courseService.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Course deleted successfully"})
}

// GetCoursesByCategory handles GET /courses/category/:category.
func (cc *CourseController) GetCoursesByCategory(c *gin.Context) {
	courses, err := cc.courseService.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": emptyIfNil(courses)})
}
