package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iyhunko/academy-backend/internal/http/middleware"
	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/service"
	"github.com/iyhunko/academy-backend/internal/storage"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) CreateProduct(ctx context.Context, in service.ProductInput, up *storage.Upload) (*model.Product, error) {
	args := m.Called(ctx, in, up)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *MockProductService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]*model.Product)
	return p, args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *MockProductService) ListByCategory(ctx context.Context, category string) ([]*model.Product, error) {
	args := m.Called(ctx, category)
	p, _ := args.Get(0).([]*model.Product)
	return p, args.Error(1)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, id string, in service.ProductInput, up *storage.Upload) (*model.Product, error) {
	args := m.Called(ctx, id, in, up)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) AddReview(ctx context.Context, productID, userID string, in service.ReviewInput) (*model.Review, error) {
	args := m.Called(ctx, productID, userID, in)
	r, _ := args.Get(0).(*model.Review)
	return r, args.Error(1)
}

func (m *MockReviewService) ListReviews(ctx context.Context, productID string) ([]*model.Review, error) {
	args := m.Called(ctx, productID)
	r, _ := args.Get(0).([]*model.Review)
	return r, args.Error(1)
}

func (m *MockReviewService) UpdateReview(ctx context.Context, productID, reviewID string, in service.ReviewInput) (*model.Review, error) {
	args := m.Called(ctx, productID, reviewID, in)
	r, _ := args.Get(0).(*model.Review)
	return r, args.Error(1)
}

func (m *MockReviewService) DeleteReview(ctx context.Context, productID, reviewID string) error {
	return m.Called(ctx, productID, reviewID).Error(0)
}

type MockCourseService struct {
	mock.Mock
}

func (m *MockCourseService) CreateCourse(ctx context.Context, in service.CourseInput, up *storage.Upload) (*model.Course, error) {
	args := m.Called(ctx, in, up)
	c, _ := args.Get(0).(*model.Course)
	return c, args.Error(1)
}

func (m *MockCourseService) ListCourses(ctx context.Context) ([]*model.Course, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]*model.Course)
	return c, args.Error(1)
}

func (m *MockCourseService) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*model.Course)
	return c, args.Error(1)
}

func (m *MockCourseService) ListByCategory(ctx context.Context, category string) ([]*model.Course, error) {
	args := m.Called(ctx, category)
	c, _ := args.Get(0).([]*model.Course)
	return c, args.Error(1)
}

func (m *MockCourseService) UpdateCourse(ctx context.Context, id string, in service.CourseInput, up *storage.Upload) (*model.Course, error) {
	args := m.Called(ctx, id, in, up)
	c, _ := args.Get(0).(*model.Course)
	return c, args.Error(1)
}

func (m *MockCourseService) DeleteCourse(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockEnrollmentService struct {
	mock.Mock
}

func (m *MockEnrollmentService) Enroll(ctx context.Context, courseID, userID string) (*model.Course, error) {
	args := m.Called(ctx, courseID, userID)
	c, _ := args.Get(0).(*model.Course)
	return c, args.Error(1)
}

func (m *MockEnrollmentService) Unenroll(ctx context.Context, courseID, userID string) error {
	return m.Called(ctx, courseID, userID).Error(0)
}

func (m *MockEnrollmentService) ListEnrolledCourses(ctx context.Context, userID string) ([]*model.Course, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).([]*model.Course)
	return c, args.Error(1)
}

func (m *MockEnrollmentService) ListEnrolledStudents(ctx context.Context, courseID, requesterID string) ([]service.Student, error) {
	args := m.Called(ctx, courseID, requesterID)
	s, _ := args.Get(0).([]service.Student)
	return s, args.Error(1)
}

type MockRoboGeniusService struct {
	mock.Mock
}

func (m *MockRoboGeniusService) CreateRoboGenius(ctx context.Context, in service.RoboGeniusInput, up *storage.Upload) (*model.RoboGenius, error) {
	args := m.Called(ctx, in, up)
	r, _ := args.Get(0).(*model.RoboGenius)
	return r, args.Error(1)
}

func (m *MockRoboGeniusService) ListRoboGenius(ctx context.Context) ([]*model.RoboGenius, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]*model.RoboGenius)
	return r, args.Error(1)
}

func (m *MockRoboGeniusService) GetRoboGenius(ctx context.Context, id string) (*model.RoboGenius, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*model.RoboGenius)
	return r, args.Error(1)
}

func (m *MockRoboGeniusService) ListByCategory(ctx context.Context, category string) ([]*model.RoboGenius, error) {
	args := m.Called(ctx, category)
	r, _ := args.Get(0).([]*model.RoboGenius)
	return r, args.Error(1)
}

func (m *MockRoboGeniusService) UpdateRoboGenius(ctx context.Context, id string, in service.RoboGeniusInput, up *storage.Upload) (*model.RoboGenius, error) {
	args := m.Called(ctx, id, in, up)
	r, _ := args.Get(0).(*model.RoboGenius)
	return r, args.Error(1)
}

func (m *MockRoboGeniusService) DeleteRoboGenius(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// asUser stands in for the auth middleware.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type formFile struct {
	name        string
	contentType string
	content     []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func ptr[T any](v T) *T {
	return &v
}
