package http

import (
	"github.com/gin-gonic/gin"

	"github.com/iyhunko/academy-backend/internal/config"
	"github.com/iyhunko/academy-backend/internal/http/controller"
	"github.com/iyhunko/academy-backend/internal/http/middleware"
	"github.com/iyhunko/academy-backend/internal/storage"
)

// Controllers groups the handlers mounted by InitRouter.
type Controllers struct {
	General    *controller.Controller
	Products   *controller.ProductController
	Reviews    *controller.ReviewController
	Courses    *controller.CourseController
	Enrollment *controller.EnrollmentController
	RoboGenius *controller.RoboGeniusController
}

func InitRouter(conf *config.Config, server *gin.Engine, ctrl Controllers) *gin.Engine {
	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery())
	server.Use(middleware.Logger())
	server.Use(middleware.Metrics())
	server.Use(middleware.CORS(conf.CORS.AllowedOrigins))

	auth := middleware.Auth(conf.Auth.JWTSecret)
	admin := middleware.RequireAdmin()

	if conf.Images.Backend == config.ImageBackendDisk {
		server.Static(storage.UploadsRoute, conf.Images.UploadsDir)
	}

	server.GET("/ping", ctrl.General.Ping)
	server.GET("/getAllCounter", ctrl.General.GetAllCounter)

	// Product endpoints
	server.GET("/getProducts", ctrl.Products.GetProducts)
	server.GET("/getProductById/:id", ctrl.Products.GetProductByID)
	server.POST("/addProduct", ctrl.Products.AddProduct)
	server.PUT("/updateProduct/:id", ctrl.Products.UpdateProduct)
	server.DELETE("/deleteProduct/:id", ctrl.Products.DeleteProduct)
	server.GET("/category/:category", ctrl.Products.GetProductsByCategory)

	// Review endpoints, nested under the product id
	server.POST("/:id/review", auth, ctrl.Reviews.AddReview)
	server.GET("/:id/reviews", ctrl.Reviews.GetReviews)
	server.PUT("/:id/reviews/:reviewId", auth, admin, ctrl.Reviews.UpdateReview)
	server.DELETE("/:id/reviews/:reviewId", auth, admin, ctrl.Reviews.DeleteReview)

	// Course endpoints
	server.POST("/addCourse", ctrl.Courses.AddCourse)
	server.GET("/getAllCourses", ctrl.Courses.GetAllCourses)
	server.GET("/getCourseById/:id", ctrl.Courses.GetCourseByID)
	server.PUT("/updateCourse/:id", ctrl.Courses.UpdateCourse)
	server.DELETE("/deleteCourse/:id", ctrl.Courses.DeleteCourse)

	courses := server.Group("/courses")
	{
		courses.GET("/category/:category", ctrl.Courses.GetCoursesByCategory)
		courses.POST("/:id/enroll", auth, ctrl.Enrollment.Enroll)
		courses.POST("/:id/unenroll", auth, ctrl.Enrollment.Unenroll)
		courses.GET("/enrolled", auth, ctrl.Enrollment.GetEnrolledCourses)
		courses.GET("/:id/students", auth, ctrl.Enrollment.GetEnrolledStudents)
	}

	// RoboGenius endpoints
	server.POST("/addRoboGenius", ctrl.RoboGenius.AddRoboGenius)
	server.GET("/getAllRoboGenius", ctrl.RoboGenius.GetAllRoboGenius)
	server.GET("/getRoboGeniusById/:id", ctrl.RoboGenius.GetRoboGeniusByID)
	server.PUT("/updateRoboGenius/:id", ctrl.RoboGenius.UpdateRoboGenius)
	server.DELETE("/deleteRoboGenius/:id", ctrl.RoboGenius.DeleteRoboGenius)
	server.GET("/roboGenius/category/:category", ctrl.RoboGenius.GetRoboGeniusByCategory)

	return server
}
