package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iyhunko/academy-backend/internal/http/middleware"
	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/service"
)

// ReviewService is the review logic used by ReviewController.
type ReviewService interface {
	AddReview(ctx context.Context, productID, userID string, in service.ReviewInput) (*model.Review, error)
	ListReviews(ctx context.Context, productID string) ([]*model.Review, error)
	UpdateReview(ctx context.Context, productID, reviewID string, in service.ReviewInput) (*model.Review, error)
	DeleteReview(ctx context.Context, productID, reviewID string) error
}

// ReviewController serves the reviews nested under a product.
type ReviewController struct {
	reviewService ReviewService
}

// NewReviewController creates a ReviewController backed by reviewService.
func NewReviewController(reviewService ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

// reviewRequest is the body of AddReview and UpdateReview.
type reviewRequest struct {
	Rating  *int    `form:"rating" json:"rating"`
	Comment *string `form:"comment" json:"comment"`
}

func reviewInput(c *gin.Context) (service.ReviewInput, error) {
	var req reviewRequest
	if err := bindRequest(c, &req); err != nil {
		return service.ReviewInput{}, err
	}
	in := service.ReviewInput{Rating: req.Rating, Comment: req.Comment}
	trimmed(&in.Comment)
	return in, nil
}

// AddReview handles POST /:id/review for the authenticated caller.
func (rc *ReviewController) AddReview(c *gin.Context) {
	in, err := reviewInput(c)
	if err != nil {
		respondError(c, err)
		return
	}

	review, err := rc.reviewService.AddReview(c.Request.Context(), c.Param("id"), middleware.UserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "review": review})
}

// GetReviews handles GET /:id/reviews.
func (rc *ReviewController) GetReviews(c *gin.Context) {
	reviews, err := rc.reviewService.ListReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	reviews = emptyIfNil(reviews)
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(reviews), "reviews": reviews})
}

// UpdateReview handles PUT /:id/reviews/:reviewId.
func (rc *ReviewController) UpdateReview(c *gin.Context) {
	in, err := reviewInput(c)
	if err != nil {
		respondError(c, err)
		return
	}

	review, err := rc.reviewService.UpdateReview(c.Request.Context(), c.Param("id"), c.Param("reviewId"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
}

// DeleteReview handles DELETE /:id/reviews/:reviewId.
func (rc *ReviewController) DeleteReview(c *gin.Context) {
	if err := rc.reviewService.DeleteReview(c.Request.Context(), c.Param("id"), c.Param("reviewId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Review deleted"})
}
