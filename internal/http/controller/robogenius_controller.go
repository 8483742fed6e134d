package controller

import (
	"cmp"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/service"
	"github.com/iyhunko/academy-backend/internal/storage"
)

// RoboGeniusService is the RoboGenius catalog used by RoboGeniusController.
type RoboGeniusService interface {
	CreateRoboGenius(ctx context.Context, in service.RoboGeniusInput, up *storage.Upload) (*model.RoboGenius, error)
	ListRoboGenius(ctx context.Context) ([]*model.RoboGenius, error)
	GetRoboGenius(ctx context.Context, id string) (*model.RoboGenius, error)
	ListByCategory(ctx context.Context, category string) ([]*model.RoboGenius, error)
	UpdateRoboGenius(ctx context.Context, id string, in service.RoboGeniusInput, up *storage.Upload) (*model.RoboGenius, error)
	DeleteRoboGenius(ctx context.Context, id string) error
}

// RoboGeniusController handles the RoboGenius catalog endpoints.
type RoboGeniusController struct {
	roboGeniusService RoboGeniusService
}

// NewRoboGeniusController creates a RoboGeniusController backed by roboGeniusService.
func NewRoboGeniusController(roboGeniusService RoboGeniusService) *RoboGeniusController {
	return &RoboGeniusController{roboGeniusService: roboGeniusService}
}

// whatYouLearnRequest is the nested form of the whatYouLearnDescription and skills fields.
type whatYouLearnRequest struct {
	Description *string `json:"description"`
	Skills      *string `json:"skills"`
}

// roboGeniusRequest is the body of AddRoboGenius and UpdateRoboGenius.
type roboGeniusRequest struct {
	Title                   *string              `form:"title" json:"title"`
	Description             *string              `form:"description" json:"description"`
	MonthlyPrice            *float64             `form:"monthlyPrice" json:"monthlyPrice"`
	AnnualPrice             *float64             `form:"annualPrice" json:"annualPrice"`
	Category                *string              `form:"category" json:"category"`
	WhatYouLearnDescription *string              `form:"whatYouLearnDescription" json:"whatYouLearnDescription"`
	Skills                  *string              `form:"skills" json:"skills"`
	WhatYouLearn            *whatYouLearnRequest `form:"-" json:"whatYouLearn"`
	TargetAudience          *string              `form:"targetAudience" json:"targetAudience"`
	Features                *string              `form:"features" json:"features"`
	Requirements            *string              `form:"requirements" json:"requirements"`
	Rating                  *float64             `form:"rating" json:"rating"`
	AverageRating           *float64             `form:"averageRating" json:"averageRating"`
	VideoURL                *string              `form:"videoUrl" json:"videoUrl"`
}

// input prefers the flat whatYouLearn fields over the nested object and accepts
// averageRating as an alias of rating.
func (r *roboGeniusRequest) input() (service.RoboGeniusInput, error) {
	in := service.RoboGeniusInput{
		Title:                   r.Title,
		Description:             r.Description,
		MonthlyPrice:            r.MonthlyPrice,
		AnnualPrice:             r.AnnualPrice,
		Category:                r.Category,
		WhatYouLearnDescription: r.WhatYouLearnDescription,
		Skills:                  r.Skills,
		TargetAudience:          r.TargetAudience,
		Features:                r.Features,
		Requirements:            r.Requirements,
		Rating:                  cmp.Or(r.Rating, r.AverageRating),
		VideoURL:                r.VideoURL,
	}
	trimmed(&in.Title, &in.Description, &in.Category, &in.WhatYouLearnDescription, &in.Skills,
		&in.TargetAudience, &in.Features, &in.Requirements, &in.VideoURL)
	if r.WhatYouLearn != nil {
		nested := *r.WhatYouLearn
		trimmed(&nested.Description, &nested.Skills)
		in.WhatYouLearnDescription = cmp.Or(in.WhatYouLearnDescription, nested.Description)
		in.Skills = cmp.Or(in.Skills, nested.Skills)
	}
	return in, finite(map[string]*float64{
		"monthlyPrice": in.MonthlyPrice,
		"annualPrice":  in.AnnualPrice,
		"rating":       in.Rating,
	})
}

func bindRoboGenius(c *gin.Context) (service.RoboGeniusInput, *storage.Upload, error) {
	var req roboGeniusRequest
	if err := bindRequest(c, &req); err != nil {
		return service.RoboGeniusInput{}, nil, err
	}
	in, err := req.input()
	if err != nil {
		return service.RoboGeniusInput{}, nil, err
	}
	up, err := formImage(c)
	return in, up, err
}

// AddRoboGenius handles POST /addRoboGenius.
func (rc *RoboGeniusController) AddRoboGenius(c *gin.Context) {
	in, up, err := bindRoboGenius(c)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeImage(up)

	rg, err := rc.roboGeniusService.CreateRoboGenius(c.Request.Context(), in, up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message":    "RoboGenius added successfully.",
		"roboGenius": rg,
	})
}

// GetAllRoboGenius handles GET /getAllRoboGenius. The response is a bare array.
func (rc *RoboGeniusController) GetAllRoboGenius(c *gin.Context) {
	items, err := rc.roboGeniusService.ListRoboGenius(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(items))
}

// GetRoboGeniusByID handles GET /getRoboGeniusById/:id.
func (rc *RoboGeniusController) GetRoboGeniusByID(c *gin.Context) {
	rg, err := rc.roboGeniusService.GetRoboGenius(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rg})
}

// UpdateRoboGenius handles PUT /updateRoboGenius/:id.
func (rc *RoboGeniusController) UpdateRoboGenius(c *gin.Context) {
	in, up, err := bindRoboGenius(c)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeImage(up)

	rg, err := rc.roboGeniusService.UpdateRoboGenius(c.Request.Context(), c.Param("id"), in, up)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "RoboGenius updated successfully.",
		"roboGenius": rg,
	})
}

// DeleteRoboGenius handles DELETE /deleteRoboGenius/:id.
func (rc *RoboGeniusController) DeleteRoboGenius(c *gin.Context) {
	if err := rc.roboGeniusService.DeleteRoboGenius(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "RoboGenius deleted successfully"})
}

// GetRoboGeniusByCategory handles GET /roboGenius/category/:category.
func (rc *RoboGeniusController) GetRoboGeniusByCategory(c *gin.Context) {
	items, err := rc.roboGeniusService.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": emptyIfNil(items)})
}
