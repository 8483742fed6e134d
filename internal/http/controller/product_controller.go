package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/service"
	"github.com/iyhunko/academy-backend/internal/storage"
)

// ProductService is the product catalog used by ProductController.
type ProductService interface {
	CreateProduct(ctx context.Context, in service.ProductInput, up *storage.Upload) (*model.Product, error)
	ListProducts(ctx context.Context) ([]*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListByCategory(ctx context.Context, category string) ([]*model.Product, error)
	UpdateProduct(ctx context.Context, id string, in service.ProductInput, up *storage.Upload) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	productService ProductService
}

// NewProductController creates a new ProductController with the given product service.
func NewProductController(productService ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// productRequest is the body of AddProduct and UpdateProduct.
type productRequest struct {
	Name        *string  `form:"name" json:"name"`
	Description *string  `form:"description" json:"description"`
	Price       *float64 `form:"price" json:"price"`
	Category    *string  `form:"category" json:"category"`
	Stock       *int     `form:"stock" json:"stock"`
	Brand       *string  `form:"brand" json:"brand"`
}

func bindProduct(c *gin.Context) (service.ProductInput, *storage.Upload, error) {
	var req productRequest
	if err := bindRequest(c, &req); err != nil {
		return service.ProductInput{}, nil, err
	}
	in := service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Brand:       req.Brand,
	}
	trimmed(&in.Name, &in.Description, &in.Category, &in.Brand)
	if err := finite(map[string]*float64{"price": in.Price}); err != nil {
		return service.ProductInput{}, nil, err
	}
	up, err := formImage(c)
	return in, up, err
}

// AddProduct handles POST /addProduct.
func (pc *ProductController) AddProduct(c *gin.Context) {
	in, up, err := bindProduct(c)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeImage(up)

	product, err := pc.productService.CreateProduct(c.Request.Context(), in, up)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "product": product})
}

// GetProducts handles GET /getProducts. The response is a bare array.
func (pc *ProductController) GetProducts(c *gin.Context) {
	products, err := pc.productService.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emptyIfNil(products))
}

// GetProductByID handles GET /getProductById/:id.
func (pc *ProductController) GetProductByID(c *gin.Context) {
	product, err := pc.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

// UpdateProduct handles PUT /updateProduct/:id.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	in, up, err := bindProduct(c)
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeImage(up)

	product, err := pc.productService.UpdateProduct(c.Request.Context(), c.Param("id"), in, up)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product updated successfully.",
		"product": product,
	})
}

// DeleteProduct handles DELETE /deleteProduct/:id.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if err := pc.productService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted"})
}

// GetProductsByCategory handles GET /category/:category.
func (pc *ProductController) GetProductsByCategory(c *gin.Context) {
	products, err := pc.productService.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	products = emptyIfNil(products)
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(products), "products": products})
}
