package service

import (
	"context"
	"log/slog"

	"github.com/iyhunko/academy-backend/internal/cache"
	"github.com/iyhunko/academy-backend/internal/metrics"
	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/repository"
	"github.com/iyhunko/academy-backend/internal/sqs"
	"github.com/iyhunko/academy-backend/internal/storage"
	"github.com/iyhunko/academy-backend/internal/validator"
)

const productResource = "Product"

// ProductInput carries the client supplied product fields. Nil means absent.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Stock       *int
	Brand       *string
}

func (in ProductInput) empty() bool {
	return in.Name == nil && in.Description == nil && in.Price == nil &&
		in.Category == nil && in.Stock == nil && in.Brand == nil
}

func (in ProductInput) apply(p *model.Product) {
	setIf(&p.Name, in.Name)
	setIf(&p.Description, in.Description)
	setIf(&p.Price, in.Price)
	setIf(&p.Category, in.Category)
	setIf(&p.Stock, in.Stock)
	setIf(&p.Brand, in.Brand)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// ProductService manages the product catalog and its images.
type ProductService struct {
	store  repository.Store
	images ImageStore
	cache  ListCache
}

// NewProductService creates a ProductService. A nil listCache disables list caching.
func NewProductService(store repository.Store, images ImageStore, listCache ListCache) *ProductService {
	return &ProductService{
		store:  store,
		images: images,
		cache:  cacheOrNoop(listCache),
	}
}

func productMessage(p *model.Product) sqs.EventMessage {
	return sqs.EventMessage{ResourceID: p.ID, Name: p.Name, Price: p.Price}
}

// CreateProduct validates the product, stores its image when given and records product.created.
func (ps *ProductService) CreateProduct(ctx context.Context, in ProductInput, up *storage.Upload) (*model.Product, error) {
	product := &model.Product{}
	in.apply(product)
	if err := validator.Validate(product); err != nil {
		return nil, err
	}

	err := persistWithImage(ctx, ps.images, up, nil, func(img *model.Image) error {
		product.Image = img
		return ps.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			created, err := tx.Products().Create(ctx, product)
			if err != nil {
				return err
			}
			product = created
			return recordEvent(ctx, tx, model.EventProductCreated, productMessage(created))
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.ProductsCreated.Inc()
	ps.cache.Invalidate(ctx, cache.ProductsKey)
	slog.Debug("Product created", slog.String("product_id", product.ID))

	return product, nil
}

func (ps *ProductService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	if ps.cache.Load(ctx, cache.ProductsKey, &products) {
		return products, nil
	}

	products, err := ps.store.Products().List(ctx, *repository.NewQuery())
	if err != nil {
		return nil, err
	}
	ps.cache.Store(ctx, cache.ProductsKey, products)
	return products, nil
}

func (ps *ProductService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	product, err := ps.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, productResource, id)
	}
	return product, nil
}

// ListByCategory returns every product of category. No match is an empty list.
func (ps *ProductService) ListByCategory(ctx context.Context, category string) ([]*model.Product, error) {
	return ps.store.Products().List(ctx, *repository.NewQuery().With(repository.CategoryField, category))
}

// UpdateProduct applies the supplied fields and optionally replaces the image.
func (ps *ProductService) UpdateProduct(ctx context.Context, id string, in ProductInput, up *storage.Upload) (*model.Product, error) {
	product, err := ps.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.empty() && up == nil {
		return nil, errNoFields()
	}

	in.apply(product)
	if err := validator.Validate(product); err != nil {
		return nil, err
	}

	oldImage := product.Image
	err = persistWithImage(ctx, ps.images, up, oldImage, func(img *model.Image) error {
		if img != nil {
			product.Image = img
		}
		return ps.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			// Update leaves the review-owned rating fields as stored
			if err := tx.Products().Update(ctx, product); err != nil {
				return lookupErr(err, productResource, id)
			}
			stored, err := tx.Products().FindByID(ctx, id)
			if err != nil {
				return lookupErr(err, productResource, id)
			}
			product = stored
			return recordEvent(ctx, tx, model.EventProductUpdated, productMessage(product))
		})
	})
	if err != nil {
		return nil, err
	}

	ps.cache.Invalidate(ctx, cache.ProductsKey)
	return product, nil
}

// DeleteProduct removes the product. Its reviews and image file are left in place.
func (ps *ProductService) DeleteProduct(ctx context.Context, id string) error {
	product, err := ps.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	err = ps.store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Products().DeleteByID(ctx, id); err != nil {
			return lookupErr(err, productResource, id)
		}
		return recordEvent(ctx, tx, model.EventProductDeleted, productMessage(product))
	})
	if err != nil {
		return err
	}

	metrics.ProductsDeleted.Inc()
	ps.cache.Invalidate(ctx, cache.ProductsKey)
	return nil
}
