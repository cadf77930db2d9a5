package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/repository"
)

type ProductStore interface {
	Create(ctx context.Context, p *model.Product) (*model.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, p *model.Product) (*model.Product, error)
	List(ctx context.Context, f model.ProductFilter) ([]*model.Product, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type ShopCounter interface {
	AdjustProductCount(ctx context.Context, id uuid.UUID, delta int) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductService struct {
	products ProductStore
	shops    ShopCounter
}

func NewProductService(products ProductStore, shops ShopCounter) *ProductService {
	return &ProductService{products: products, shops: shops}
}

// Create registers a product; when it belongs to a shop the shop's product
// counter moves with it, in the same unit of work.
func (s *ProductService) Create(ctx context.Context, caller model.Caller, req model.ProductCreateRequest) (*model.Product, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	createdBy := caller.ID
	var created *model.Product
	err := s.shops.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.Create(ctx, &model.Product{
			Name:      req.Name,
			Price:     req.Price,
			Retail:    req.Retail,
			Discount:  req.Discount,
			InStock:   req.InStock,
			ShopID:    req.ShopID,
			CreatedBy: &createdBy,
		})
		if err != nil {
			return err
		}
		if req.ShopID != nil {
			if err := s.shops.AdjustProductCount(ctx, *req.ShopID, 1); err != nil {
				return err
			}
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req model.ProductUpdateRequest) (*model.Product, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Retail != nil {
		product.Retail = *req.Retail
	}
	if req.Discount != nil {
		product.Discount = *req.Discount
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}

	return s.products.Update(ctx, product)
}

func (s *ProductService) List(ctx context.Context, f model.ProductFilter) (*model.ProductPage, error) {
	products, total, err := s.products.List(ctx, f)
	if err != nil {
		return nil, err
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}
	return &model.ProductPage{
		Data:         products,
		TotalRecords: total,
		TotalPages:   repository.TotalPages(total, f.Limit),
		CurrentPage:  page,
	}, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.shops.WithinTransaction(ctx, func(ctx context.Context) error {
		product, err := s.products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.products.SoftDelete(ctx, id); err != nil {
			return err
		}
		if product.ShopID != nil {
			return s.shops.AdjustProductCount(ctx, *product.ShopID, -1)
		}
		return nil
	})
}
