package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/repository"
)

type ShopStore interface {
	Create(ctx context.Context, s *model.Shop) (*model.Shop, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Shop, error)
	Update(ctx context.Context, s *model.Shop) (*model.Shop, error)
	List(ctx context.Context, page, limit int) ([]*model.Shop, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type ShopService struct {
	shops ShopStore
}

func NewShopService(shops ShopStore) *ShopService {
	return &ShopService{shops: shops}
}

func (s *ShopService) Create(ctx context.Context, caller model.Caller, req model.ShopCreateRequest) (*model.Shop, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}
	createdBy := caller.ID
	return s.shops.Create(ctx, &model.Shop{
		Name:      req.Name,
		Address:   req.Address,
		TaxRate:   req.TaxRate,
		CreatedBy: &createdBy,
	})
}

func (s *ShopService) Get(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	return s.shops.GetByID(ctx, id)
}

func (s *ShopService) Update(ctx context.Context, id uuid.UUID, req model.ShopUpdateRequest) (*model.Shop, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	shop, err := s.shops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		shop.Name = *req.Name
	}
	if req.Address != nil {
		shop.Address = *req.Address
	}
	if req.TaxRate != nil {
		shop.TaxRate = *req.TaxRate
	}

	return s.shops.Update(ctx, shop)
}

func (s *ShopService) List(ctx context.Context, page, limit int) (*model.ShopPage, error) {
	shops, total, err := s.shops.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	if page <= 0 {
		page = 1
	}
	return &model.ShopPage{
		Data:         shops,
		TotalRecords: total,
		TotalPages:   repository.TotalPages(total, limit),
		CurrentPage:  page,
	}, nil
}

func (s *ShopService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.shops.SoftDelete(ctx, id)
}
