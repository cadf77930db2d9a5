package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrShopNotFound = errors.New("shop not found")
)

type ShopRepository struct {
	*pg.DB
}

func NewShopRepository(db *pg.DB) *ShopRepository {
	return &ShopRepository{
		db,
	}
}

func (r *ShopRepository) Create(ctx context.Context, s *model.Shop) (*model.Shop, error) {
	entity := toShopEntity(s)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toShopModel(entity), nil
}

func (r *ShopRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	var entity ShopEntity
	err := r.Read(ctx).WithContext(ctx).
		Scopes(pg.Active).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	return toShopModel(&entity), nil
}

// RecordSale bumps the sale counter and adds the sale's actual amount to
// revenue.
func (r *ShopRepository) RecordSale(ctx context.Context, id uuid.UUID, revenue float64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ShopEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_sales":   gorm.Expr("total_sales + ?", 1),
			"total_revenue": gorm.Expr("total_revenue + ?", revenue),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShopNotFound
	}
	return nil
}

// AdjustRevenue moves revenue by delta without touching the sale counter.
// Refunds pass a negative delta, debt settlements a positive one.
func (r *ShopRepository) AdjustRevenue(ctx context.Context, id uuid.UUID, delta float64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ShopEntity{}).
		Where("id = ?", id).
		Update("total_revenue", gorm.Expr("total_revenue + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShopNotFound
	}
	return nil
}

func (r *ShopRepository) AdjustProductCount(ctx context.Context, id uuid.UUID, delta int) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ShopEntity{}).
		Where("id = ?", id).
		Update("total_products", gorm.Expr("total_products + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShopNotFound
	}
	return nil
}

func (r *ShopRepository) Update(ctx context.Context, s *model.Shop) (*model.Shop, error) {
	entity := toShopEntity(s)
	if err := r.Write(ctx).WithContext(ctx).Save(entity).Error; err != nil {
		return nil, err
	}
	return toShopModel(entity), nil
}

func (r *ShopRepository) List(ctx context.Context, page, limit int) ([]*model.Shop, int64, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&ShopEntity{}).
		Scopes(pg.Active)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	lim, offset := pageBounds(page, limit)

	var entities []*ShopEntity
	if err := q.Order("created_at DESC").Limit(lim).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toShopModels(entities), total, nil
}

func (r *ShopRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ShopEntity{}).
		Scopes(pg.Active).
		Where("id = ?", id).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShopNotFound
	}
	return nil
}
