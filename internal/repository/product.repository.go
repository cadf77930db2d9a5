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
	ErrProductNotFound = errors.New("product not found")
)

type ProductRepository struct {
	*pg.DB
}

func NewProductRepository(db *pg.DB) *ProductRepository {
	return &ProductRepository{
		db,
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	entity := toProductEntity(p)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toProductModel(entity), nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var entity ProductEntity
	err := r.Read(ctx).WithContext(ctx).
		Scopes(pg.Active).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return toProductModel(&entity), nil
}

// GetActiveByIDs fetches all live products from the id set. The caller checks
// the returned count against what it asked for: a short result means at least
// one id is unknown or retired.
func (r *ProductRepository) GetActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var entities []*ProductEntity
	err := r.Write(ctx).WithContext(ctx).
		Scopes(pg.Active).
		Where("id IN ?", ids).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toProductModels(entities), nil
}

// AdjustStock moves on-hand inventory by delta: negative at sale time,
// positive when items come back.
func (r *ProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ProductEntity{}).
		Where("id = ?", id).
		Update("in_stock", gorm.Expr("in_stock + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *model.Product) (*model.Product, error) {
	entity := toProductEntity(p)
	if err := r.Write(ctx).WithContext(ctx).Save(entity).Error; err != nil {
		return nil, err
	}
	return toProductModel(entity), nil
}

func (r *ProductRepository) List(ctx context.Context, f model.ProductFilter) ([]*model.Product, int64, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&ProductEntity{}).
		Scopes(pg.Active)

	if f.ShopID != nil {
		q = q.Where("shop_id = ?", *f.ShopID)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+f.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Page, f.Limit)

	var entities []*ProductEntity
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toProductModels(entities), total, nil
}

func (r *ProductRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ProductEntity{}).
		Scopes(pg.Active).
		Where("id = ?", id).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
