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
	ErrSalesmanNotFound = errors.New("salesman not found")
)

type SalesmanRepository struct {
	*pg.DB
}

func NewSalesmanRepository(db *pg.DB) *SalesmanRepository {
	return &SalesmanRepository{
		db,
	}
}

func (r *SalesmanRepository) Create(ctx context.Context, s *model.Salesman) (*model.Salesman, error) {
	entity := toSalesmanEntity(s)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toSalesmanModel(entity), nil
}

func (r *SalesmanRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Salesman, error) {
	var entity SalesmanEntity
	err := r.Read(ctx).WithContext(ctx).
		Scopes(pg.Active).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSalesmanNotFound
		}
		return nil, err
	}
	return toSalesmanModel(&entity), nil
}

func (r *SalesmanRepository) IncrementOrders(ctx context.Context, id uuid.UUID) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&SalesmanEntity{}).
		Where("id = ?", id).
		Update("total_orders", gorm.Expr("total_orders + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSalesmanNotFound
	}
	return nil
}

func (r *SalesmanRepository) Update(ctx context.Context, s *model.Salesman) (*model.Salesman, error) {
	entity := toSalesmanEntity(s)
	if err := r.Write(ctx).WithContext(ctx).Save(entity).Error; err != nil {
		return nil, err
	}
	return toSalesmanModel(entity), nil
}

func (r *SalesmanRepository) List(ctx context.Context, page, limit int) ([]*model.Salesman, int64, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&SalesmanEntity{}).
		Scopes(pg.Active)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	lim, offset := pageBounds(page, limit)

	var entities []*SalesmanEntity
	if err := q.Order("created_at DESC").Limit(lim).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toSalesmanModels(entities), total, nil
}

func (r *SalesmanRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&SalesmanEntity{}).
		Scopes(pg.Active).
		Where("id = ?", id).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSalesmanNotFound
	}
	return nil
}
