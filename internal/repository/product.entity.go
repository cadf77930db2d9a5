package repository

import (
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/pkg/pg"
)

type ProductEntity struct {
	pg.Model
	Name      string     `db:"name"       gorm:"column:name;not null;index"`
	Price     float64    `db:"price"      gorm:"column:price;not null"`
	Retail    float64    `db:"retail"     gorm:"column:retail;not null;default:0"`
	Discount  float64    `db:"discount"   gorm:"column:discount;not null;default:0"`
	InStock   int        `db:"in_stock"   gorm:"column:in_stock;not null;default:0"`
	ShopID    *uuid.UUID `db:"shop_id"    gorm:"column:shop_id;type:uuid;index"`
	CreatedBy *uuid.UUID `db:"created_by" gorm:"column:created_by;type:uuid"`
}

func (ProductEntity) TableName() string {
	return "products"
}

func toProductEntity(m *model.Product) *ProductEntity {
	if m == nil {
		return nil
	}
	return &ProductEntity{
		Model: pg.Model{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
			DeletedAt: m.DeletedAt,
		},
		Name:      m.Name,
		Price:     m.Price,
		Retail:    m.Retail,
		Discount:  m.Discount,
		InStock:   m.InStock,
		ShopID:    m.ShopID,
		CreatedBy: m.CreatedBy,
	}
}

func toProductModel(e *ProductEntity) *model.Product {
	if e == nil {
		return nil
	}
	return &model.Product{
		ID:        e.ID,
		Name:      e.Name,
		Price:     e.Price,
		Retail:    e.Retail,
		Discount:  e.Discount,
		InStock:   e.InStock,
		ShopID:    e.ShopID,
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		DeletedAt: e.DeletedAt,
	}
}

func toProductModels(entities []*ProductEntity) []*model.Product {
	if entities == nil {
		return nil
	}
	models := make([]*model.Product, len(entities))
	for i, e := range entities {
		models[i] = toProductModel(e)
	}
	return models
}
