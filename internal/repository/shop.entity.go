package repository

import (
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/pkg/pg"
)

type ShopEntity struct {
	pg.Model
	Name          string     `db:"name"           gorm:"column:name;not null;index"`
	Address       string     `db:"address"        gorm:"column:address"`
	TaxRate       float64    `db:"tax_rate"       gorm:"column:tax_rate;not null;default:0"`
	TotalSales    int64      `db:"total_sales"    gorm:"column:total_sales;not null;default:0"`
	TotalRevenue  float64    `db:"total_revenue"  gorm:"column:total_revenue;not null;default:0"`
	TotalProducts int64      `db:"total_products" gorm:"column:total_products;not null;default:0"`
	CreatedBy     *uuid.UUID `db:"created_by"     gorm:"column:created_by;type:uuid"`
}

func (ShopEntity) TableName() string {
	return "shops"
}

func toShopEntity(m *model.Shop) *ShopEntity {
	if m == nil {
		return nil
	}
	return &ShopEntity{
		Model: pg.Model{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
			DeletedAt: m.DeletedAt,
		},
		Name:          m.Name,
		Address:       m.Address,
		TaxRate:       m.TaxRate,
		TotalSales:    m.TotalSales,
		TotalRevenue:  m.TotalRevenue,
		TotalProducts: m.TotalProducts,
		CreatedBy:     m.CreatedBy,
	}
}

func toShopModel(e *ShopEntity) *model.Shop {
	if e == nil {
		return nil
	}
	return &model.Shop{
		ID:            e.ID,
		Name:          e.Name,
		Address:       e.Address,
		TaxRate:       e.TaxRate,
		TotalSales:    e.TotalSales,
		TotalRevenue:  e.TotalRevenue,
		TotalProducts: e.TotalProducts,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
		DeletedAt:     e.DeletedAt,
	}
}

func toShopModels(entities []*ShopEntity) []*model.Shop {
	if entities == nil {
		return nil
	}
	models := make([]*model.Shop, len(entities))
	for i, e := range entities {
		models[i] = toShopModel(e)
	}
	return models
}
