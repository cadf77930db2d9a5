package repository

import (
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/pkg/pg"
)

type SalesmanEntity struct {
	pg.Model
	Name         string                    `db:"name"          gorm:"column:name;not null;index"`
	PhoneNumber  string                    `db:"phone_number"  gorm:"column:phone_number;not null"`
	Balance      float64                   `db:"balance"       gorm:"column:balance;not null;default:0"`
	TotalOrders  int64                     `db:"total_orders"  gorm:"column:total_orders;not null;default:0"`
	BalanceTrail []model.BalanceTrailEntry `db:"balance_trail" gorm:"column:balance_trail;serializer:json"`
	CreatedBy    *uuid.UUID                `db:"created_by"    gorm:"column:created_by;type:uuid"`
}

func (SalesmanEntity) TableName() string {
	return "salesmen"
}

func toSalesmanEntity(m *model.Salesman) *SalesmanEntity {
	if m == nil {
		return nil
	}
	return &SalesmanEntity{
		Model: pg.Model{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
			DeletedAt: m.DeletedAt,
		},
		Name:         m.Name,
		PhoneNumber:  m.PhoneNumber,
		Balance:      m.Balance,
		TotalOrders:  m.TotalOrders,
		BalanceTrail: m.BalanceTrail,
		CreatedBy:    m.CreatedBy,
	}
}

func toSalesmanModel(e *SalesmanEntity) *model.Salesman {
	if e == nil {
		return nil
	}
	return &model.Salesman{
		ID:           e.ID,
		Name:         e.Name,
		PhoneNumber:  e.PhoneNumber,
		Balance:      e.Balance,
		TotalOrders:  e.TotalOrders,
		BalanceTrail: e.BalanceTrail,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		DeletedAt:    e.DeletedAt,
	}
}

func toSalesmanModels(entities []*SalesmanEntity) []*model.Salesman {
	if entities == nil {
		return nil
	}
	models := make([]*model.Salesman, len(entities))
	for i, e := range entities {
		models[i] = toSalesmanModel(e)
	}
	return models
}
