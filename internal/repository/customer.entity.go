package repository

import (
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/pkg/pg"
)

type CustomerEntity struct {
	pg.Model
	Name        string     `db:"name"         gorm:"column:name;not null;index"`
	PhoneNumber string     `db:"phone_number" gorm:"column:phone_number;not null;index"`
	Address     string     `db:"address"      gorm:"column:address"`
	Balance     float64    `db:"balance"      gorm:"column:balance;not null;default:0"`
	TotalSpent  float64    `db:"total_spent"  gorm:"column:total_spent;not null;default:0"`
	TotalOrders int64      `db:"total_orders" gorm:"column:total_orders;not null;default:0"`
	CreatedBy   *uuid.UUID `db:"created_by"   gorm:"column:created_by;type:uuid"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerEntity(m *model.Customer) *CustomerEntity {
	if m == nil {
		return nil
	}
	return &CustomerEntity{
		Model: pg.Model{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
			DeletedAt: m.DeletedAt,
		},
		Name:        m.Name,
		PhoneNumber: m.PhoneNumber,
		Address:     m.Address,
		Balance:     m.Balance,
		TotalSpent:  m.TotalSpent,
		TotalOrders: m.TotalOrders,
		CreatedBy:   m.CreatedBy,
	}
}

func toCustomerModel(e *CustomerEntity) *model.Customer {
	if e == nil {
		return nil
	}
	return &model.Customer{
		ID:          e.ID,
		Name:        e.Name,
		PhoneNumber: e.PhoneNumber,
		Address:     e.Address,
		Balance:     e.Balance,
		TotalSpent:  e.TotalSpent,
		TotalOrders: e.TotalOrders,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		DeletedAt:   e.DeletedAt,
	}
}

func toCustomerModels(entities []*CustomerEntity) []*model.Customer {
	if entities == nil {
		return nil
	}
	models := make([]*model.Customer, len(entities))
	for i, e := range entities {
		models[i] = toCustomerModel(e)
	}
	return models
}
