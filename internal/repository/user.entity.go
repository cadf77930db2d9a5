package repository

import (
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/pkg/pg"
)

type UserEntity struct {
	pg.Model
	Name         string     `db:"name"          gorm:"column:name;not null"`
	Email        string     `db:"email"         gorm:"column:email;not null;uniqueIndex"`
	Password     string     `db:"password"      gorm:"column:password;not null"`
	Role         string     `db:"role"          gorm:"column:role;not null;default:seller"`
	AssignedShop *uuid.UUID `db:"assigned_shop" gorm:"column:assigned_shop;type:uuid"`
	IsApproved   bool       `db:"is_approved"   gorm:"column:is_approved;not null;default:false"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserEntity(m *model.User) *UserEntity {
	if m == nil {
		return nil
	}
	return &UserEntity{
		Model: pg.Model{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
			DeletedAt: m.DeletedAt,
		},
		Name:         m.Name,
		Email:        m.Email,
		Password:     m.Password,
		Role:         string(m.Role),
		AssignedShop: m.AssignedShop,
		IsApproved:   m.IsApproved,
	}
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Password:     e.Password,
		Role:         model.Role(e.Role),
		AssignedShop: e.AssignedShop,
		IsApproved:   e.IsApproved,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		DeletedAt:    e.DeletedAt,
	}
}
