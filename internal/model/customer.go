package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer carries a running account balance: positive means store credit,
// negative means the customer owes the store.
type Customer struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phoneNumber"`
	Address     string     `json:"address,omitempty"`
	Balance     float64    `json:"balance"`
	TotalSpent  float64    `json:"totalSpent"`
	TotalOrders int64      `json:"totalOrders"`
	CreatedBy   *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

type CustomerCreateRequest struct {
	Name        string  `json:"name" validate:"required,min=2"`
	PhoneNumber string  `json:"phoneNumber" validate:"required,min=4"`
	Address     string  `json:"address,omitempty"`
	Balance     float64 `json:"balance"`
}

type CustomerUpdateRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=2"`
	PhoneNumber *string  `json:"phoneNumber,omitempty" validate:"omitempty,min=4"`
	Address     *string  `json:"address,omitempty"`
	Balance     *float64 `json:"balance,omitempty"`
}

type CustomerFilter struct {
	Page   int
	Limit  int
	Search string
}

type CustomerPage struct {
	Data         []*Customer `json:"data"`
	TotalRecords int64       `json:"totalRecords"`
	TotalPages   int         `json:"totalPages"`
	CurrentPage  int         `json:"currentPage"`
}
