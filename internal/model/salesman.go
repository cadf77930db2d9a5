package model

import (
	"time"

	"github.com/google/uuid"
)

// BalanceTrailEntry records a manual adjustment to a salesman's balance.
type BalanceTrailEntry struct {
	ID          uuid.UUID `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Salesman is a commissioned floor seller credited on sales.
type Salesman struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	PhoneNumber  string              `json:"phoneNumber"`
	Balance      float64             `json:"balance"`
	TotalOrders  int64               `json:"totalOrders"`
	BalanceTrail []BalanceTrailEntry `json:"balanceTrail"`
	CreatedBy    *uuid.UUID          `json:"createdBy,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	DeletedAt    *time.Time          `json:"deletedAt,omitempty"`
}

type SalesmanCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=4"`
}

type SalesmanUpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2"`
	PhoneNumber *string `json:"phoneNumber,omitempty" validate:"omitempty,min=4"`
}

// SalesmanBalanceRequest appends a balance-trail entry and moves the balance
// by Amount (negative to deduct).
type SalesmanBalanceRequest struct {
	Amount      float64 `json:"amount" validate:"required"`
	Description string  `json:"description,omitempty"`
}

type SalesmanPage struct {
	Data         []*Salesman `json:"data"`
	TotalRecords int64       `json:"totalRecords"`
	TotalPages   int         `json:"totalPages"`
	CurrentPage  int         `json:"currentPage"`
}
