package model

import (
	"time"

	"github.com/google/uuid"
)

// Shop aggregates sale counters and holds the tax rate (percent) applied to
// every sale rung up against it.
type Shop struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Address       string     `json:"address,omitempty"`
	TaxRate       float64    `json:"taxRate"`
	TotalSales    int64      `json:"totalSales"`
	TotalRevenue  float64    `json:"totalRevenue"`
	TotalProducts int64      `json:"totalProducts"`
	CreatedBy     *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
}

type ShopCreateRequest struct {
	Name    string  `json:"name" validate:"required,min=2"`
	Address string  `json:"address,omitempty"`
	TaxRate float64 `json:"taxRate" validate:"gte=0,lte=100"`
}

type ShopUpdateRequest struct {
	Name    *string  `json:"name,omitempty" validate:"omitempty,min=2"`
	Address *string  `json:"address,omitempty"`
	TaxRate *float64 `json:"taxRate,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type ShopPage struct {
	Data         []*Shop `json:"data"`
	TotalRecords int64   `json:"totalRecords"`
	TotalPages   int     `json:"totalPages"`
	CurrentPage  int     `json:"currentPage"`
}
