package model

import (
	"time"

	"github.com/google/uuid"
)

// Product holds the authoritative pricing used when a sale is rung up.
// Price is the selling price, Retail the acquisition cost, Discount a flat
// per-unit reduction.
type Product struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Retail    float64    `json:"retail"`
	Discount  float64    `json:"discount"`
	InStock   int        `json:"inStock"`
	ShopID    *uuid.UUID `json:"shopId,omitempty"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

type ProductCreateRequest struct {
	Name     string     `json:"name" validate:"required,min=2"`
	Price    float64    `json:"price" validate:"required,gt=0"`
	Retail   float64    `json:"retail" validate:"gte=0"`
	Discount float64    `json:"discount" validate:"gte=0"`
	InStock  int        `json:"inStock" validate:"gte=0"`
	ShopID   *uuid.UUID `json:"shopId,omitempty"`
}

type ProductUpdateRequest struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=2"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Retail   *float64 `json:"retail,omitempty" validate:"omitempty,gte=0"`
	Discount *float64 `json:"discount,omitempty" validate:"omitempty,gte=0"`
	InStock  *int     `json:"inStock,omitempty" validate:"omitempty,gte=0"`
}

type ProductFilter struct {
	Page   int
	Limit  int
	Search string
	ShopID *uuid.UUID
}

type ProductPage struct {
	Data         []*Product `json:"data"`
	TotalRecords int64      `json:"totalRecords"`
	TotalPages   int        `json:"totalPages"`
	CurrentPage  int        `json:"currentPage"`
}
