package model

import (
	"github.com/google/uuid"
)

// SaleItem identifies a product and how many units the customer takes.
// Price, retail and discount are looked up server-side.
type SaleItem struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type SaleCreateRequest struct {
	CustomerID   uuid.UUID  `json:"customerId" validate:"required"`
	SellerID     uuid.UUID  `json:"sellerId" validate:"required"`
	ShopID       uuid.UUID  `json:"shopId" validate:"required"`
	SalesmanID   *uuid.UUID `json:"salesmanId,omitempty"`
	ProductsList []SaleItem `json:"productsList" validate:"required,min=1,dive"`
	PaidAmount   float64    `json:"paidAmount" validate:"gte=0"`
	FlatDiscount float64    `json:"flatDiscount" validate:"gte=0"`
	UseBalance   bool       `json:"useBalance"`
}

type ReturnItem struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
	Reason    string    `json:"reason,omitempty"`
}

type ReturnRequest struct {
	TransactionID uuid.UUID    `json:"transactionId" validate:"required"`
	Products      []ReturnItem `json:"products" validate:"required,min=1,dive"`
}

type DebtItem struct {
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
}

// DebtAppendRequest with an empty Debt slice is a no-op, not an error.
type DebtAppendRequest struct {
	TransactionID uuid.UUID  `json:"transactionId" validate:"required"`
	Debt          []DebtItem `json:"debt" validate:"dive"`
}

type DebtSettleRequest struct {
	TransactionID uuid.UUID `json:"transactionId" validate:"required"`
	DebtID        uuid.UUID `json:"debtId" validate:"required"`
}

// Breakdown is the calculated summary returned alongside a created sale.
type Breakdown struct {
	Subtotal                  float64     `json:"subtotal"`
	TotalDiscount             float64     `json:"totalDiscount"`
	FlatDiscount              float64     `json:"flatDiscount"`
	Tax                       float64     `json:"tax"`
	ActualAmount              float64     `json:"actualAmount"`
	PaidThroughCash           float64     `json:"paidThroughCash"`
	PaidThroughAccountBalance float64     `json:"paidThroughAccountBalance"`
	PreviousBalance           float64     `json:"previousBalance"`
	CurrentBalance            float64     `json:"currentBalance"`
	PaymentType               PaymentType `json:"paymentType"`
}

type SaleCreateResult struct {
	Transaction *Transaction `json:"transaction"`
	Calculated  Breakdown    `json:"calculated"`
}

type ReturnResult struct {
	Transaction    *Transaction `json:"transaction"`
	RefundedAmount float64      `json:"refundedAmount"`
}

type DebtAppendResult struct {
	Transaction *Transaction `json:"transaction"`
	AppendedSum float64      `json:"appendedSum"`
}

type DebtSettleResult struct {
	Transaction *Transaction `json:"transaction"`
	Debt        *DebtEntry   `json:"debt"`
	PaidAmount  float64      `json:"paidAmount"`
	// AlreadyPaid is set when the entry was settled before this call; the
	// operation is then a no-op.
	AlreadyPaid bool `json:"alreadyPaid"`
}
