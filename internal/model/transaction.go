package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentType string

const (
	PaymentFull    PaymentType = "FULL"
	PaymentPartial PaymentType = "PARTIAL"
)

type DebtStatus string

const (
	DebtUnpaid DebtStatus = "Unpaid"
	DebtPaid   DebtStatus = "Paid"
)

// ReturnProcessed is the only state a return-trail entry is ever written in.
const ReturnProcessed = "Processed"

// ProductLine is a sale line frozen at creation time. Price, retail and
// discount are the authoritative server-side values, never client input.
// ReturnedQuantity grows as items come back but can never exceed Quantity.
type ProductLine struct {
	ProductID        uuid.UUID `json:"productId"`
	Name             string    `json:"name"`
	Quantity         int       `json:"quantity"`
	Price            float64   `json:"price"`
	Retail           float64   `json:"retail"`
	Discount         float64   `json:"discount"`
	ReturnedQuantity int       `json:"returnedQuantity"`
}

// DebtEntry is an append-only record of a shortfall owed by the customer,
// settled individually by id.
type DebtEntry struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description,omitempty"`
	Amount      float64    `json:"amount"`
	Status      DebtStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
}

// ReturnEntry is an immutable return-trail record.
type ReturnEntry struct {
	ProductID    uuid.UUID `json:"productId"`
	Quantity     int       `json:"quantity"`
	RefundAmount float64   `json:"refundAmount"`
	Reason       string    `json:"reason,omitempty"`
	ReturnedBy   uuid.UUID `json:"returnedBy"`
	ReturnedAt   time.Time `json:"returnedAt"`
	Status       string    `json:"status"`
}

// Transaction is the ledger aggregate. The financial core fields are written
// once at creation; debt and returnTrail are append-only afterwards. Soft
// delete marks it inactive without reversing any financial effect.
type Transaction struct {
	ID                        uuid.UUID     `json:"id"`
	InvoiceNumber             string        `json:"invoiceNumber"`
	CustomerID                uuid.UUID     `json:"customerId"`
	SellerID                  uuid.UUID     `json:"sellerId"`
	ShopID                    uuid.UUID     `json:"shopId"`
	SalesmanID                *uuid.UUID    `json:"salesmanId,omitempty"`
	ProductsList              []ProductLine `json:"productsList"`
	ActualAmount              float64       `json:"actualAmount"`
	PaidAmount                float64       `json:"paidAmount"`
	Tax                       float64       `json:"tax"`
	FlatDiscount              float64       `json:"flatDiscount"`
	TotalDiscount             float64       `json:"totalDiscount"`
	PaidThroughCash           float64       `json:"paidThroughCash"`
	PaidThroughAccountBalance float64       `json:"paidThroughAccountBalance"`
	PaymentType               PaymentType   `json:"paymentType"`
	PreviousBalance           float64       `json:"previousBalance"`
	CurrentBalance            float64       `json:"currentBalance"`
	Debt                      []DebtEntry   `json:"debt"`
	ReturnTrail               []ReturnEntry `json:"returnTrail"`
	TotalRefund               float64       `json:"totalRefund"`
	CreatedAt                 time.Time     `json:"createdAt"`
	UpdatedAt                 time.Time     `json:"updatedAt"`
	DeletedAt                 *time.Time    `json:"deletedAt,omitempty"`
}

// Line returns the sale line for a product, or nil.
func (t *Transaction) Line(productID uuid.UUID) *ProductLine {
	for i := range t.ProductsList {
		if t.ProductsList[i].ProductID == productID {
			return &t.ProductsList[i]
		}
	}
	return nil
}

// FindDebt returns the debt entry with the given id, or nil.
func (t *Transaction) FindDebt(debtID uuid.UUID) *DebtEntry {
	for i := range t.Debt {
		if t.Debt[i].ID == debtID {
			return &t.Debt[i]
		}
	}
	return nil
}

// HasUnpaidDebt reports whether any debt entry is still open.
func (t *Transaction) HasUnpaidDebt() bool {
	for i := range t.Debt {
		if t.Debt[i].Status != DebtPaid {
			return true
		}
	}
	return false
}

// TransactionRecord is the read-path projection with joined display fields.
// It never participates in write-path invariants.
type TransactionRecord struct {
	Transaction
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	SellerName    string `json:"sellerName"`
	ShopName      string `json:"shopName"`
}

// TransactionFilter controls history queries.
type TransactionFilter struct {
	Page     int
	Limit    int
	Search   string
	SellerID *uuid.UUID // set for non-admin callers: restricts to own sales
}

// TransactionPage is one page of history plus pagination totals.
type TransactionPage struct {
	Data         []*TransactionRecord `json:"data"`
	TotalRecords int64                `json:"totalRecords"`
	TotalPages   int                  `json:"totalPages"`
	CurrentPage  int                  `json:"currentPage"`
}
