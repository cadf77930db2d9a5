package model

import (
	"time"

	"github.com/google/uuid"
)

type ReceiptKind string

const (
	ReceiptSale       ReceiptKind = "sale"
	ReceiptReturn     ReceiptKind = "return"
	ReceiptDebt       ReceiptKind = "debt"
	ReceiptSettlement ReceiptKind = "settlement"
)

// ReceiptEvent is published after a ledger write commits and consumed by the
// notifier, which renders and dispatches the customer receipt.
type ReceiptEvent struct {
	TransactionID uuid.UUID   `json:"transactionId"`
	InvoiceNumber string      `json:"invoiceNumber"`
	Kind          ReceiptKind `json:"kind"`
	CustomerID    uuid.UUID   `json:"customerId"`
	Amount        float64     `json:"amount"`
	OccurredAt    time.Time   `json:"occurredAt"`
}
