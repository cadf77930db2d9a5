package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gateway "github.com/retailcore/pos-gateway/internal/gateways"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/queue"
	"github.com/retailcore/pos-gateway/pkg/logger"
	"github.com/retailcore/pos-gateway/pkg/prom"
)

// ReceiptNotifier consumes committed ledger events and dispatches customer
// receipts through the delivery gateway, exactly once per event.
type ReceiptNotifier struct {
	client      *gateway.Client
	idempotency *IdempotencyGuard
}

func NewReceiptNotifier(client *gateway.Client, idempotency *IdempotencyGuard) *ReceiptNotifier {
	return &ReceiptNotifier{
		client:      client,
		idempotency: idempotency,
	}
}

func (n *ReceiptNotifier) Process(ctx context.Context, d *queue.Delivery) error {
	var event model.ReceiptEvent
	if err := json.Unmarshal(d.Data, &event); err != nil {
		logger.Error("Failed to unmarshal receipt event", "error", err, "delivery_id", d.ID)
		return err // malformed payloads end up in the dead-letter stream
	}

	// one receipt per (transaction, kind); settlement events for the same
	// transaction carry distinct occurredAt stamps
	receiptID := fmt.Sprintf("%s:%s:%d", event.TransactionID, event.Kind, event.OccurredAt.UnixNano())

	lock, err := n.idempotency.Acquire(ctx, receiptID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyDelivered):
			logger.Info("Receipt already delivered, skipping", "receipt_id", receiptID)
			return nil
		case errors.Is(err, ErrMaxRetriesExceeded):
			logger.Error("Receipt delivery retries exhausted", "receipt_id", receiptID)
			prom.IncCounter(prom.SystemReceipts, prom.MetricReceiptsFailed)
			return nil // ack; further retries cannot succeed either
		case errors.Is(err, ErrLockHeld):
			return errors.New("delivery lock held by another consumer")
		default:
			return err
		}
	}
	defer n.idempotency.Release(ctx, lock)

	req := &gateway.DeliverRequest{
		ReceiptID:     receiptID,
		InvoiceNumber: event.InvoiceNumber,
		Kind:          string(event.Kind),
		CustomerID:    event.CustomerID.String(),
		Amount:        event.Amount,
		Body:          renderReceipt(&event),
	}

	start := time.Now()
	resp, err := n.client.Deliver(ctx, req)
	if err != nil {
		prom.IncCounter(prom.SystemReceipts, prom.MetricReceiptsFailed)
		n.idempotency.MarkFailed(ctx, lock, err)
		return err
	}

	if resp.Status != gateway.StatusDelivered {
		prom.IncCounter(prom.SystemReceipts, prom.MetricReceiptsFailed)
		err := fmt.Errorf("gateway returned status %s", resp.Status)
		n.idempotency.MarkFailed(ctx, lock, err)
		return err
	}

	prom.IncCounter(prom.SystemReceipts, prom.MetricReceiptsDelivered)
	prom.ObserveHistogram(prom.SystemReceipts, prom.MetricReceiptDeliveryDuration, time.Since(start).Seconds())

	if err := n.idempotency.MarkDelivered(ctx, lock); err != nil {
		// the receipt went out; a stale marker only risks one duplicate
		logger.Error("Failed to persist delivered marker", "receipt_id", receiptID, "error", err)
	}

	logger.Info("Receipt dispatched",
		"receipt_id", receiptID,
		"invoice", event.InvoiceNumber,
		"kind", event.Kind,
		"endpoint", resp.EndpointID)

	return nil
}

var kindTitles = map[model.ReceiptKind]string{
	model.ReceiptSale:       "SALE RECEIPT",
	model.ReceiptReturn:     "RETURN RECEIPT",
	model.ReceiptDebt:       "DEBT NOTICE",
	model.ReceiptSettlement: "PAYMENT RECEIPT",
}

func renderReceipt(event *model.ReceiptEvent) string {
	title, ok := kindTitles[event.Kind]
	if !ok {
		title = "RECEIPT"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "Invoice: %s\n", event.InvoiceNumber)
	fmt.Fprintf(&b, "Amount: %.2f\n", event.Amount)
	fmt.Fprintf(&b, "Date: %s\n", event.OccurredAt.Format("2006-01-02 15:04"))
	return b.String()
}
