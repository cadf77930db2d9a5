package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/queue"
	"github.com/retailcore/pos-gateway/pkg/logger"
	"github.com/retailcore/pos-gateway/pkg/prom"
)

var (
	ErrProductMismatch      = errors.New("one or more products do not exist")
	ErrLineNotInTransaction = errors.New("product is not part of this transaction")
	ErrNothingToReturn      = errors.New("nothing to return")
	ErrDebtNotFound         = errors.New("debt entry not found")
)

type TransactionRepository interface {
	Create(ctx context.Context, t *model.Transaction) (*model.Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	LatestInvoiceNumber(ctx context.Context) (string, error)
	Update(ctx context.Context, t *model.Transaction) (*model.Transaction, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type CustomerRepository interface {
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	ApplySale(ctx context.Context, id uuid.UUID, newBalance float64, totalPaid float64) error
	AdjustBalance(ctx context.Context, id uuid.UUID, delta float64) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	GetActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

type ShopRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Shop, error)
	RecordSale(ctx context.Context, id uuid.UUID, revenue float64) error
	AdjustRevenue(ctx context.Context, id uuid.UUID, delta float64) error
}

type SalesmanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Salesman, error)
	IncrementOrders(ctx context.Context, id uuid.UUID) error
}

// LedgerService computes and commits the financial effect of every sale
// mutation. Each operation is one store transaction: a failure anywhere rolls
// the whole unit back, so no partial state is ever visible.
type LedgerService struct {
	transactionRepo TransactionRepository
	customerRepo    CustomerRepository
	productRepo     ProductRepository
	shopRepo        ShopRepository
	salesmanRepo    SalesmanRepository
	receipts        *queue.Queue
}

func NewLedgerService(
	transactionRepo TransactionRepository,
	customerRepo CustomerRepository,
	productRepo ProductRepository,
	shopRepo ShopRepository,
	salesmanRepo SalesmanRepository,
	receipts *queue.Queue,
) *LedgerService {
	return &LedgerService{
		transactionRepo: transactionRepo,
		customerRepo:    customerRepo,
		productRepo:     productRepo,
		shopRepo:        shopRepo,
		salesmanRepo:    salesmanRepo,
		receipts:        receipts,
	}
}

// CreateSale rings up a sale. Pricing is authoritative from the product
// catalog; the client only says what and how much. The caller retries on
// repository.ErrDuplicateInvoice when concurrent sales race on the same
// invoice number.
func (s *LedgerService) CreateSale(ctx context.Context, req model.SaleCreateRequest) (*model.SaleCreateResult, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	var result *model.SaleCreateResult
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.customerRepo.GetByIDForUpdate(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		shop, err := s.shopRepo.GetByID(ctx, req.ShopID)
		if err != nil {
			return err
		}
		if req.SalesmanID != nil {
			if _, err := s.salesmanRepo.GetByID(ctx, *req.SalesmanID); err != nil {
				return err
			}
		}

		products, err := s.loadProducts(ctx, req.ProductsList)
		if err != nil {
			return err
		}

		// financial core
		var subtotal, totalDiscount float64
		lines := make([]model.ProductLine, 0, len(req.ProductsList))
		for _, item := range req.ProductsList {
			p := products[item.ProductID]
			qty := item.Quantity
			if qty <= 0 {
				qty = 1
			}
			subtotal += p.Price * float64(qty)
			totalDiscount += p.Discount * float64(qty)
			lines = append(lines, model.ProductLine{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  qty,
				Price:     p.Price,
				Retail:    p.Retail,
				Discount:  p.Discount,
			})
		}

		taxable := subtotal - totalDiscount - req.FlatDiscount
		if taxable < 0 {
			taxable = 0
		}
		tax := shop.TaxRate / 100 * taxable
		actualAmount := taxable + tax

		previousBalance := customer.Balance
		var paidThroughBalance, paidThroughCash float64
		if req.UseBalance && previousBalance > 0 {
			paidThroughBalance = previousBalance
			if paidThroughBalance > actualAmount {
				paidThroughBalance = actualAmount
			}
			paidThroughCash = req.PaidAmount - paidThroughBalance
			if paidThroughCash < 0 {
				paidThroughCash = 0
			}
		} else {
			paidThroughCash = req.PaidAmount
		}
		totalPaid := paidThroughCash + paidThroughBalance

		paymentType := model.PaymentPartial
		if totalPaid >= actualAmount {
			paymentType = model.PaymentFull
		}

		// the balance left after spending store credit; overpayment becomes
		// credit and shortfall becomes debt on top of it
		currentBalance := previousBalance - paidThroughBalance
		newBalance := currentBalance + (totalPaid - actualAmount)

		latest, err := s.transactionRepo.LatestInvoiceNumber(ctx)
		if err != nil {
			return err
		}

		created, err := s.transactionRepo.Create(ctx, &model.Transaction{
			InvoiceNumber:             nextInvoiceNumber(latest),
			CustomerID:                req.CustomerID,
			SellerID:                  req.SellerID,
			ShopID:                    req.ShopID,
			SalesmanID:                req.SalesmanID,
			ProductsList:              lines,
			ActualAmount:              actualAmount,
			PaidAmount:                totalPaid,
			Tax:                       tax,
			FlatDiscount:              req.FlatDiscount,
			TotalDiscount:             totalDiscount,
			PaidThroughCash:           paidThroughCash,
			PaidThroughAccountBalance: paidThroughBalance,
			PaymentType:               paymentType,
			PreviousBalance:           previousBalance,
			CurrentBalance:            currentBalance,
		})
		if err != nil {
			return err
		}

		if err := s.customerRepo.ApplySale(ctx, req.CustomerID, newBalance, totalPaid); err != nil {
			return fmt.Errorf("update customer: %w", err)
		}
		if err := s.shopRepo.RecordSale(ctx, req.ShopID, actualAmount); err != nil {
			return fmt.Errorf("update shop: %w", err)
		}
		for _, line := range lines {
			if err := s.productRepo.AdjustStock(ctx, line.ProductID, -line.Quantity); err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
		}
		if req.SalesmanID != nil {
			if err := s.salesmanRepo.IncrementOrders(ctx, *req.SalesmanID); err != nil {
				return fmt.Errorf("update salesman: %w", err)
			}
		}

		result = &model.SaleCreateResult{
			Transaction: created,
			Calculated: model.Breakdown{
				Subtotal:                  subtotal,
				TotalDiscount:             totalDiscount,
				FlatDiscount:              req.FlatDiscount,
				Tax:                       tax,
				ActualAmount:              actualAmount,
				PaidThroughCash:           paidThroughCash,
				PaidThroughAccountBalance: paidThroughBalance,
				PreviousBalance:           previousBalance,
				CurrentBalance:            newBalance,
				PaymentType:               paymentType,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishReceipt(ctx, result.Transaction, model.ReceiptSale, result.Calculated.ActualAmount)
	prom.IncCounter(prom.SystemLedger, prom.MetricSalesCreated)
	return result, nil
}

// loadProducts resolves every distinct requested product and fails when any
// id is unknown or retired.
func (s *LedgerService) loadProducts(ctx context.Context, items []model.SaleItem) (map[uuid.UUID]*model.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.productRepo.GetActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(products) != len(ids) {
		return nil, ErrProductMismatch
	}

	byID := make(map[uuid.UUID]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

// ProcessReturn applies item returns against a transaction. Over-requested
// quantities are capped at what is still out, never rejected; a request that
// caps down to nothing at all fails and rolls back.
func (s *LedgerService) ProcessReturn(ctx context.Context, req model.ReturnRequest, returnedBy uuid.UUID) (*model.ReturnResult, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	var result *model.ReturnResult
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		trx, err := s.transactionRepo.GetByID(ctx, req.TransactionID)
		if err != nil {
			return err
		}
		if _, err := s.customerRepo.GetByIDForUpdate(ctx, trx.CustomerID); err != nil {
			return err
		}
		if _, err := s.shopRepo.GetByID(ctx, trx.ShopID); err != nil {
			return err
		}

		now := time.Now()
		var subtotalRefund float64
		for _, item := range req.Products {
			line := trx.Line(item.ProductID)
			if line == nil {
				return ErrLineNotInTransaction
			}

			returnQty := item.Quantity
			if remaining := line.Quantity - line.ReturnedQuantity; returnQty > remaining {
				returnQty = remaining
			}
			if returnQty <= 0 {
				continue
			}

			line.ReturnedQuantity += returnQty
			refund := (line.Price - line.Discount) * float64(returnQty)
			subtotalRefund += refund

			if err := s.productRepo.AdjustStock(ctx, item.ProductID, returnQty); err != nil {
				return fmt.Errorf("restock: %w", err)
			}

			trx.ReturnTrail = append(trx.ReturnTrail, model.ReturnEntry{
				ProductID:    item.ProductID,
				Quantity:     returnQty,
				RefundAmount: refund,
				Reason:       item.Reason,
				ReturnedBy:   returnedBy,
				ReturnedAt:   now,
				Status:       model.ReturnProcessed,
			})
		}

		if subtotalRefund <= 0 {
			return ErrNothingToReturn
		}

		trx.TotalRefund = subtotalRefund
		updated, err := s.transactionRepo.Update(ctx, trx)
		if err != nil {
			return err
		}

		if err := s.customerRepo.AdjustBalance(ctx, trx.CustomerID, subtotalRefund); err != nil {
			return fmt.Errorf("refund balance: %w", err)
		}
		if err := s.shopRepo.AdjustRevenue(ctx, trx.ShopID, -subtotalRefund); err != nil {
			return fmt.Errorf("reverse revenue: %w", err)
		}

		result = &model.ReturnResult{
			Transaction:    updated,
			RefundedAmount: subtotalRefund,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishReceipt(ctx, result.Transaction, model.ReceiptReturn, result.RefundedAmount)
	prom.IncCounter(prom.SystemLedger, prom.MetricReturnsProcessed)
	return result, nil
}

// AppendDebt records a shortfall against a transaction after the fact: the
// recognized paid amount shrinks and the previously credited revenue and
// customer balance are reversed by the same sum.
func (s *LedgerService) AppendDebt(ctx context.Context, req model.DebtAppendRequest) (*model.DebtAppendResult, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	var result *model.DebtAppendResult
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		trx, err := s.transactionRepo.GetByID(ctx, req.TransactionID)
		if err != nil {
			return err
		}

		if len(req.Debt) == 0 {
			result = &model.DebtAppendResult{Transaction: trx}
			return nil
		}

		now := time.Now()
		var newDebtSum float64
		for _, item := range req.Debt {
			newDebtSum += item.Amount
			trx.Debt = append(trx.Debt, model.DebtEntry{
				ID:          uuid.New(),
				Description: item.Description,
				Amount:      item.Amount,
				Status:      model.DebtUnpaid,
				CreatedAt:   now,
			})
		}

		trx.PaidAmount -= newDebtSum
		trx.PaymentType = model.PaymentPartial

		updated, err := s.transactionRepo.Update(ctx, trx)
		if err != nil {
			return err
		}

		if err := s.shopRepo.AdjustRevenue(ctx, trx.ShopID, -newDebtSum); err != nil {
			return fmt.Errorf("reverse revenue: %w", err)
		}
		if err := s.customerRepo.AdjustBalance(ctx, trx.CustomerID, -newDebtSum); err != nil {
			return fmt.Errorf("reverse balance: %w", err)
		}

		result = &model.DebtAppendResult{
			Transaction: updated,
			AppendedSum: newDebtSum,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AppendedSum > 0 {
		s.publishReceipt(ctx, result.Transaction, model.ReceiptDebt, result.AppendedSum)
		prom.IncCounter(prom.SystemLedger, prom.MetricDebtsAppended)
	}
	return result, nil
}

// SettleDebt marks one debt entry paid and re-recognizes the revenue and
// customer credit it had reversed. Settling an already-paid entry is an
// idempotent no-op.
func (s *LedgerService) SettleDebt(ctx context.Context, req model.DebtSettleRequest) (*model.DebtSettleResult, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	var result *model.DebtSettleResult
	err := s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		trx, err := s.transactionRepo.GetByID(ctx, req.TransactionID)
		if err != nil {
			return err
		}

		entry := trx.FindDebt(req.DebtID)
		if entry == nil {
			return ErrDebtNotFound
		}
		if entry.Status == model.DebtPaid {
			result = &model.DebtSettleResult{
				Transaction: trx,
				Debt:        entry,
				AlreadyPaid: true,
			}
			return nil
		}

		now := time.Now()
		entry.Status = model.DebtPaid
		entry.PaidAt = &now

		trx.PaidAmount += entry.Amount
		if trx.HasUnpaidDebt() {
			trx.PaymentType = model.PaymentPartial
		} else {
			trx.PaymentType = model.PaymentFull
		}

		updated, err := s.transactionRepo.Update(ctx, trx)
		if err != nil {
			return err
		}

		if err := s.shopRepo.AdjustRevenue(ctx, trx.ShopID, entry.Amount); err != nil {
			return fmt.Errorf("recognize revenue: %w", err)
		}
		if err := s.customerRepo.AdjustBalance(ctx, trx.CustomerID, entry.Amount); err != nil {
			return fmt.Errorf("recognize balance: %w", err)
		}

		result = &model.DebtSettleResult{
			Transaction: updated,
			Debt:        updated.FindDebt(req.DebtID),
			PaidAmount:  entry.Amount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyPaid {
		s.publishReceipt(ctx, result.Transaction, model.ReceiptSettlement, result.PaidAmount)
		prom.IncCounter(prom.SystemLedger, prom.MetricDebtsSettled)
	}
	return result, nil
}

// Delete retires a transaction from default reads. No financial effect is
// reversed.
func (s *LedgerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.transactionRepo.SoftDelete(ctx, id)
}

// publishReceipt emits the receipt event for an already committed mutation.
// Delivery is best-effort: a queue outage never unwinds booked money movement,
// so failures are only logged.
func (s *LedgerService) publishReceipt(ctx context.Context, trx *model.Transaction, kind model.ReceiptKind, amount float64) {
	if s.receipts == nil {
		return
	}
	_, err := s.receipts.PublishJSON(ctx, model.ReceiptEvent{
		TransactionID: trx.ID,
		InvoiceNumber: trx.InvoiceNumber,
		Kind:          kind,
		CustomerID:    trx.CustomerID,
		Amount:        amount,
		OccurredAt:    time.Now(),
	}, map[string]string{"kind": string(kind)})
	if err != nil {
		logger.Error("receipt publish failed",
			"invoice", trx.InvoiceNumber,
			"kind", string(kind),
			"error", err.Error(),
		)
	}
}
