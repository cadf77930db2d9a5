package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/repository"
)

type TransactionReader interface {
	List(ctx context.Context, f model.TransactionFilter) ([]*model.TransactionRecord, int64, error)
	GetRecordByID(ctx context.Context, id uuid.UUID) (*model.TransactionRecord, error)
	GetRecordByInvoice(ctx context.Context, invoiceNumber string) (*model.TransactionRecord, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Transaction, error)
}

// QueryService is the read-only surface over the ledger. Reads run outside
// any transaction; role scoping happens here, not in the repository.
type QueryService struct {
	transactionRepo TransactionReader
}

func NewQueryService(transactionRepo TransactionReader) *QueryService {
	return &QueryService{
		transactionRepo: transactionRepo,
	}
}

// History returns one page of sales. Non-admin callers only ever see their
// own, whatever the filter says.
func (s *QueryService) History(ctx context.Context, caller model.Caller, f model.TransactionFilter) (*model.TransactionPage, error) {
	if !caller.IsAdmin() {
		sellerID := caller.ID
		f.SellerID = &sellerID
	}

	records, total, err := s.transactionRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}
	return &model.TransactionPage{
		Data:         records,
		TotalRecords: total,
		TotalPages:   repository.TotalPages(total, f.Limit),
		CurrentPage:  page,
	}, nil
}

func (s *QueryService) GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionRecord, error) {
	return s.transactionRepo.GetRecordByID(ctx, id)
}

func (s *QueryService) GetByInvoice(ctx context.Context, invoiceNumber string) (*model.TransactionRecord, error) {
	return s.transactionRepo.GetRecordByInvoice(ctx, invoiceNumber)
}

func (s *QueryService) CustomerHistory(ctx context.Context, customerID uuid.UUID) ([]*model.Transaction, error) {
	return s.transactionRepo.ListByCustomer(ctx, customerID)
}
