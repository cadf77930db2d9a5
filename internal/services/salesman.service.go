package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/repository"
)

type SalesmanStore interface {
	Create(ctx context.Context, s *model.Salesman) (*model.Salesman, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Salesman, error)
	Update(ctx context.Context, s *model.Salesman) (*model.Salesman, error)
	List(ctx context.Context, page, limit int) ([]*model.Salesman, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type SalesmanService struct {
	salesmen SalesmanStore
}

func NewSalesmanService(salesmen SalesmanStore) *SalesmanService {
	return &SalesmanService{salesmen: salesmen}
}

func (s *SalesmanService) Create(ctx context.Context, caller model.Caller, req model.SalesmanCreateRequest) (*model.Salesman, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}
	createdBy := caller.ID
	return s.salesmen.Create(ctx, &model.Salesman{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		CreatedBy:   &createdBy,
	})
}

func (s *SalesmanService) Get(ctx context.Context, id uuid.UUID) (*model.Salesman, error) {
	return s.salesmen.GetByID(ctx, id)
}

func (s *SalesmanService) Update(ctx context.Context, id uuid.UUID, req model.SalesmanUpdateRequest) (*model.Salesman, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	salesman, err := s.salesmen.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		salesman.Name = *req.Name
	}
	if req.PhoneNumber != nil {
		salesman.PhoneNumber = *req.PhoneNumber
	}

	return s.salesmen.Update(ctx, salesman)
}

// AdjustBalance moves a salesman's balance and records why in the audit
// trail.
func (s *SalesmanService) AdjustBalance(ctx context.Context, id uuid.UUID, req model.SalesmanBalanceRequest) (*model.Salesman, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	salesman, err := s.salesmen.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	salesman.Balance += req.Amount
	salesman.BalanceTrail = append(salesman.BalanceTrail, model.BalanceTrailEntry{
		ID:          uuid.New(),
		Amount:      req.Amount,
		Description: req.Description,
		CreatedAt:   time.Now(),
	})

	return s.salesmen.Update(ctx, salesman)
}

func (s *SalesmanService) List(ctx context.Context, page, limit int) (*model.SalesmanPage, error) {
	salesmen, total, err := s.salesmen.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	if page <= 0 {
		page = 1
	}
	return &model.SalesmanPage{
		Data:         salesmen,
		TotalRecords: total,
		TotalPages:   repository.TotalPages(total, limit),
		CurrentPage:  page,
	}, nil
}

func (s *SalesmanService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.salesmen.SoftDelete(ctx, id)
}
