package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/repository"
)

type CustomerStore interface {
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	Update(ctx context.Context, c *model.Customer) (*model.Customer, error)
	List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type CustomerService struct {
	customers CustomerStore
}

func NewCustomerService(customers CustomerStore) *CustomerService {
	return &CustomerService{customers: customers}
}

func (s *CustomerService) Create(ctx context.Context, caller model.Caller, req model.CustomerCreateRequest) (*model.Customer, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}
	createdBy := caller.ID
	return s.customers.Create(ctx, &model.Customer{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Balance:     req.Balance,
		CreatedBy:   &createdBy,
	})
}

func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req model.CustomerUpdateRequest) (*model.Customer, error) {
	if err := model.Validate(&req); err != nil {
		return nil, err
	}

	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.PhoneNumber != nil {
		customer.PhoneNumber = *req.PhoneNumber
	}
	if req.Address != nil {
		customer.Address = *req.Address
	}
	if req.Balance != nil {
		customer.Balance = *req.Balance
	}

	return s.customers.Update(ctx, customer)
}

func (s *CustomerService) List(ctx context.Context, f model.CustomerFilter) (*model.CustomerPage, error) {
	customers, total, err := s.customers.List(ctx, f)
	if err != nil {
		return nil, err
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}
	return &model.CustomerPage{
		Data:         customers,
		TotalRecords: total,
		TotalPages:   repository.TotalPages(total, f.Limit),
		CurrentPage:  page,
	}, nil
}

func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.customers.SoftDelete(ctx, id)
}
