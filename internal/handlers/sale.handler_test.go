package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/repository"
	"github.com/retailcore/pos-gateway/internal/services"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) CreateSale(ctx context.Context, req model.SaleCreateRequest) (*model.SaleCreateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SaleCreateResult), args.Error(1)
}

func (m *MockLedgerService) ProcessReturn(ctx context.Context, req model.ReturnRequest, returnedBy uuid.UUID) (*model.ReturnResult, error) {
	args := m.Called(ctx, req, returnedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReturnResult), args.Error(1)
}

func (m *MockLedgerService) AppendDebt(ctx context.Context, req model.DebtAppendRequest) (*model.DebtAppendResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DebtAppendResult), args.Error(1)
}

func (m *MockLedgerService) SettleDebt(ctx context.Context, req model.DebtSettleRequest) (*model.DebtSettleResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DebtSettleResult), args.Error(1)
}

func (m *MockLedgerService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) History(ctx context.Context, caller model.Caller, f model.TransactionFilter) (*model.TransactionPage, error) {
	args := m.Called(ctx, caller, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionPage), args.Error(1)
}

func (m *MockQueryService) GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionRecord), args.Error(1)
}

func (m *MockQueryService) GetByInvoice(ctx context.Context, invoiceNumber string) (*model.TransactionRecord, error) {
	args := m.Called(ctx, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionRecord), args.Error(1)
}

func (m *MockQueryService) CustomerHistory(ctx context.Context, customerID uuid.UUID) ([]*model.Transaction, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func decodeEnvelope(t *testing.T, ctx *xhttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func sellerCaller() *model.Caller {
	return &model.Caller{ID: uuid.New(), Role: model.RoleSeller}
}

func validSaleRequest() model.SaleCreateRequest {
	return model.SaleCreateRequest{
		CustomerID: uuid.New(),
		SellerID:   uuid.New(),
		ShopID:     uuid.New(),
		ProductsList: []model.SaleItem{
			{ProductID: uuid.New(), Quantity: 2},
		},
		PaidAmount: 100,
	}
}

func TestSaleHandler_CreateSale(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		ledger := new(MockLedgerService)
		handler := NewSaleHandler(ledger, new(MockQueryService))

		req := validSaleRequest()
		body, _ := json.Marshal(req)

		result := &model.SaleCreateResult{
			Transaction: &model.Transaction{ID: uuid.New(), InvoiceNumber: "INV-00001"},
			Calculated:  model.Breakdown{ActualAmount: 198, PaymentType: model.PaymentFull},
		}
		ledger.On("CreateSale", mock.Anything, mock.MatchedBy(func(r model.SaleCreateRequest) bool {
			return r.CustomerID == req.CustomerID && len(r.ProductsList) == 1
		})).Return(result, nil)

		ctx := setupTestContext("POST", "/api/v1/pos/sale/create", body)
		handler.CreateSale(ctx)

		assert.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode())
		env := decodeEnvelope(t, ctx)
		assert.True(t, env.Success)
		ledger.AssertExpectations(t)
	})

	t.Run("retries a lost invoice race", func(t *testing.T) {
		ledger := new(MockLedgerService)
		handler := NewSaleHandler(ledger, new(MockQueryService))

		req := validSaleRequest()
		body, _ := json.Marshal(req)

		result := &model.SaleCreateResult{
			Transaction: &model.Transaction{ID: uuid.New(), InvoiceNumber: "INV-00002"},
		}
		ledger.On("CreateSale", mock.Anything, mock.Anything).
			Return(nil, repository.ErrDuplicateInvoice).Once()
		ledger.On("CreateSale", mock.Anything, mock.Anything).
			Return(result, nil).Once()

		ctx := setupTestContext("POST", "/api/v1/pos/sale/create", body)
		handler.CreateSale(ctx)

		assert.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode())
		ledger.AssertNumberOfCalls(t, "CreateSale", 2)
	})

	t.Run("gives up after repeated invoice conflicts", func(t *testing.T) {
		ledger := new(MockLedgerService)
		handler := NewSaleHandler(ledger, new(MockQueryService))

		body, _ := json.Marshal(validSaleRequest())
		ledger.On("CreateSale", mock.Anything, mock.Anything).
			Return(nil, repository.ErrDuplicateInvoice)

		ctx := setupTestContext("POST", "/api/v1/pos/sale/create", body)
		handler.CreateSale(ctx)

		assert.Equal(t, xhttp.StatusInternalServerError, ctx.Response.StatusCode())
		ledger.AssertNumberOfCalls(t, "CreateSale", maxCreateRetries)
	})

	t.Run("validation failure returns field errors", func(t *testing.T) {
		ledger := new(MockLedgerService)
		handler := NewSaleHandler(ledger, new(MockQueryService))

		body, _ := json.Marshal(validSaleRequest())
		ledger.On("CreateSale", mock.Anything, mock.Anything).
			Return(nil, &model.ValidationError{Fields: map[string]string{"paidAmount": "must be zero or greater"}})

		ctx := setupTestContext("POST", "/api/v1/pos/sale/create", body)
		handler.CreateSale(ctx)

		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
		env := decodeEnvelope(t, ctx)
		assert.False(t, env.Success)
		assert.Contains(t, env.Errors, "paidAmount")
	})

	t.Run("malformed body", func(t *testing.T) {
		handler := NewSaleHandler(new(MockLedgerService), new(MockQueryService))

		ctx := setupTestContext("POST", "/api/v1/pos/sale/create", []byte("{not json"))
		handler.CreateSale(ctx)

		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
	})

	t.Run("unknown customer maps to 404", func(t *testing.T) {
		ledger := new(MockLedgerService)
		handler := NewSaleHandler(ledger, new(MockQueryService))

		body, _ := json.Marshal(validSaleRequest())
		ledger.On("CreateSale", mock.Anything, mock.Anything).
			Return(nil, repository.ErrCustomerNotFound)

		ctx := setupTestContext("POST", "/api/v1/pos/sale/create", body)
		handler.CreateSale(ctx)

		assert.Equal(t, xhttp.StatusNotFound, ctx.Response.StatusCode())
	})
}

func TestSaleHandler_ProcessReturn(t *testing.T) {
	t.Run("successful return", func(t *testing.T) {
		ledger := new(MockLedgerService)
		handler := NewSaleHandler(ledger, new(MockQueryService))
		caller := sellerCaller()

		req := model.ReturnRequest{
			TransactionID: uuid.New(),
			Products:      []model.ReturnItem{{ProductID: uuid.New(), Quantity: 1}},
		}
		body, _ := json.Marshal(req)

		result := &model.ReturnResult{RefundedAmount: 90}
		ledger.On("ProcessReturn", mock.Anything, mock.Anything, caller.ID).Return(result, nil)

		ctx := setupTestContext("POST", "/api/v1/pos/sale/return", body)
		ctx.SetUserValue(callerKey, caller)
		handler.ProcessReturn(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		ledger.AssertExpectations(t)
	})

	t.Run("unknown line maps to 422", func(t *testing.T) {
		ledger := new(MockLedgerService)
		handler := NewSaleHandler(ledger, new(MockQueryService))
		caller := sellerCaller()

		body, _ := json.Marshal(model.ReturnRequest{
			TransactionID: uuid.New(),
			Products:      []model.ReturnItem{{ProductID: uuid.New(), Quantity: 1}},
		})
		ledger.On("ProcessReturn", mock.Anything, mock.Anything, caller.ID).
			Return(nil, services.ErrLineNotInTransaction)

		ctx := setupTestContext("POST", "/api/v1/pos/sale/return", body)
		ctx.SetUserValue(callerKey, caller)
		handler.ProcessReturn(ctx)

		assert.Equal(t, xhttp.StatusUnprocessableEntity, ctx.Response.StatusCode())
	})

	t.Run("missing caller", func(t *testing.T) {
		handler := NewSaleHandler(new(MockLedgerService), new(MockQueryService))

		ctx := setupTestContext("POST", "/api/v1/pos/sale/return", []byte("{}"))
		handler.ProcessReturn(ctx)

		assert.Equal(t, xhttp.StatusUnauthorized, ctx.Response.StatusCode())
	})
}

func TestSaleHandler_Debt(t *testing.T) {
	t.Run("append", func(t *testing.T) {
		ledger := new(MockLedgerService)
		handler := NewSaleHandler(ledger, new(MockQueryService))

		body, _ := json.Marshal(model.DebtAppendRequest{
			TransactionID: uuid.New(),
			Debt:          []model.DebtItem{{Amount: 50}},
		})
		ledger.On("AppendDebt", mock.Anything, mock.Anything).
			Return(&model.DebtAppendResult{AppendedSum: 50}, nil)

		ctx := setupTestContext("POST", "/api/v1/pos/sale/update", body)
		handler.AppendDebt(ctx)

		assert.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode())
		env := decodeEnvelope(t, ctx)
		assert.Equal(t, "debt recorded", env.Message)
	})

	t.Run("settle already paid", func(t *testing.T) {
		ledger := new(MockLedgerService)
		handler := NewSaleHandler(ledger, new(MockQueryService))

		body, _ := json.Marshal(model.DebtSettleRequest{
			TransactionID: uuid.New(),
			DebtID:        uuid.New(),
		})
		ledger.On("SettleDebt", mock.Anything, mock.Anything).
			Return(&model.DebtSettleResult{AlreadyPaid: true}, nil)

		ctx := setupTestContext("POST", "/api/v1/pos/sale/pay-remaining", body)
		handler.SettleDebt(ctx)

		assert.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode())
		env := decodeEnvelope(t, ctx)
		assert.Equal(t, "debt already settled", env.Message)
	})

	t.Run("settle unknown debt maps to 404", func(t *testing.T) {
		ledger := new(MockLedgerService)
		handler := NewSaleHandler(ledger, new(MockQueryService))

		body, _ := json.Marshal(model.DebtSettleRequest{
			TransactionID: uuid.New(),
			DebtID:        uuid.New(),
		})
		ledger.On("SettleDebt", mock.Anything, mock.Anything).
			Return(nil, services.ErrDebtNotFound)

		ctx := setupTestContext("POST", "/api/v1/pos/sale/pay-remaining", body)
		handler.SettleDebt(ctx)

		assert.Equal(t, xhttp.StatusNotFound, ctx.Response.StatusCode())
	})
}

func TestSaleHandler_History(t *testing.T) {
	t.Run("passes pagination and search through", func(t *testing.T) {
		query := new(MockQueryService)
		handler := NewSaleHandler(new(MockLedgerService), query)
		caller := sellerCaller()

		page := &model.TransactionPage{CurrentPage: 2}
		query.On("History", mock.Anything, *caller, model.TransactionFilter{
			Page: 2, Limit: 10, Search: "INV-00042",
		}).Return(page, nil)

		ctx := setupTestContext("GET", "/api/v1/pos/sale/history?page=2&limit=10&search=INV-00042", nil)
		ctx.SetUserValue(callerKey, caller)
		handler.History(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		query.AssertExpectations(t)
	})

	t.Run("missing caller", func(t *testing.T) {
		handler := NewSaleHandler(new(MockLedgerService), new(MockQueryService))

		ctx := setupTestContext("GET", "/api/v1/pos/sale/history", nil)
		handler.History(ctx)

		assert.Equal(t, xhttp.StatusUnauthorized, ctx.Response.StatusCode())
	})
}

func TestSaleHandler_Lookups(t *testing.T) {
	t.Run("get by id", func(t *testing.T) {
		query := new(MockQueryService)
		handler := NewSaleHandler(new(MockLedgerService), query)

		id := uuid.New()
		query.On("GetByID", mock.Anything, id).
			Return(&model.TransactionRecord{Transaction: model.Transaction{ID: id}}, nil)

		ctx := setupTestContext("GET", "/api/v1/pos/sale/trx/"+id.String(), nil)
		ctx.SetUserValue("id", id.String())
		handler.GetByID(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
	})

	t.Run("bad transaction id", func(t *testing.T) {
		handler := NewSaleHandler(new(MockLedgerService), new(MockQueryService))

		ctx := setupTestContext("GET", "/api/v1/pos/sale/trx/nope", nil)
		ctx.SetUserValue("id", "nope")
		handler.GetByID(ctx)

		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
	})

	t.Run("get by invoice not found", func(t *testing.T) {
		query := new(MockQueryService)
		handler := NewSaleHandler(new(MockLedgerService), query)

		query.On("GetByInvoice", mock.Anything, "INV-99999").
			Return(nil, repository.ErrTransactionNotFound)

		ctx := setupTestContext("GET", "/api/v1/pos/sale/INV-99999", nil)
		ctx.SetUserValue("invoiceNumber", "INV-99999")
		handler.GetByInvoice(ctx)

		assert.Equal(t, xhttp.StatusNotFound, ctx.Response.StatusCode())
	})

	t.Run("customer history", func(t *testing.T) {
		query := new(MockQueryService)
		handler := NewSaleHandler(new(MockLedgerService), query)

		customerID := uuid.New()
		query.On("CustomerHistory", mock.Anything, customerID).
			Return([]*model.Transaction{{ID: uuid.New()}}, nil)

		ctx := setupTestContext("GET", "/api/v1/pos/sale/customer/"+customerID.String(), nil)
		ctx.SetUserValue("customerId", customerID.String())
		handler.CustomerHistory(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
	})
}

func TestSaleHandler_Delete(t *testing.T) {
	t.Run("soft deletes", func(t *testing.T) {
		ledger := new(MockLedgerService)
		handler := NewSaleHandler(ledger, new(MockQueryService))

		id := uuid.New()
		body, _ := json.Marshal(deleteSaleRequest{TransactionID: id})
		ledger.On("Delete", mock.Anything, id).Return(nil)

		ctx := setupTestContext("DELETE", "/api/v1/pos/sale", body)
		handler.Delete(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		ledger.AssertExpectations(t)
	})

	t.Run("missing id", func(t *testing.T) {
		handler := NewSaleHandler(new(MockLedgerService), new(MockQueryService))

		ctx := setupTestContext("DELETE", "/api/v1/pos/sale", []byte(`{}`))
		handler.Delete(ctx)

		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
	})
}

func TestRespondServiceError_Unexpected(t *testing.T) {
	ctx := setupTestContext("GET", "/", nil)
	respondServiceError(ctx, errors.New("disk on fire"))

	assert.Equal(t, xhttp.StatusInternalServerError, ctx.Response.StatusCode())
	env := decodeEnvelope(t, ctx)
	assert.Equal(t, "internal server error", env.Message)
}
