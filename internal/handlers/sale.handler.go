package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/repository"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
)

// invoice races are rare; a couple of retries is plenty
const maxCreateRetries = 3

type LedgerService interface {
	CreateSale(ctx context.Context, req model.SaleCreateRequest) (*model.SaleCreateResult, error)
	ProcessReturn(ctx context.Context, req model.ReturnRequest, returnedBy uuid.UUID) (*model.ReturnResult, error)
	AppendDebt(ctx context.Context, req model.DebtAppendRequest) (*model.DebtAppendResult, error)
	SettleDebt(ctx context.Context, req model.DebtSettleRequest) (*model.DebtSettleResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type QueryService interface {
	History(ctx context.Context, caller model.Caller, f model.TransactionFilter) (*model.TransactionPage, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionRecord, error)
	GetByInvoice(ctx context.Context, invoiceNumber string) (*model.TransactionRecord, error)
	CustomerHistory(ctx context.Context, customerID uuid.UUID) ([]*model.Transaction, error)
}

type SaleHandler struct {
	ledger LedgerService
	query  QueryService
}

func NewSaleHandler(ledger LedgerService, query QueryService) *SaleHandler {
	return &SaleHandler{
		ledger: ledger,
		query:  query,
	}
}

func RegisterSaleRoutes(e *router.Group, h *SaleHandler, parser TokenParser) {
	e.POST("/pos/sale/create", Authenticate(parser, h.CreateSale))
	e.POST("/pos/sale/update", Authenticate(parser, h.AppendDebt))
	e.POST("/pos/sale/pay-remaining", Authenticate(parser, h.SettleDebt))
	e.POST("/pos/sale/return", Authenticate(parser, h.ProcessReturn))
	e.GET("/pos/sale/history", Authenticate(parser, h.History))
	e.GET("/pos/sale/trx/{id}", Authenticate(parser, h.GetByID))
	e.GET("/pos/sale/customer/{customerId}", Authenticate(parser, h.CustomerHistory))
	e.GET("/pos/sale/{invoiceNumber}", Authenticate(parser, h.GetByInvoice))
	e.DELETE("/pos/sale", Authenticate(parser, RequireAdmin(h.Delete)))
}

func (h *SaleHandler) CreateSale(ctx *xhttp.RequestCtx) {
	var req model.SaleCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	// concurrent sales can race on the next invoice number; the store's
	// uniqueness constraint rejects the loser and we try again
	var result *model.SaleCreateResult
	var err error
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		result, err = h.ledger.CreateSale(ctx, req)
		if !errors.Is(err, repository.ErrDuplicateInvoice) {
			break
		}
	}
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusCreated, "transaction created", result)
}

func (h *SaleHandler) AppendDebt(ctx *xhttp.RequestCtx) {
	var req model.DebtAppendRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := h.ledger.AppendDebt(ctx, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	message := "debt recorded"
	if result.AppendedSum == 0 {
		message = "no debt to add"
	}
	respond(ctx, xhttp.StatusCreated, message, result)
}

func (h *SaleHandler) SettleDebt(ctx *xhttp.RequestCtx) {
	var req model.DebtSettleRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := h.ledger.SettleDebt(ctx, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	message := "debt settled"
	if result.AlreadyPaid {
		message = "debt already settled"
	}
	respond(ctx, xhttp.StatusCreated, message, result)
}

func (h *SaleHandler) ProcessReturn(ctx *xhttp.RequestCtx) {
	caller := callerFrom(ctx)
	if caller == nil {
		respondError(ctx, xhttp.StatusUnauthorized, "missing caller identity")
		return
	}

	var req model.ReturnRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := h.ledger.ProcessReturn(ctx, req, caller.ID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "return processed", result)
}

func (h *SaleHandler) History(ctx *xhttp.RequestCtx) {
	caller := callerFrom(ctx)
	if caller == nil {
		respondError(ctx, xhttp.StatusUnauthorized, "missing caller identity")
		return
	}

	f := model.TransactionFilter{
		Page:   queryInt(ctx, "page"),
		Limit:  queryInt(ctx, "limit"),
		Search: query(ctx, "search"),
	}

	page, err := h.query.History(ctx, *caller, f)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "transactions fetched", page)
}

func (h *SaleHandler) GetByID(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid transaction id")
		return
	}

	record, err := h.query.GetByID(ctx, id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "transaction fetched", record)
}

func (h *SaleHandler) GetByInvoice(ctx *xhttp.RequestCtx) {
	invoiceNumber, _ := ctx.UserValue("invoiceNumber").(string)
	if invoiceNumber == "" {
		respondError(ctx, xhttp.StatusBadRequest, "invoice number is required")
		return
	}

	record, err := h.query.GetByInvoice(ctx, invoiceNumber)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "transaction fetched", record)
}

func (h *SaleHandler) CustomerHistory(ctx *xhttp.RequestCtx) {
	customerID, err := pathUUID(ctx, "customerId")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid customer id")
		return
	}

	history, err := h.query.CustomerHistory(ctx, customerID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "transactions fetched", history)
}

type deleteSaleRequest struct {
	TransactionID uuid.UUID `json:"transactionId"`
}

func (h *SaleHandler) Delete(ctx *xhttp.RequestCtx) {
	var req deleteSaleRequest
	if err := readJSON(ctx, &req); err != nil || req.TransactionID == uuid.Nil {
		respondError(ctx, xhttp.StatusBadRequest, "transactionId is required")
		return
	}

	if err := h.ledger.Delete(ctx, req.TransactionID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "transaction deleted", nil)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func pathUUID(ctx *xhttp.RequestCtx, key string) (uuid.UUID, error) {
	raw, _ := ctx.UserValue(key).(string)
	return uuid.Parse(raw)
}
