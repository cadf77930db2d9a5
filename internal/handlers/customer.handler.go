package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
)

type CustomerService interface {
	Create(ctx context.Context, caller model.Caller, req model.CustomerCreateRequest) (*model.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	Update(ctx context.Context, id uuid.UUID, req model.CustomerUpdateRequest) (*model.Customer, error)
	List(ctx context.Context, f model.CustomerFilter) (*model.CustomerPage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CustomerHandler struct {
	customers CustomerService
}

func NewCustomerHandler(customers CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

func RegisterCustomerRoutes(e *router.Group, h *CustomerHandler, parser TokenParser) {
	e.POST("/customers", Authenticate(parser, h.Create))
	e.GET("/customers", Authenticate(parser, h.List))
	e.GET("/customers/{id}", Authenticate(parser, h.Get))
	e.PUT("/customers/{id}", Authenticate(parser, h.Update))
	e.DELETE("/customers/{id}", Authenticate(parser, RequireAdmin(h.Delete)))
}

func (h *CustomerHandler) Create(ctx *xhttp.RequestCtx) {
	caller := callerFrom(ctx)
	if caller == nil {
		respondError(ctx, xhttp.StatusUnauthorized, "missing caller identity")
		return
	}

	var req model.CustomerCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	customer, err := h.customers.Create(ctx, *caller, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusCreated, "customer created", customer)
}

func (h *CustomerHandler) Get(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := h.customers.Get(ctx, id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "customer fetched", customer)
}

func (h *CustomerHandler) Update(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid customer id")
		return
	}

	var req model.CustomerUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	customer, err := h.customers.Update(ctx, id, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "customer updated", customer)
}

func (h *CustomerHandler) List(ctx *xhttp.RequestCtx) {
	f := model.CustomerFilter{
		Page:   queryInt(ctx, "page"),
		Limit:  queryInt(ctx, "limit"),
		Search: query(ctx, "search"),
	}

	page, err := h.customers.List(ctx, f)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "customers fetched", page)
}

func (h *CustomerHandler) Delete(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid customer id")
		return
	}

	if err := h.customers.Delete(ctx, id); err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "customer deleted", nil)
}

func queryInt(ctx *xhttp.RequestCtx, key string) int {
	n, _ := strconv.Atoi(query(ctx, key))
	return n
}
