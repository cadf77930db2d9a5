package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
)

type SalesmanService interface {
	Create(ctx context.Context, caller model.Caller, req model.SalesmanCreateRequest) (*model.Salesman, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Salesman, error)
	Update(ctx context.Context, id uuid.UUID, req model.SalesmanUpdateRequest) (*model.Salesman, error)
	AdjustBalance(ctx context.Context, id uuid.UUID, req model.SalesmanBalanceRequest) (*model.Salesman, error)
	List(ctx context.Context, page, limit int) (*model.SalesmanPage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SalesmanHandler struct {
	salesmen SalesmanService
}

func NewSalesmanHandler(salesmen SalesmanService) *SalesmanHandler {
	return &SalesmanHandler{salesmen: salesmen}
}

func RegisterSalesmanRoutes(e *router.Group, h *SalesmanHandler, parser TokenParser) {
	e.POST("/salesmen", Authenticate(parser, h.Create))
	e.GET("/salesmen", Authenticate(parser, h.List))
	e.GET("/salesmen/{id}", Authenticate(parser, h.Get))
	e.PUT("/salesmen/{id}", Authenticate(parser, h.Update))
	e.POST("/salesmen/{id}/balance", Authenticate(parser, h.AdjustBalance))
	e.DELETE("/salesmen/{id}", Authenticate(parser, RequireAdmin(h.Delete)))
}

func (h *SalesmanHandler) Create(ctx *xhttp.RequestCtx) {
	caller := callerFrom(ctx)
	if caller == nil {
		respondError(ctx, xhttp.StatusUnauthorized, "missing caller identity")
		return
	}

	var req model.SalesmanCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	salesman, err := h.salesmen.Create(ctx, *caller, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusCreated, "salesman created", salesman)
}

func (h *SalesmanHandler) Get(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid salesman id")
		return
	}

	salesman, err := h.salesmen.Get(ctx, id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "salesman fetched", salesman)
}

func (h *SalesmanHandler) Update(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid salesman id")
		return
	}

	var req model.SalesmanUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	salesman, err := h.salesmen.Update(ctx, id, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "salesman updated", salesman)
}

func (h *SalesmanHandler) AdjustBalance(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid salesman id")
		return
	}

	var req model.SalesmanBalanceRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	salesman, err := h.salesmen.AdjustBalance(ctx, id, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "salesman balance updated", salesman)
}

func (h *SalesmanHandler) List(ctx *xhttp.RequestCtx) {
	page, err := h.salesmen.List(ctx, queryInt(ctx, "page"), queryInt(ctx, "limit"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "salesmen fetched", page)
}

func (h *SalesmanHandler) Delete(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid salesman id")
		return
	}

	if err := h.salesmen.Delete(ctx, id); err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "salesman deleted", nil)
}
