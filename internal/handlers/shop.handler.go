package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
)

type ShopService interface {
	Create(ctx context.Context, caller model.Caller, req model.ShopCreateRequest) (*model.Shop, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Shop, error)
	Update(ctx context.Context, id uuid.UUID, req model.ShopUpdateRequest) (*model.Shop, error)
	List(ctx context.Context, page, limit int) (*model.ShopPage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ShopHandler struct {
	shops ShopService
}

func NewShopHandler(shops ShopService) *ShopHandler {
	return &ShopHandler{shops: shops}
}

func RegisterShopRoutes(e *router.Group, h *ShopHandler, parser TokenParser) {
	e.POST("/shops", Authenticate(parser, RequireAdmin(h.Create)))
	e.GET("/shops", Authenticate(parser, h.List))
	e.GET("/shops/{id}", Authenticate(parser, h.Get))
	e.PUT("/shops/{id}", Authenticate(parser, RequireAdmin(h.Update)))
	e.DELETE("/shops/{id}", Authenticate(parser, RequireAdmin(h.Delete)))
}

func (h *ShopHandler) Create(ctx *xhttp.RequestCtx) {
	caller := callerFrom(ctx)
	if caller == nil {
		respondError(ctx, xhttp.StatusUnauthorized, "missing caller identity")
		return
	}

	var req model.ShopCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	shop, err := h.shops.Create(ctx, *caller, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusCreated, "shop created", shop)
}

func (h *ShopHandler) Get(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid shop id")
		return
	}

	shop, err := h.shops.Get(ctx, id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "shop fetched", shop)
}

func (h *ShopHandler) Update(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid shop id")
		return
	}

	var req model.ShopUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	shop, err := h.shops.Update(ctx, id, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "shop updated", shop)
}

func (h *ShopHandler) List(ctx *xhttp.RequestCtx) {
	page, err := h.shops.List(ctx, queryInt(ctx, "page"), queryInt(ctx, "limit"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "shops fetched", page)
}

func (h *ShopHandler) Delete(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid shop id")
		return
	}

	if err := h.shops.Delete(ctx, id); err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "shop deleted", nil)
}
