package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
)

type ProductService interface {
	Create(ctx context.Context, caller model.Caller, req model.ProductCreateRequest) (*model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, req model.ProductUpdateRequest) (*model.Product, error)
	List(ctx context.Context, f model.ProductFilter) (*model.ProductPage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductHandler struct {
	products ProductService
}

func NewProductHandler(products ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func RegisterProductRoutes(e *router.Group, h *ProductHandler, parser TokenParser) {
	e.POST("/products", Authenticate(parser, h.Create))
	e.GET("/products", Authenticate(parser, h.List))
	e.GET("/products/{id}", Authenticate(parser, h.Get))
	e.PUT("/products/{id}", Authenticate(parser, h.Update))
	e.DELETE("/products/{id}", Authenticate(parser, RequireAdmin(h.Delete)))
}

func (h *ProductHandler) Create(ctx *xhttp.RequestCtx) {
	caller := callerFrom(ctx)
	if caller == nil {
		respondError(ctx, xhttp.StatusUnauthorized, "missing caller identity")
		return
	}

	var req model.ProductCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	product, err := h.products.Create(ctx, *caller, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusCreated, "product created", product)
}

func (h *ProductHandler) Get(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.products.Get(ctx, id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "product fetched", product)
}

func (h *ProductHandler) Update(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid product id")
		return
	}

	var req model.ProductUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	product, err := h.products.Update(ctx, id, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "product updated", product)
}

func (h *ProductHandler) List(ctx *xhttp.RequestCtx) {
	f := model.ProductFilter{
		Page:   queryInt(ctx, "page"),
		Limit:  queryInt(ctx, "limit"),
		Search: query(ctx, "search"),
	}
	if raw := query(ctx, "shopId"); raw != "" {
		shopID, err := uuid.Parse(raw)
		if err != nil {
			respondError(ctx, xhttp.StatusBadRequest, "invalid shop id")
			return
		}
		f.ShopID = &shopID
	}

	page, err := h.products.List(ctx, f)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "products fetched", page)
}

func (h *ProductHandler) Delete(ctx *xhttp.RequestCtx) {
	id, err := pathUUID(ctx, "id")
	if err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.products.Delete(ctx, id); err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "product deleted", nil)
}
