package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/retailcore/pos-gateway/internal/model"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
)

type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResult, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResult, error)
	ParseToken(tokenString string) (*model.Caller, error)
}

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func RegisterAuthRoutes(e *router.Group, h *AuthHandler) {
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
	e.GET("/auth/me", Authenticate(h.auth, h.Me))
}

func (h *AuthHandler) Register(ctx *xhttp.RequestCtx) {
	var req model.RegisterRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := h.auth.Register(ctx, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusCreated, "user registered", result)
}

func (h *AuthHandler) Login(ctx *xhttp.RequestCtx) {
	var req model.LoginRequest
	if err := readJSON(ctx, &req); err != nil {
		respondError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := h.auth.Login(ctx, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	respond(ctx, xhttp.StatusOK, "login successful", result)
}

func (h *AuthHandler) Me(ctx *xhttp.RequestCtx) {
	caller := callerFrom(ctx)
	if caller == nil {
		respondError(ctx, xhttp.StatusUnauthorized, "missing caller identity")
		return
	}

	respond(ctx, xhttp.StatusOK, "caller fetched", caller)
}
