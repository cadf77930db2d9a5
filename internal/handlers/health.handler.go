package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/retailcore/pos-gateway/internal/services"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
)

type HealthChecker interface {
	Check(ctx context.Context) services.HealthStatus
}

type HealthHandler struct {
	health HealthChecker
}

func NewHealthHandler(health HealthChecker) *HealthHandler {
	return &HealthHandler{health: health}
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.Check)
}

func (h *HealthHandler) Check(ctx *xhttp.RequestCtx) {
	status := h.health.Check(ctx)
	if !status.Healthy() {
		respond(ctx, xhttp.StatusServiceUnavailable, "degraded", status)
		return
	}
	respond(ctx, xhttp.StatusOK, "ok", status)
}
