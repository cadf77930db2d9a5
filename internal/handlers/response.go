package handlers

import (
	"encoding/json"
	"errors"

	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/repository"
	"github.com/retailcore/pos-gateway/internal/services"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
	"github.com/retailcore/pos-gateway/pkg/logger"
)

// envelope is the uniform response shape: {success, message, data} on
// success, {success, message, errors} on failure.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func respond(ctx *xhttp.RequestCtx, status int, message string, data interface{}) {
	writeJSON(ctx, status, envelope{Success: true, Message: message, Data: data})
}

func respondError(ctx *xhttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, envelope{Success: false, Message: message})
}

// respondServiceError maps the error taxonomy onto HTTP statuses: missing
// aggregates are 404, rejected input 400, broken business rules 422, anything
// unexpected a logged 500.
func respondServiceError(ctx *xhttp.RequestCtx, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(ctx, xhttp.StatusBadRequest, envelope{
			Success: false,
			Message: "validation failed",
			Errors:  verr.Fields,
		})
		return
	}

	switch {
	case isNotFound(err):
		respondError(ctx, xhttp.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrProductMismatch),
		errors.Is(err, services.ErrNothingToReturn),
		errors.Is(err, services.ErrLineNotInTransaction):
		respondError(ctx, xhttp.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		respondError(ctx, xhttp.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		respondError(ctx, xhttp.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrAccountNotApproved):
		respondError(ctx, xhttp.StatusForbidden, err.Error())
	default:
		logger.Error("request failed", "error", err.Error())
		respondError(ctx, xhttp.StatusInternalServerError, "internal server error")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrCustomerNotFound) ||
		errors.Is(err, repository.ErrShopNotFound) ||
		errors.Is(err, repository.ErrProductNotFound) ||
		errors.Is(err, repository.ErrSalesmanNotFound) ||
		errors.Is(err, repository.ErrTransactionNotFound) ||
		errors.Is(err, repository.ErrUserNotFound) ||
		errors.Is(err, services.ErrDebtNotFound)
}
