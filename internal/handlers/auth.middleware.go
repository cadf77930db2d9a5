package handlers

import (
	"strings"

	"github.com/retailcore/pos-gateway/internal/model"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
)

const callerKey = "caller"

type TokenParser interface {
	ParseToken(token string) (*model.Caller, error)
}

// Authenticate rejects requests without a valid bearer token and attaches
// the caller identity to the request context.
func Authenticate(parser TokenParser, next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		header := string(ctx.Request.Header.Peek("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(ctx, xhttp.StatusUnauthorized, "missing bearer token")
			return
		}

		caller, err := parser.ParseToken(token)
		if err != nil {
			respondError(ctx, xhttp.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx.SetUserValue(callerKey, caller)
		next(ctx)
	}
}

// RequireAdmin wraps an already-authenticated handler.
func RequireAdmin(next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		if caller := callerFrom(ctx); caller == nil || !caller.IsAdmin() {
			respondError(ctx, xhttp.StatusForbidden, "admin access required")
			return
		}
		next(ctx)
	}
}

func callerFrom(ctx *xhttp.RequestCtx) *model.Caller {
	if caller, ok := ctx.UserValue(callerKey).(*model.Caller); ok {
		return caller
	}
	return nil
}
