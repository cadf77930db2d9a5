package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/services"
	xhttp "github.com/retailcore/pos-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResult), args.Error(1)
}

func (m *MockAuthService) ParseToken(token string) (*model.Caller, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Caller), args.Error(1)
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		svc := new(MockAuthService)
		handler := NewAuthHandler(svc)

		req := model.RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "hunter22"}
		body, _ := json.Marshal(req)

		svc.On("Register", mock.Anything, mock.MatchedBy(func(r model.RegisterRequest) bool {
			return r.Email == "asha@example.com"
		})).Return(&model.AuthResult{Token: "tok"}, nil)

		ctx := setupTestContext("POST", "/api/v1/auth/register", body)
		handler.Register(ctx)

		assert.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode())
	})

	t.Run("duplicate email maps to 409", func(t *testing.T) {
		svc := new(MockAuthService)
		handler := NewAuthHandler(svc)

		body, _ := json.Marshal(model.RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "hunter22"})
		svc.On("Register", mock.Anything, mock.Anything).Return(nil, services.ErrEmailTaken)

		ctx := setupTestContext("POST", "/api/v1/auth/register", body)
		handler.Register(ctx)

		assert.Equal(t, xhttp.StatusConflict, ctx.Response.StatusCode())
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("bad credentials map to 401", func(t *testing.T) {
		svc := new(MockAuthService)
		handler := NewAuthHandler(svc)

		body, _ := json.Marshal(model.LoginRequest{Email: "asha@example.com", Password: "wrong"})
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, services.ErrInvalidCredentials)

		ctx := setupTestContext("POST", "/api/v1/auth/login", body)
		handler.Login(ctx)

		assert.Equal(t, xhttp.StatusUnauthorized, ctx.Response.StatusCode())
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("valid token reaches the handler with a caller", func(t *testing.T) {
		parser := new(MockAuthService)
		caller := &model.Caller{ID: uuid.New(), Role: model.RoleAdmin}
		parser.On("ParseToken", "good-token").Return(caller, nil)

		var seen *model.Caller
		wrapped := Authenticate(parser, func(ctx *xhttp.RequestCtx) {
			seen = callerFrom(ctx)
			respond(ctx, xhttp.StatusOK, "ok", nil)
		})

		ctx := setupTestContext("GET", "/api/v1/pos/sale/history", nil)
		ctx.Request.Header.Set("Authorization", "Bearer good-token")
		wrapped(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, caller, seen)
	})

	t.Run("missing header", func(t *testing.T) {
		wrapped := Authenticate(new(MockAuthService), func(ctx *xhttp.RequestCtx) {
			t.Fatal("handler must not run")
		})

		ctx := setupTestContext("GET", "/api/v1/pos/sale/history", nil)
		wrapped(ctx)

		assert.Equal(t, xhttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("rejected token", func(t *testing.T) {
		parser := new(MockAuthService)
		parser.On("ParseToken", "bad-token").Return(nil, services.ErrInvalidToken)

		wrapped := Authenticate(parser, func(ctx *xhttp.RequestCtx) {
			t.Fatal("handler must not run")
		})

		ctx := setupTestContext("GET", "/api/v1/pos/sale/history", nil)
		ctx.Request.Header.Set("Authorization", "Bearer bad-token")
		wrapped(ctx)

		assert.Equal(t, xhttp.StatusUnauthorized, ctx.Response.StatusCode())
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Run("seller is rejected", func(t *testing.T) {
		wrapped := RequireAdmin(func(ctx *xhttp.RequestCtx) {
			t.Fatal("handler must not run")
		})

		ctx := setupTestContext("DELETE", "/api/v1/pos/sale", nil)
		ctx.SetUserValue(callerKey, sellerCaller())
		wrapped(ctx)

		assert.Equal(t, xhttp.StatusForbidden, ctx.Response.StatusCode())
	})

	t.Run("admin passes", func(t *testing.T) {
		called := false
		wrapped := RequireAdmin(func(ctx *xhttp.RequestCtx) {
			called = true
			respond(ctx, xhttp.StatusOK, "ok", nil)
		})

		ctx := setupTestContext("DELETE", "/api/v1/pos/sale", nil)
		ctx.SetUserValue(callerKey, &model.Caller{ID: uuid.New(), Role: model.RoleAdmin})
		wrapped(ctx)

		assert.True(t, called)
		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
	})
}
