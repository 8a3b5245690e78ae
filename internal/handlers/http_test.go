package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/pairsync/internal/errors"
)

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error passes through", BadRequest("nope"), http.StatusBadRequest, ErrCodeBadRequest},
		{"not found", errors.NotFound("form kind"), http.StatusNotFound, ErrCodeNotFound},
		{"invalid input", errors.InvalidInput("bad control"), http.StatusBadRequest, ErrCodeValidation},
		{"network", errors.Network(stderrors.New("refused")), http.StatusBadGateway, ErrCodeBadGateway},
		{"bad response", errors.BadResponse(500, ""), http.StatusBadGateway, ErrCodeBadGateway},
		{"wrapped decode", fmt.Errorf("teams: %w", errors.Decode(stderrors.New("eof"))), http.StatusBadGateway, ErrCodeBadGateway},
		{"internal", errors.Internal(stderrors.New("boom")), http.StatusInternalServerError, ErrCodeInternalServer},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError, ErrCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := ToAPIError(tt.err)
			if apiErr.Status != tt.status || apiErr.Code != tt.code {
				t.Errorf("ToAPIError() = %d/%s, want %d/%s", apiErr.Status, apiErr.Code, tt.status, tt.code)
			}
		})
	}
}

func TestToAPIError_InternalHidesDetails(t *testing.T) {
	apiErr := ToAPIError(stderrors.New("template: missing content"))
	if apiErr.Message != "Internal server error" {
		t.Errorf("expected generic message, got %q", apiErr.Message)
	}
}

func TestParseKindParam(t *testing.T) {
	tests := []struct {
		param   string
		wantErr bool
	}{
		{"match", false},
		{"team", false},
		{"player", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/forms/"+tt.param, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("kind", tt.param)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			kind, err := parseKindParam(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseKindParam() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(kind) != tt.param {
				t.Errorf("expected kind %q, got %q", tt.param, kind)
			}
		})
	}
}

func TestConditionalHTTPLogger(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		h := &Handlers{Log: toggleLogger(enabled)}
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		rec := httptest.NewRecorder()
		h.conditionalHTTPLogger(next).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		if !called {
			t.Errorf("expected next handler to run with logging=%v", enabled)
		}
	}
}

type toggleLogger bool

func (l toggleLogger) IsHTTPLoggingEnabled() bool { return bool(l) }
