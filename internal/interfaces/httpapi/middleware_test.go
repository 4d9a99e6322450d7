package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fanstake/squad-ledger/internal/domain/access"
)

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS([]string{"https://fanstake.example.com"}, next)

	req := httptest.NewRequest(http.MethodGet, "/v1/squads/count", nil)
	req.Header.Set("Origin", "https://fanstake.example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://fanstake.example.com" {
		t.Fatalf("unexpected Access-Control-Allow-Origin: %q", got)
	}
}

func TestCORS_OptionsPreflight(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS([]string{"*"}, next)

	req := httptest.NewRequest(http.MethodOptions, "/v1/squads", nil)
	req.Header.Set("Origin", "https://fanstake.example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected Access-Control-Allow-Origin: %q", got)
	}
}

func TestCORS_DisallowsUnconfiguredOrigin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORS([]string{"https://allowed.example.com"}, next)

	req := httptest.NewRequest(http.MethodGet, "/v1/squads/count", nil)
	req.Header.Set("Origin", "https://not-allowed.example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected empty Access-Control-Allow-Origin, got %q", got)
	}
}

type stubVerifier struct {
	principal access.Principal
	err       error
}

func (v stubVerifier) VerifyAccessToken(_ context.Context, _ string) (access.Principal, error) {
	return v.principal, v.err
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler must not run")
	})
	handler := RequireAuth(stubVerifier{}, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/squads", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler must not run")
	})
	handler := RequireAuth(stubVerifier{}, next)

	for _, header := range []string{"Basic abc123", "Bearer", "Bearer   "} {
		req := httptest.NewRequest(http.MethodPost, "/v1/squads", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected status 401, got %d", header, rec.Code)
		}
	}
}

func TestRequireAuth_VerifierFailurePropagates(t *testing.T) {
	verifier := stubVerifier{err: fmt.Errorf("%w: token expired", errUnauthenticated)}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler must not run")
	})
	handler := RequireAuth(verifier, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/squads", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_AttachesPrincipal(t *testing.T) {
	verifier := stubVerifier{principal: access.Principal{Address: "0xalice"}}

	var seen access.Principal
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = principalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(verifier, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/squads", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !ok || seen.Address != "0xalice" {
		t.Fatalf("expected principal on context, got ok=%t %+v", ok, seen)
	}
}
