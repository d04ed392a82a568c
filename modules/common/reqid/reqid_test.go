package reqid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestMiddlewareAssignsID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid, got %q", seen)
	}
	if got := rec.Header().Get(Header); got != seen {
		t.Fatalf("header=%q context=%q", got, seen)
	}
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(Header, "client-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "client-123" {
		t.Fatalf("id=%q", seen)
	}
}

func TestFromContextDefault(t *testing.T) {
	if got := FromContext(context.Background()); got != "-" {
		t.Fatalf("got %q", got)
	}
}
