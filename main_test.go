package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"scene-studio-server/modules/common/config"
	"scene-studio-server/modules/common/reqid"
	"scene-studio-server/modules/inject"
)

func testRouter(t *testing.T) (http.Handler, *ServerMetrics) {
	t.Helper()
	injector := inject.Setup(&config.Config{
		ImageModels:       config.DefaultImageModels,
		TextModels:        config.DefaultTextModels,
		GeminiMaxAttempts: 1,
	})
	t.Cleanup(func() { inject.Close(injector) })
	metrics := newServerMetrics()
	return newRouter(injector, metrics), metrics
}

func TestHealthCheck(t *testing.T) {
	r, _ := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" || body["service"] != "scene-studio" {
		t.Fatalf("body=%v", body)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("cors header missing")
	}
	if rec.Header().Get(reqid.Header) == "" {
		t.Fatalf("request id missing")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	r, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(reqid.Header, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(reqid.Header); got != "abc-123" {
		t.Fatalf("request id=%q", got)
	}
}

func TestPreflight(t *testing.T) {
	r, _ := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/generate-all", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Fatalf("allow methods=%q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestMetricsCountsErrors(t *testing.T) {
	r, metrics := testRouter(t)

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/connect", strings.NewReader(`{}`)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	var body struct {
		TotalRequests int            `json:"totalRequests"`
		Errors        int            `json:"errors"`
		ByPath        map[string]int `json:"byPath"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	// /metrics itself is counted before the snapshot
	if body.TotalRequests != 4 || body.Errors != 1 {
		t.Fatalf("metrics=%+v", body)
	}
	if body.ByPath["/health"] != 2 || body.ByPath["/api/connect"] != 1 {
		t.Fatalf("byPath=%v", body.ByPath)
	}
	if metrics.ActiveRequests != 0 {
		t.Fatalf("active=%d", metrics.ActiveRequests)
	}
}

func TestIndexServed(t *testing.T) {
	r, _ := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Scene Studio") {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestUnmatchedRoutesGetMiddleware(t *testing.T) {
	r, metrics := testRouter(t)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/api/connect", http.StatusMethodNotAllowed},
		{http.MethodOptions, "/health", http.StatusOK},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))
		if rec.Code != c.status {
			t.Fatalf("%s %s status=%d want %d", c.method, c.path, rec.Code, c.status)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("%s %s missing cors header", c.method, c.path)
		}
		if rec.Header().Get(reqid.Header) == "" {
			t.Fatalf("%s %s missing request id", c.method, c.path)
		}
	}

	metrics.mutex.RLock()
	defer metrics.mutex.RUnlock()
	if metrics.TotalRequests != 3 || metrics.Errors != 2 {
		t.Fatalf("total=%d errors=%d", metrics.TotalRequests, metrics.Errors)
	}
	if metrics.ByPath[unmatchedPath] != 1 || metrics.ByPath["/nope"] != 0 {
		t.Fatalf("byPath=%v", metrics.ByPath)
	}
}
