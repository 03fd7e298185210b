package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsRequest(t *testing.T, allowed []string, method, origin string, preflight bool) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(method, "/sessions", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	rec := httptest.NewRecorder()
	CORS(allowed)(handler).ServeHTTP(rec, req)
	return rec, called
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	rec, called := corsRequest(t, []string{"https://host.example"}, http.MethodGet, "https://host.example", false)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected handler call, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://host.example" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Headers") != corsAllowedHeaders {
		t.Fatalf("expected allow headers header")
	}
}

func TestCORSDeniesUnknownOrigin(t *testing.T) {
	rec, called := corsRequest(t, []string{"https://host.example"}, http.MethodGet, "https://unknown.example", false)
	if !called {
		t.Fatalf("expected request to pass through without cors headers")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin header, got %q", got)
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	rec, _ := corsRequest(t, []string{" * "}, http.MethodGet, "https://random.example", false)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://random.example" {
		t.Fatalf("expected echoed origin, got %q", got)
	}
}

func TestCORSHandlesPreflight(t *testing.T) {
	rec, called := corsRequest(t, []string{"https://host.example"}, http.MethodOptions, "https://host.example", true)
	if called {
		t.Fatalf("expected handler to not be called on preflight")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
}

func TestCORSIgnoresSameOriginRequests(t *testing.T) {
	rec, called := corsRequest(t, nil, http.MethodOptions, "", true)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected non-cors options request to reach handler, got %d", rec.Code)
	}
}
