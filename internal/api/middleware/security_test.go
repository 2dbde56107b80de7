package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	for _, header := range []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Content-Security-Policy",
		"Strict-Transport-Security",
	} {
		if rec.Header().Get(header) == "" {
			t.Fatalf("missing %s header", header)
		}
	}
}

func TestValidateRequestRejectsWrongContentType(t *testing.T) {
	req := httptest.NewRequest("POST", "/chat/message", strings.NewReader("text=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	ValidateRequest(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestValidateRequestRejectsSuspiciousQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/health?q=<script>alert(1)", nil)

	rec := httptest.NewRecorder()
	ValidateRequest(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMaxBodySize(t *testing.T) {
	body := strings.Repeat("a", 100)
	req := httptest.NewRequest("POST", "/chat/message", strings.NewReader(body))
	req.ContentLength = int64(len(body))

	rec := httptest.NewRecorder()
	MaxBodySize(10)(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}
