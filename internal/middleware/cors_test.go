package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var (
	testOrigins = []string{"http://localhost:8080", "http://localhost:1234", "http://localhost:3000"}
	testMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}
	testHeaders = []string{"Content-Type", "X-Request-ID"}
)

func TestOriginList_Allows(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    bool
	}{
		{"listed origin", testOrigins, "http://localhost:3000", true},
		{"unlisted origin", testOrigins, "http://evil.example", false},
		{"empty origin", testOrigins, "", false},
		{"scheme must match", testOrigins, "https://localhost:3000", false},
		{"wildcard", []string{"*"}, "http://anything.example", true},
		{"wildcard still rejects empty", []string{"*"}, "", false},
		{"entries are trimmed", []string{" http://a.example "}, "http://a.example", true},
		{"empty list", nil, "http://localhost:3000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewOriginList(tt.origins).Allows(tt.origin); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		origin      string
		wantOrigin  string
		wantMethods string
	}{
		{
			name:       "allowed origin",
			method:     http.MethodGet,
			origin:     "http://localhost:8080",
			wantOrigin: "http://localhost:8080",
		},
		{
			name:   "disallowed origin gets no headers",
			method: http.MethodGet,
			origin: "http://evil.example",
		},
		{
			name:   "no origin",
			method: http.MethodGet,
		},
		{
			name:        "preflight from allowed origin",
			method:      http.MethodOptions,
			origin:      "http://localhost:3000",
			wantOrigin:  "http://localhost:3000",
			wantMethods: "GET,POST,PATCH,DELETE",
		},
		{
			name:        "preflight without origin",
			method:      http.MethodOptions,
			wantMethods: "GET,POST,PATCH,DELETE",
		},
		{
			name:   "preflight from disallowed origin",
			method: http.MethodOptions,
			origin: "http://evil.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			called := false
			handler := CORS(testOrigins, testMethods, testHeaders)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(tt.method, "/movies", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			// Act
			handler.ServeHTTP(w, req)

			// Assert
			if !called {
				t.Error("next handler should always be called")
			}
			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Methods"); got != tt.wantMethods {
				t.Errorf("Allow-Methods = %q, want %q", got, tt.wantMethods)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
				t.Errorf("Allow-Credentials = %q, want empty", got)
			}
			if got := w.Header().Get("Vary"); got != "Origin" {
				t.Errorf("Vary = %q, want Origin", got)
			}
		})
	}
}

func TestCORS_PreflightHeaders(t *testing.T) {
	handler := CORS(testOrigins, testMethods, testHeaders)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodOptions, "/movies/1", nil)
	req.Header.Set("Origin", "http://localhost:1234")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, X-Request-ID" {
		t.Errorf("Allow-Headers = %q, want %q", got, "Content-Type, X-Request-ID")
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Max-Age = %q, want 86400", got)
	}
}
