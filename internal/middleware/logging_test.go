package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel zapcore.Level
	}{
		{"success is info", "/movies", http.StatusOK, zapcore.InfoLevel},
		{"not found is info", "/movies/abc", http.StatusNotFound, zapcore.InfoLevel},
		{"server error is error", "/movies", http.StatusInternalServerError, zapcore.ErrorLevel},
		{"probe is debug", "/health", http.StatusOK, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			core, logs := observer.New(zapcore.DebugLevel)
			handler := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			// Act
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			// Assert
			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("log entries = %d, want 1", len(entries))
			}
			if entries[0].Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", entries[0].Level, tt.wantLevel)
			}
			fields := entries[0].ContextMap()
			if fields["status"] != int64(tt.status) {
				t.Errorf("status field = %v, want %d", fields["status"], tt.status)
			}
			if fields["bytes"] != int64(4) {
				t.Errorf("bytes field = %v, want 4", fields["bytes"])
			}
		})
	}
}

func TestLogging_RouteTemplate(t *testing.T) {
	// Arrange
	core, logs := observer.New(zapcore.InfoLevel)
	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(Logging(zap.New(core))))
	router.HandleFunc("/movies/{id}", func(w http.ResponseWriter, r *http.Request) {}).Methods(http.MethodGet)

	// Act
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/movies/42", nil))

	// Assert
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	if route := entries[0].ContextMap()["route"]; route != "/movies/{id}" {
		t.Errorf("route = %v, want /movies/{id}", route)
	}
}
