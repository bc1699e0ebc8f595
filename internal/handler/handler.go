// Package handler provides HTTP request handlers for the movies API.
package handler

// Version is the application version.
const Version = "1.0.0"

// maxBodyBytes caps the size of request bodies.
const maxBodyBytes = 1 << 20

// Response messages.
const (
	msgRoot             = "a"
	msgMovieNotFound    = "movie not found"
	msgMovieNotFoundCap = "Movie not found"
	msgMovieDeleted     = "Movie deleted"
	msgInvalidBody      = "invalid request body"
	msgInvalidID        = "invalid movie ID"
	msgInternalError    = "internal server error"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
	Movies int    `json:"movies"`
}
