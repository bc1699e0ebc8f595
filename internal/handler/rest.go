package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/movies-api/internal/events"
	"github.com/vyrodovalexey/movies-api/internal/model"
	"github.com/vyrodovalexey/movies-api/internal/store"
	"github.com/vyrodovalexey/movies-api/internal/validation"
)

// Operation results recorded in movie_operations_total.
const (
	resultSuccess  = "success"
	resultInvalid  = "invalid"
	resultNotFound = "not_found"
	resultError    = "error"
)

var movieOperations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "movie_operations_total",
		Help: "Movie write operations by outcome",
	},
	[]string{"operation", "result"},
)

// GenreQueryParam is the query parameter filtering GET /movies by genre.
const GenreQueryParam = "Genre"

// RESTHandler handles REST API requests for movies.
type RESTHandler struct {
	store     store.Store
	publisher events.Publisher
	logger    *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance. The publisher may be
// nil, in which case changes are not announced.
func NewRESTHandler(s store.Store, publisher events.Publisher, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		store:     s,
		publisher: publisher,
		logger:    logger,
	}
}

// RegisterRoutes registers the movie routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Root).Methods(http.MethodGet)
	router.HandleFunc("/movies", h.ListMovies).Methods(http.MethodGet)
	router.HandleFunc("/movies", h.CreateMovie).Methods(http.MethodPost)
	router.HandleFunc("/movies", h.Preflight).Methods(http.MethodOptions)
	router.HandleFunc("/movies/{id}", h.GetMovie).Methods(http.MethodGet)
	router.HandleFunc("/movies/{id}", h.UpdateMovie).Methods(http.MethodPatch)
	router.HandleFunc("/movies/{id}", h.DeleteMovie).Methods(http.MethodDelete)
	router.HandleFunc("/movies/{id}", h.Preflight).Methods(http.MethodOptions)
}

// RegisterProbeRoutes registers the health and readiness routes.
func (h *RESTHandler) RegisterProbeRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
}

// Root handles GET / requests.
func (h *RESTHandler) Root(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.MessageResponse{Message: msgRoot})
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// ReadyCheck handles GET /ready requests.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Len(r.Context())
	if err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "unavailable"})
		return
	}

	h.writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready", Movies: n})
}

// ListMovies handles GET /movies requests, optionally filtered by genre.
func (h *RESTHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{Genre: r.URL.Query().Get(GenreQueryParam)}

	movies, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list movies", zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	h.writeJSON(w, http.StatusOK, movies)
}

// GetMovie handles GET /movies/{id} requests.
func (h *RESTHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	movie, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, err, "get movie", msgMovieNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, movie)
}

// CreateMovie handles POST /movies requests.
func (h *RESTHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	const op = "create"

	payload, ok := h.decodePayload(w, r)
	if !ok {
		movieOperations.WithLabelValues(op, resultInvalid).Inc()
		return
	}

	input, err := validation.Validate(payload)
	if err != nil {
		movieOperations.WithLabelValues(op, resultInvalid).Inc()
		h.writeValidationError(w, err)
		return
	}

	movie, err := h.store.Create(r.Context(), &input)
	if err != nil {
		h.recordFailure(op, err)
		h.handleStoreError(w, err, "create movie", msgMovieNotFoundCap)
		return
	}

	movieOperations.WithLabelValues(op, resultSuccess).Inc()
	h.publish(model.MovieCreated, movie)
	h.writeJSON(w, http.StatusCreated, movie)
}

// UpdateMovie handles PATCH /movies/{id} requests. The payload is validated
// before the movie is looked up.
func (h *RESTHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	const op = "update"
	id := mux.Vars(r)["id"]

	payload, ok := h.decodePayload(w, r)
	if !ok {
		movieOperations.WithLabelValues(op, resultInvalid).Inc()
		return
	}

	patch, err := validation.ValidatePartial(payload)
	if err != nil {
		movieOperations.WithLabelValues(op, resultInvalid).Inc()
		h.writeValidationError(w, err)
		return
	}

	movie, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		h.recordFailure(op, err)
		h.handleStoreError(w, err, "update movie", msgMovieNotFoundCap)
		return
	}

	movieOperations.WithLabelValues(op, resultSuccess).Inc()
	h.publish(model.MovieUpdated, movie)
	h.writeJSON(w, http.StatusOK, movie)
}

// DeleteMovie handles DELETE /movies/{id} requests.
func (h *RESTHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	const op = "delete"
	id := mux.Vars(r)["id"]

	movie, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.recordFailure(op, err)
		h.handleStoreError(w, err, "delete movie", msgMovieNotFoundCap)
		return
	}

	movieOperations.WithLabelValues(op, resultSuccess).Inc()
	h.publish(model.MovieDeleted, movie)
	h.writeMessage(w, http.StatusOK, msgMovieDeleted)
}

// Preflight handles OPTIONS requests. CORS headers are set by the CORS
// middleware; the preflight itself always succeeds.
func (h *RESTHandler) Preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// decodePayload reads a JSON object from the request body. On failure it
// writes a 400 response and returns false.
func (h *RESTHandler) decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var payload map[string]any

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&payload); err != nil || payload == nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}

	return payload, true
}

// writeValidationError writes the field errors of a failed validation.
func (h *RESTHandler) writeValidationError(w http.ResponseWriter, err error) {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		h.logger.Error("unexpected validation failure", zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	h.logger.Debug("validation failed", zap.Strings("fields", verrs.Fields()))
	h.writeJSON(w, http.StatusBadRequest, model.ValidationErrorResponse{Errors: verrs})
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation, notFoundMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeMessage(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, store.ErrInvalidID):
		h.writeMessage(w, http.StatusBadRequest, msgInvalidID)
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeMessage(w, http.StatusInternalServerError, msgInternalError)
	}
}

func (h *RESTHandler) recordFailure(op string, err error) {
	result := resultError
	if errors.Is(err, store.ErrNotFound) {
		result = resultNotFound
	}
	movieOperations.WithLabelValues(op, result).Inc()
}

func (h *RESTHandler) publish(eventType model.MovieEventType, movie *model.Movie) {
	if h.publisher == nil {
		return
	}
	h.publisher.Publish(model.NewMovieEvent(eventType, *movie))
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeMessage writes a {"message": ...} body with the given status code.
func (h *RESTHandler) writeMessage(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.MessageResponse{Message: message})
}
