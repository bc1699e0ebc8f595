// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/movies-api/internal/config"
	"github.com/vyrodovalexey/movies-api/internal/events"
	"github.com/vyrodovalexey/movies-api/internal/handler"
	"github.com/vyrodovalexey/movies-api/internal/middleware"
	"github.com/vyrodovalexey/movies-api/internal/store"
)

// CORS methods and headers advertised to browsers.
var (
	corsAllowedMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsAllowedHeaders = []string{
		"Content-Type",
		middleware.RequestIDHeader,
	}
)

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	probeServer *http.Server
	router      *mux.Router
	probeRouter *mux.Router
	config      *config.Config
	logger      *zap.Logger
	broker      *events.Broker
	restHandler *handler.RESTHandler
	wsHandler   *handler.WebSocketHandler
}

// New creates a new Server instance. A nil broker is replaced by a fresh one.
func New(cfg *config.Config, logger *zap.Logger, movieStore store.Store, broker *events.Broker) *Server {
	if broker == nil {
		broker = events.NewBroker()
	}

	s := &Server{
		router:      mux.NewRouter(),
		probeRouter: mux.NewRouter(),
		config:      cfg,
		logger:      logger,
		broker:      broker,
	}

	s.setupMiddleware()
	s.setupRoutes(movieStore)
	s.setupProbeRoutes()
	s.setupHTTPServer()

	return s
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware() {
	// Apply middleware in order (first applied = outermost)
	s.router.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.RequestID()))

	if s.config.MetricsEnabled {
		s.router.Use(mux.MiddlewareFunc(middleware.Metrics()))
	}

	s.router.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.CORS(
		s.config.CORSAllowedOrigins, corsAllowedMethods, corsAllowedHeaders,
	)))
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(movieStore store.Store) {
	s.restHandler = handler.NewRESTHandler(movieStore, s.broker, s.logger)
	s.restHandler.RegisterRoutes(s.router)
	s.restHandler.RegisterProbeRoutes(s.router)

	origins := middleware.NewOriginList(s.config.CORSAllowedOrigins)
	s.wsHandler = handler.NewWebSocketHandler(s.broker, origins.Allows, s.logger)
	s.wsHandler.RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

// setupProbeRoutes configures the probe router. It carries no CORS or
// request logging so orchestrator polling stays quiet.
func (s *Server) setupProbeRoutes() {
	s.probeRouter.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))
	s.restHandler.RegisterProbeRoutes(s.probeRouter)

	if s.config.MetricsEnabled {
		s.probeRouter.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

// setupHTTPServer configures the HTTP servers.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	if s.config.ProbePort == 0 {
		return
	}

	s.probeServer = &http.Server{
		Addr:              s.config.ProbeAddress(),
		Handler:           s.probeRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// Start starts the HTTP server and, when configured, the probe server.
// It blocks until the listeners stop. If either listener fails, the other
// is shut down so the process never keeps answering probes without serving
// the API.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.Strings("cors_allowed_origins", s.config.CORSAllowedOrigins),
	)

	if s.probeServer == nil {
		return listen(s.httpServer, "server")
	}

	s.logger.Info("starting probe server", zap.String("address", s.config.ProbeAddress()))

	errCh := make(chan error, 2)
	go func() { errCh <- listen(s.httpServer, "server") }()
	go func() { errCh <- listen(s.probeServer, "probe server") }()

	first := <-errCh
	if first != nil {
		s.logger.Error("listener failed, stopping the other one", zap.Error(first))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
		_ = s.probeServer.Shutdown(ctx)
	}

	return errors.Join(first, <-errCh)
}

func listen(srv *http.Server, name string) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s listen and serve: %w", name, err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server",
		zap.Int("websocket_clients", s.wsHandler.ClientCount()),
		zap.Int("event_subscribers", s.broker.Subscribers()),
	)

	// Close WebSocket clients first; hijacked connections are not tracked by http.Server.
	s.wsHandler.CloseAllConnections()
	s.broker.Close()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if s.probeServer != nil {
		if err := s.probeServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("probe server shutdown: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ProbeRouter returns the probe router for testing purposes.
func (s *Server) ProbeRouter() *mux.Router {
	return s.probeRouter
}
