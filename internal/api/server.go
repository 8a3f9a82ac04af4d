// Package api exposes the booking service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"visits/internal/config"
	"visits/internal/domain"
	"visits/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// HTTPServer serves the JSON API.
type HTTPServer struct {
	cfg      config.APIConfig
	svc      *service.BookingService
	attempts domain.AttemptLimiter
	auth     *Auth
	limiter  *rateLimiter
	router   *mux.Router
	server   *http.Server
	log      zerolog.Logger
}

// NewHTTPServer wires routes and middleware. attempts may be nil to disable
// the booking attempt limit.
func NewHTTPServer(cfg config.APIConfig, svc *service.BookingService, attempts domain.AttemptLimiter, logger *zerolog.Logger) *HTTPServer {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "http").Logger()
	}

	s := &HTTPServer{
		cfg:      cfg,
		svc:      svc,
		attempts: attempts,
		auth:     NewAuth(cfg.Auth),
		limiter:  newRateLimiter(cfg.RateLimit),
		router:   mux.NewRouter(),
		log:      l,
	}
	s.routes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *HTTPServer) routes() {
	r := s.router
	r.Use(requestIDMiddleware, loggingMiddleware(s.log), recoverMiddleware(s.log))
	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	// Subrouters need their own mismatch handlers.
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.NotFoundHandler = http.HandlerFunc(handleNotFound)
	v1.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)
	v1.Use(rateLimitMiddleware(s.auth, s.limiter))

	s.handle(v1, http.MethodGet, "/holidays", PermReadSchedule, s.handleHolidays)
	s.handle(v1, http.MethodGet, "/windows", PermReadSchedule, s.handleWindows)
	s.handle(v1, http.MethodGet, "/slots", PermReadSchedule, s.handleSlots)
	s.handle(v1, http.MethodGet, "/bookings", PermAdmin, s.handleListBookings)
	s.handle(v1, http.MethodPost, "/bookings", PermBook, s.handleCreateBooking)
	s.handle(v1, http.MethodDelete, "/bookings/{id:[0-9]+}", PermAdmin, s.handleDeleteBooking)
	s.handle(v1, http.MethodGet, "/duty-contacts", PermReadSchedule, s.handleListDutyContacts)
	s.handle(v1, http.MethodPut, "/duty-contacts", PermAdmin, s.handleUpsertDutyContact)
	s.handle(v1, http.MethodGet, "/export", PermAdmin, s.handleExport)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not found")
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func (s *HTTPServer) handle(r *mux.Router, method, path, perm string, h http.HandlerFunc) {
	r.Handle(path, s.auth.Require(perm, h)).Methods(method)
}

// Handler returns the root handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("http listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

func (s *HTTPServer) Serve(ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Msg("HTTP API listening")
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
