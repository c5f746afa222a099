// Package httpapi exposes the REST surface of the note server: account
// registration and login, the note lifecycle, and the Google Drive linking
// flow.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/oauth"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
)

// Server wraps the HTTP server and its service dependencies.
type Server struct {
	server      *http.Server
	logger      logging.Logger
	cfg         *config.Config
	users       *services.UserService
	notes       *services.NoteService
	coordinator *oauth.Coordinator
	secret      []byte
}

// NewServer creates the REST API server.
func NewServer(cfg *config.Config, logger logging.Logger, users *services.UserService,
	notes *services.NoteService, coordinator *oauth.Coordinator) *Server {

	s := &Server{
		logger:      logger,
		cfg:         cfg,
		users:       users,
		notes:       notes,
		coordinator: coordinator,
		secret:      []byte(cfg.SecretKey),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:         cfg.EndpointAddr,
		Handler:      applyMiddleware(mux, logger, cfg.FrontendURL),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/me", s.handleMe)
	mux.HandleFunc("/auth/google/start", s.handleGoogleStart)
	mux.HandleFunc("/auth/google/callback", s.handleGoogleCallback)
	mux.HandleFunc("/save", s.handleSave)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/delete", s.handleDelete)
	mux.HandleFunc("/pin", s.handlePin)
	mux.HandleFunc("/health", s.handleHealth)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "starting http server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
