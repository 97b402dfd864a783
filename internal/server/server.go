// Package server provides the HTTP API for HearClear.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hearclear/hearclear/internal/config"
	"github.com/hearclear/hearclear/internal/retrieval"
	"github.com/hearclear/hearclear/internal/store"
	"go.uber.org/zap"
)

// Server is the HTTP server for the HearClear API.
type Server struct {
	pipeline *retrieval.Pipeline
	store    store.Store
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	pipeline *retrieval.Pipeline,
	st store.Store,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: pipeline,
		store:    st,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/transcripts", s.handleListTranscripts)
	r.Post("/api/v1/transcripts", s.handleSaveTranscript)
	r.Get("/api/v1/transcripts/{id}", s.handleGetTranscript)
	r.Delete("/api/v1/transcripts/{id}", s.handleDeleteTranscript)
	r.Post("/api/v1/transcripts/{id}/query", s.handleQuery)
	r.Post("/api/v1/transcripts/{id}/query-audio", s.handleQueryAudio)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
