// Package api provides HTTP handlers and the main API server logic for Parley.
//
// It exposes the chat turn endpoint, session history and deletion, the lead
// admin endpoints, the Twilio inbound webhook, and a health check.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/parleyhq/parley/internal/messaging"
	"github.com/parleyhq/parley/internal/router"
	"github.com/parleyhq/parley/internal/store"
)

// Server configuration defaults.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a functional option for configuring the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server hosts the HTTP API.
type Server struct {
	router   *router.Router
	sessions store.SessionStore
	leads    store.LeadStore
	// msgService replies to Twilio webhooks; nil disables the webhook.
	msgService messaging.Service
	addr       string
	httpServer *http.Server
}

// NewServer wires an API server from its collaborators.
func NewServer(rt *router.Router, sessions store.SessionStore, leads store.LeadStore, msgService messaging.Service, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		router:     rt,
		sessions:   sessions,
		leads:      leads,
		msgService: msgService,
		addr:       addr,
	}
}

// routes builds the request mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.chatHandler)
	mux.HandleFunc("GET /chat/history/{session}", s.historyHandler)
	mux.HandleFunc("DELETE /chat/session/{session}", s.deleteSessionHandler)
	mux.HandleFunc("GET /leads", s.listLeadsHandler)
	mux.HandleFunc("GET /leads/stats", s.leadStatsHandler)
	mux.HandleFunc("GET /leads/{id}", s.getLeadHandler)
	mux.HandleFunc("PUT /leads/{id}/status", s.updateLeadStatusHandler)
	mux.HandleFunc("PUT /leads/{id}/notes", s.updateLeadNotesHandler)
	mux.HandleFunc("DELETE /leads/{id}", s.deleteLeadHandler)
	mux.HandleFunc("POST /twilio/webhook", s.twilioWebhookHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	return mux
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
		slog.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("API server shutdown failed: %w", err)
		}
		return nil
	}
}
