// ABOUTME: Builds the component graph from config and runs the HTTP server
// ABOUTME: Health endpoints, signal-driven graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lugha/lugha-gateway/internal/ai"
	"github.com/lugha/lugha-gateway/internal/auth"
	"github.com/lugha/lugha-gateway/internal/config"
	"github.com/lugha/lugha-gateway/internal/relay"
	"github.com/lugha/lugha-gateway/internal/store"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Gateway orchestrates the lugha-gateway server components.
type Gateway struct {
	config      *config.Config
	store       store.Store
	auth        *auth.Service
	tokens      *auth.TokenIssuer
	responder   *ai.Responder
	relay       *relay.Relay
	broadcaster *relay.Broadcaster
	httpServer  *http.Server
	logger      *slog.Logger
}

// initStore creates a store based on config and environment.
func initStore(cfg *config.Config) (store.Store, error) {
	if cfg.Database.Driver == "memory" {
		return store.NewMemStore()
	}

	dbPath := cfg.Database.Path
	if envPath := os.Getenv("LUGHA_DB_PATH"); envPath != "" {
		dbPath = envPath
	}
	return store.NewSQLiteStore(dbPath)
}

// New creates a Gateway from the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := initStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	tokens := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), 0)
	authSvc := auth.NewService(s, tokens, cfg.Auth.SessionDuration)

	responder := ai.NewResponder(s, ai.Options{
		Providers:      cfg.AI.Providers,
		GeminiBaseURL:  cfg.AI.GeminiBaseURL,
		GeminiModel:    cfg.AI.GeminiModel,
		OpenAIBaseURL:  cfg.AI.OpenAIBaseURL,
		OpenAIModel:    cfg.AI.OpenAIModel,
		RequestTimeout: cfg.AI.RequestTimeout,
	})

	broadcaster := relay.NewBroadcaster(logger)
	rly := relay.NewRelay(s, responder, broadcaster)

	gw := &Gateway{
		config:      cfg,
		store:       s,
		auth:        authSvc,
		tokens:      tokens,
		responder:   responder,
		relay:       rly,
		broadcaster: broadcaster,
		logger:      logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.HandleFunc("GET /health/ready", gw.handleReady)
	mux.Handle("/ws", relay.NewHandler(rly, tokens))

	authSvc.Routes(mux)
	gw.registerAPIRoutes(mux)
	gw.registerAdminRoutes(mux)
	gw.registerUploadRoutes(mux)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// Handler returns the gateway's HTTP handler, used by tests to drive the
// full route table without binding a port.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails, then shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", g.httpServer.Addr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("shutdown requested")
	case serverErr = <-errCh:
		g.logger.Error("HTTP server failed", "error", serverErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := g.Shutdown(shutdownCtx); err != nil {
		g.logger.Error("shutdown error", "error", err)
		if serverErr == nil {
			serverErr = err
		}
	}
	return serverErr
}

// Shutdown stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	var firstErr error

	if err := g.httpServer.Shutdown(ctx); err != nil {
		firstErr = err
	}

	g.broadcaster.Close()

	if err := g.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	g.logger.Info("gateway stopped")
	return firstErr
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the store answers queries.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := g.store.GetLanguages(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "store not ready: %v", err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
