package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"

	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/history"
	"bastion-hq/bastion/pkg/registry"
	"bastion-hq/bastion/pkg/schema"
	"bastion-hq/bastion/pkg/telemetry/health"
	"bastion-hq/bastion/pkg/telemetry/metrics"
)

// Schemas is the read side of the schema registry.
type Schemas interface {
	Get(name string) (*schema.Schema, bool)
	List() []registry.Summary
	Version() string
}

// Options carries the server's collaborators. Only Schemas is required.
type Options struct {
	Schemas Schemas

	// Recorder stores validation outcomes. Nil disables recording.
	Recorder *history.Recorder

	// History answers GET /v1/history. Nil disables the endpoint.
	History history.Storage

	// Metrics records validation metrics and serves the metrics endpoint.
	Metrics *metrics.Collector

	// Health serves the liveness and readiness endpoints.
	Health *health.Checker

	// Version is served at /version when its Version field is set.
	Version health.VersionInfo

	Logger *slog.Logger
}

// Server is the HTTP front end of the validator.
type Server struct {
	config *config.Config
	opts   Options
	logger *slog.Logger

	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server. It does not listen until Start is called.
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if opts.Schemas == nil {
		return nil, fmt.Errorf("schema registry cannot be nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		config: cfg,
		opts:   opts,
		logger: logger.With("component", "server"),
	}, nil
}

// Start listens on the configured address and serves until ctx is cancelled
// or the listener fails. Cancellation triggers a graceful shutdown bounded by
// the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	srvCfg := &s.config.Server
	s.httpServer = &http.Server{
		Addr:           srvCfg.ListenAddress,
		Handler:        s.setupRoutes(),
		ReadTimeout:    srvCfg.ReadTimeout,
		WriteTimeout:   srvCfg.WriteTimeout,
		IdleTimeout:    srvCfg.IdleTimeout,
		MaxHeaderBytes: srvCfg.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	if srvCfg.TLS.Enabled {
		tlsConfig, reloader, err := configureTLS(&srvCfg.TLS, s.logger)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
		s.httpServer.TLSConfig = tlsConfig
		go reloader.run(ctx)
	}

	ln, err := net.Listen("tcp", srvCfg.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", srvCfg.ListenAddress, err)
	}
	s.listener = ln
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting validation server",
			"address", ln.Addr().String(),
			"tls_enabled", srvCfg.TLS.Enabled,
		)

		var err error
		if srvCfg.TLS.Enabled {
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server. Only the first call has effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		timeout := s.config.Server.ShutdownTimeout
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("validation server stopped")
	})

	return shutdownErr
}

// configureTLS loads the key pair and returns a TLS 1.3 configuration whose
// certificate follows the files on disk.
func configureTLS(cfg *config.TLSConfig, logger *slog.Logger) (*tls.Config, *certReloader, error) {
	if cfg.CertFile == "" {
		return nil, nil, fmt.Errorf("TLS cert file not specified")
	}
	if cfg.KeyFile == "" {
		return nil, nil, fmt.Errorf("TLS key file not specified")
	}
	if _, err := os.Stat(cfg.CertFile); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("TLS cert file not found: %s", cfg.CertFile)
	}
	if _, err := os.Stat(cfg.KeyFile); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("TLS key file not found: %s", cfg.KeyFile)
	}

	reloader := newCertReloader(cfg, logger)
	if err := reloader.load(); err != nil {
		return nil, nil, err
	}
	return &tls.Config{
		MinVersion:     tls.VersionTLS13,
		GetCertificate: reloader.GetCertificate,
	}, reloader, nil
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
