package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/gateway"
	"mercator-hq/relay/pkg/proxy/handlers"
	"mercator-hq/relay/pkg/proxy/middleware"
	"mercator-hq/relay/pkg/stats"
)

// Config holds the server's dependencies.
type Config struct {
	Proxy    *config.ProxyConfig
	Gateway  *gateway.Gateway
	Recorder *stats.Recorder

	// Metrics serves the Prometheus exposition at MetricsPath. Nil disables
	// the route.
	Metrics     http.Handler
	MetricsPath string

	Logger *slog.Logger
}

// Server is the relay's HTTP server.
type Server struct {
	config       Config
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	stopOnce     sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new relay server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Proxy == nil {
		return nil, errors.New("server requires proxy configuration")
	}
	if cfg.Gateway == nil || cfg.Recorder == nil {
		return nil, errors.New("server requires a gateway and a stats recorder")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Server{
		config:       cfg,
		logger:       cfg.Logger.With("component", "server"),
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start listens on the configured address and serves until ctx is done or
// Stop is called, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Proxy.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Proxy.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done or Stop is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true

	proxyCfg := s.config.Proxy
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    proxyCfg.ReadTimeout,
		WriteTimeout:   proxyCfg.WriteTimeout,
		IdleTimeout:    proxyCfg.IdleTimeout,
		MaxHeaderBytes: proxyCfg.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.mu.Unlock()

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tlsEnabled := proxyCfg.TLS.Enabled
	if tlsEnabled {
		reloader, err := NewCertReloader(proxyCfg.TLS.CertFile, proxyCfg.TLS.KeyFile, s.logger)
		if err != nil {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			ln.Close()
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
		s.httpServer.TLSConfig = tlsConfig(proxyCfg.TLS, reloader)
		go func() {
			if err := reloader.Watch(serveCtx); err != nil {
				s.logger.Error("certificate watcher stopped", "error", err)
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting relay server",
			"address", ln.Addr().String(),
			"tls_enabled", tlsEnabled,
		)
		var err error
		if tlsEnabled {
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
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a running Start or Serve to shut down.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.shutdownChan) })
}

// Shutdown gracefully shuts down the server. In-flight requests, including
// open streams, get up to the configured shutdown timeout to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		timeout := s.config.Proxy.ShutdownTimeout
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

		s.logger.Info("relay server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	var handler http.Handler = mux

	handler = middleware.CORSMiddleware(s.corsConfig())(handler)
	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)

	return handler
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	g := s.config.Gateway
	for _, e := range gateway.Endpoints() {
		mux.Handle(e.Pattern(), g.Handler(e))
	}

	mux.Handle("GET /health", handlers.NewHealthHandler())
	mux.Handle("GET /stats", handlers.NewStatsHandler(s.config.Recorder, g.MaxAttempts))
	mux.Handle("GET /{$}", handlers.NewDashboardHandler(s.config.Recorder, g.MaxAttempts, s.logger))

	if s.config.Metrics != nil && s.config.MetricsPath != "" {
		mux.Handle("GET "+s.config.MetricsPath, s.config.Metrics)
	}
}

func (s *Server) corsConfig() middleware.CORSConfig {
	c := s.config.Proxy.CORS
	return middleware.CORSConfig{
		Enabled:        c.Enabled,
		AllowedOrigins: c.AllowedOrigins,
		AllowedHeaders: c.AllowedHeaders,
		MaxAge:         c.MaxAge,
	}
}
