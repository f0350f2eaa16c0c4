package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nfrund/loginflow/internal/config"
	"github.com/nfrund/loginflow/internal/database"
	"github.com/nfrund/loginflow/internal/domain"
	"github.com/nfrund/loginflow/internal/handlers"
	"github.com/nfrund/loginflow/internal/metrics"
	appmw "github.com/nfrund/loginflow/internal/middleware"
	"github.com/nfrund/loginflow/internal/tokens"
)

// Server holds the dependencies for the development auth server.
type Server struct {
	E           *echo.Echo
	Cfg         config.Server
	Registry    *prometheus.Registry
	userStore   domain.UserRepository
	authHandler *handlers.AuthHandler
	httpMetrics *metrics.HTTP
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	storeOpts []database.StoreOption
}

// WithStoreOptions passes options to the in-memory user store.
func WithStoreOptions(opts ...database.StoreOption) Option {
	return func(o *serverOptions) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// New creates a Server with users seeded from cfg.Users. An empty token
// secret is replaced by a random one.
func New(cfg config.Server, opts ...Option) (*Server, error) {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}
	logger := slog.Default().With("service", "server")

	userStore := database.NewUserStore(o.storeOpts...)
	if err := userStore.Seed(context.Background(), cfg.Users); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}

	secret := cfg.TokenSecret
	if secret == "" {
		var err error
		if secret, err = tokens.RandomSecret(); err != nil {
			return nil, err
		}
		logger.Warn("No token secret configured, tokens will not survive a restart")
	}
	issuer, err := tokens.NewIssuer(secret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	setupErrorHandling(e)

	s := &Server{
		E:           e,
		Cfg:         cfg,
		Registry:    registry,
		userStore:   userStore,
		authHandler: handlers.NewAuthHandler(userStore, issuer),
		httpMetrics: metrics.NewHTTP(registry),
		logger:      logger,
	}

	e.Use(middleware.RequestID())
	e.Use(appmw.Logger)
	e.Use(middleware.Recover())
	e.Use(appmw.Metrics(s.httpMetrics))
	s.RegisterRoutes()

	return s, nil
}

// UserStore is a getter for the server's user store, useful for testing.
func (s *Server) UserStore() domain.UserRepository {
	return s.userStore
}
