package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nfrund/loginflow/internal/handlers"
	"github.com/nfrund/loginflow/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	rateLimiter := middleware.RateLimiter(s.Cfg.RateLimit)

	api := s.E.Group("/api")
	api.POST("/login", s.authHandler.LoginPost, rateLimiter)

	s.E.GET("/healthz", handlers.Healthz)
	s.E.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))
}
