package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerMinute is the per-IP budget used when none is configured.
const DefaultRequestsPerMinute = 10

// RateLimiter creates a rate limiter middleware allowing perMinute requests
// per minute per IP address, all of which may arrive in a burst.
func RateLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	config := middleware.RateLimiterConfig{
		// NewRateLimiterMemoryStoreWithConfig is a simple in-memory store suitable for single-instance deployments.
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Every(time.Minute / time.Duration(perMinute)),
			Burst:     perMinute,
			ExpiresIn: 3 * time.Minute,
		}),

		// We identify clients by their real IP address.
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			FromContext(c.Request().Context()).Warn("Rate limit exceeded", "client", identifier)
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"code":    "rate_limited",
				"message": "Too many requests. Please try again later.",
			})
		},
	}
	return middleware.RateLimiterWithConfig(config)
}
