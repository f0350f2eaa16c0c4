package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/nfrund/loginflow/internal/metrics"
)

// Metrics counts every request by route template and final status code.
func Metrics(m *metrics.HTTP) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				// Let echo write the error response now so the status is final.
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.Record(route, c.Response().Status)
			return nil
		}
	}
}
