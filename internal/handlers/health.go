package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Healthz answers GET /healthz.
func Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
