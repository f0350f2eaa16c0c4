package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLogger_InjectsRequestID(t *testing.T) {
	var buf bytes.Buffer
	original := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(original)

	e := echo.New()
	e.Use(middleware.RequestID())
	e.Use(Logger)
	e.GET("/", func(c echo.Context) error {
		FromContext(c.Request().Context()).Info("handled")
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	reqID := rec.Header().Get(echo.HeaderXRequestID)
	assert.NotEmpty(t, reqID)
	assert.Contains(t, buf.String(), "request_id="+reqID)
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, slog.Default(), FromContext(req.Context()))
}
