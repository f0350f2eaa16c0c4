package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nfrund/loginflow/internal/config"
	"github.com/nfrund/loginflow/internal/database"
)

func testConfig() config.Server {
	return config.Server{
		Addr:        "127.0.0.1:0",
		Users:       "user:pass,alice:wonderland",
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
		RateLimit:   3,
	}
}

func newTestServer(t *testing.T, cfg config.Server) *Server {
	t.Helper()
	s, err := New(cfg, WithStoreOptions(database.WithCost(bcrypt.MinCost)))
	require.NoError(t, err)
	return s
}

func TestHTTPErrorHandler_WithStackTrace(t *testing.T) {
	// --- Setup ---
	e := echo.New()

	var logBuffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuffer, &slog.HandlerOptions{AddSource: true}))
	originalLogger := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(originalLogger)

	setupErrorHandling(e)

	e.GET("/test-unhandled-error", func(c echo.Context) error {
		return errors.New("a deliberate unhandled error occurred")
	})
	e.GET("/test-http-error", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnauthorized)
	})

	// --- Act ---
	req := httptest.NewRequest(http.MethodGet, "/test-unhandled-error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// --- Assert ---
	require.Equal(t, http.StatusInternalServerError, rec.Code, "Expected a 500 Internal Server Error response")
	assert.JSONEq(t, `{"code":"internal_error","message":"Internal server error."}`, rec.Body.String())

	logOutput := logBuffer.String()
	assert.Contains(t, logOutput, "Internal Server Error (Unhandled)")
	assert.Contains(t, logOutput, "error=\"a deliberate unhandled error occurred\"")
	assert.Contains(t, logOutput, "stack_trace=")
	assert.Contains(t, logOutput, "runtime/debug/stack.go", "Stack trace should originate from the debug package")

	logBuffer.Reset()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test-http-error", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"invalid_credentials"`)
	assert.NotContains(t, logBuffer.String(), "stack_trace=", "HTTP errors are expected and not logged as crashes")
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, testConfig())
	ts := httptest.NewServer(s.E)
	defer ts.Close()

	post := func(body string) *http.Response {
		resp, err := http.Post(ts.URL+"/api/login", echo.MIMEApplicationJSON, strings.NewReader(body))
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"username":"alice","password":"wonderland"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(echo.HeaderXRequestID))
	resp.Body.Close()

	resp = post(`{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = post(`{"username":"user","password":"pass"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = post(`{"username":"user","password":"pass"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode, "fourth request within a minute")
	resp.Body.Close()

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, health.StatusCode)
	health.Body.Close()

	m, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(m.Body)
	m.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `loginflow_http_requests_total{route="/api/login",status="200"} 2`)
	assert.Contains(t, string(body), `loginflow_http_requests_total{route="/api/login",status="429"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestServer_RandomSecret(t *testing.T) {
	cfg := testConfig()
	cfg.TokenSecret = ""
	s := newTestServer(t, cfg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"user","password":"pass"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	s.E.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_BadUserList(t *testing.T) {
	cfg := testConfig()
	cfg.Users = "no-separator"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestServer_StartAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := newTestServer(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout):
		t.Fatal("server did not shut down")
	}
}
