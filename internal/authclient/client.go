package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a whole login round trip.
const DefaultTimeout = 10 * time.Second

var (
	// ErrInvalidCredentials is returned for HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited is returned for HTTP 429.
	ErrRateLimited = errors.New("rate limited by auth server")
)

// StatusError reports any other non-200 response.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("auth server returned %d", e.StatusCode)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client verifies credentials against an auth server's POST /api/login.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout sets the round trip timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.http.Timeout = d
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default().With("service", "authclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate implements login.CredentialVerifier.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}
	c.logger.Debug("Login response received", "status", resp.StatusCode, "request_id", resp.Header.Get("X-Request-Id"))

	switch resp.StatusCode {
	case http.StatusOK:
		var lr loginResponse
		if err := json.Unmarshal(data, &lr); err != nil {
			return "", fmt.Errorf("decode login response: %w", err)
		}
		return lr.Token, nil
	case http.StatusUnauthorized:
		return "", ErrInvalidCredentials
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	default:
		se := &StatusError{StatusCode: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(data, &er) == nil {
			se.Code, se.Message = er.Code, er.Message
		}
		return "", se
	}
}
