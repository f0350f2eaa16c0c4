package handlers

import (
	"time"

	"github.com/nfrund/loginflow/internal/domain"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeValidationFailed   = "validation_failed"
	CodeInvalidCredentials = "invalid_credentials"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal_error"
)

// LoginResponse is the DTO returned by a successful login. Only the signed
// token and its expiry are exposed.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewLoginResponse creates a LoginResponse from an issued token.
func NewLoginResponse(tok domain.Token) *LoginResponse {
	return &LoginResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt.UTC()}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
