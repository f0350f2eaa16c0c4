package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/loginflow/internal/domain"
	"github.com/nfrund/loginflow/internal/middleware"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	userStore domain.UserRepository
	issuer    domain.TokenIssuer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userStore domain.UserRepository, issuer domain.TokenIssuer) *AuthHandler {
	return &AuthHandler{
		userStore: userStore,
		issuer:    issuer,
	}
}

// LoginPost handles POST /api/login. It answers 200 with a token, 400 for
// malformed or incomplete bodies and 401 for unknown users or wrong
// passwords.
func (h *AuthHandler) LoginPost(c echo.Context) error {
	logger := middleware.FromContext(c.Request().Context())

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    CodeInvalidRequest,
			Message: "Request body must be a JSON object.",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    CodeValidationFailed,
			Message: "Username and password are required.",
		})
	}

	user, err := h.userStore.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			logger.Info("Login rejected", "username", req.Username)
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Code:    CodeInvalidCredentials,
				Message: "Invalid username or password.",
			})
		}
		return err
	}

	tok, err := h.issuer.Issue(user)
	if err != nil {
		return err
	}

	logger.Info("Login accepted", "username", user.Username, "token_id", tok.ID)
	return c.JSON(http.StatusOK, NewLoginResponse(tok))
}
