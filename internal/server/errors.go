package server

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/loginflow/internal/handlers"
	"github.com/nfrund/loginflow/internal/middleware"
)

// setupErrorHandling renders every error as a handlers.ErrorResponse.
// Errors that are not echo.HTTPErrors are logged with a stack trace.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		resp := handlers.ErrorResponse{Code: handlers.CodeInternal, Message: "Internal server error."}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			resp.Code = codeForStatus(status)
			resp.Message = http.StatusText(status)
		} else {
			middleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
				"error", err.Error(),
				"stack_trace", string(debug.Stack()),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			e.Logger.Error(err)
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return handlers.CodeInvalidRequest
	case http.StatusUnauthorized:
		return handlers.CodeInvalidCredentials
	case http.StatusTooManyRequests:
		return handlers.CodeRateLimited
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		if status >= 500 {
			return handlers.CodeInternal
		}
		return "http_error"
	}
}
