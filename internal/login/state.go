package login

import "strings"

// MaxFailures is the number of consecutive failed attempts after which the
// controller locks out further logins.
const MaxFailures = 3

// User-visible failure reasons. Exactly one of these is set by a rejected
// or failed Login.
const (
	MsgAccountLocked      = "Account locked"
	MsgOffline            = "You are offline"
	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginFailed        = "Login failed"
	MsgTooManyAttempts    = "Too many attempts"
)

// State is an immutable snapshot of the login form and session. The
// controller never mutates a State it has published; every transition
// produces a new value.
type State struct {
	Username     string
	Password     string
	RememberMe   bool
	IsOnline     bool
	FailureCount int
	IsLockedOut  bool
	IsSubmitting bool
	// ErrorMessage is the last user-visible failure reason, nil when absent.
	ErrorMessage *string
	// Token is the opaque credential returned by the last successful login,
	// nil until then.
	Token *string
	// NavigateHome is a one-shot signal: a login just succeeded and the
	// presentation layer should navigate once. Any field edit clears it.
	NavigateHome bool
}

// NewState returns the initial form state. Connectivity is assumed until a
// probe says otherwise.
func NewState() State {
	return State{IsOnline: true}
}

// CanSubmit reports whether a login attempt may be started from this state.
func (s State) CanSubmit() bool {
	return strings.TrimSpace(s.Username) != "" &&
		strings.TrimSpace(s.Password) != "" &&
		!s.IsLockedOut &&
		s.IsOnline &&
		!s.IsSubmitting
}

// ErrorText returns the error message and whether one is present.
func (s State) ErrorText() (string, bool) {
	if s.ErrorMessage == nil {
		return "", false
	}
	return *s.ErrorMessage, true
}

// TokenValue returns the session token and whether one is present.
func (s State) TokenValue() (string, bool) {
	if s.Token == nil {
		return "", false
	}
	return *s.Token, true
}

func (s State) withError(msg string) State {
	s.ErrorMessage = &msg
	return s
}

func (s State) withoutError() State {
	s.ErrorMessage = nil
	return s
}

func (s State) withToken(token string) State {
	s.Token = &token
	return s
}
