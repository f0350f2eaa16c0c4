package login

import (
	"context"
	"time"
)

// ConnectivityProbe reports whether the network is reachable. IsOnline must
// return promptly and is safe to call from any goroutine.
type ConnectivityProbe interface {
	IsOnline() bool
}

// CredentialVerifier checks a username and password against the remote
// authority and returns an opaque session token. It may take arbitrarily
// long and should honour ctx cancellation.
type CredentialVerifier interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// ProbeFunc adapts a plain function to ConnectivityProbe.
type ProbeFunc func() bool

// IsOnline implements ConnectivityProbe.
func (f ProbeFunc) IsOnline() bool { return f() }

// VerifierFunc adapts a plain function to CredentialVerifier.
type VerifierFunc func(ctx context.Context, username, password string) (string, error)

// Authenticate implements CredentialVerifier.
func (f VerifierFunc) Authenticate(ctx context.Context, username, password string) (string, error) {
	return f(ctx, username, password)
}

// Outcome classifies how a single Login call ended.
type Outcome string

const (
	OutcomeLocked  Outcome = "locked"
	OutcomeOffline Outcome = "offline"
	OutcomeInvalid Outcome = "invalid"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	// OutcomeLockout is a failure that tripped the lockout threshold.
	OutcomeLockout Outcome = "lockout"
)

// Observer is notified once per Login call. elapsed is the verifier round
// trip, zero for attempts rejected by the guard.
type Observer interface {
	Observe(outcome Outcome, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) Observe(Outcome, time.Duration) {}
