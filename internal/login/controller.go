package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nfrund/loginflow/internal/hub"
)

// ErrEmptyToken is recorded when a verifier reports success without a token.
var ErrEmptyToken = errors.New("verifier returned an empty token")

// Controller owns the login State and drives it from user input, the
// connectivity probe and the credential verifier. Every transition is
// published, in order, to subscribers.
type Controller struct {
	mu    sync.Mutex
	state State
	hub   *hub.Hub[State]

	probe    ConnectivityProbe
	verifier CredentialVerifier
	logger   *slog.Logger
	tracer   trace.Tracer
	observer Observer

	// ctx scopes in-flight credential checks to the controller's lifetime.
	ctx      context.Context
	cancel   context.CancelFunc
	inFlight sync.WaitGroup
	closed   bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for attempt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithTracer wraps each credential check in a span.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) {
		c.tracer = tracer
	}
}

// WithObserver registers an observer for attempt outcomes.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithInitialState starts the controller from s instead of NewState().
func WithInitialState(s State) Option {
	return func(c *Controller) {
		c.state = s
	}
}

// New creates a Controller with a fresh State.
func New(probe ConnectivityProbe, verifier CredentialVerifier, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		state:    NewState(),
		probe:    probe,
		verifier: verifier,
		logger:   slog.Default().With("service", "login"),
		tracer:   noop.NewTracerProvider().Tracer("loginflow/login"),
		observer: noopObserver{},
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.hub = hub.New(c.state)
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a subscription that yields the current state and then
// every later state in transition order.
func (c *Controller) Subscribe() *hub.Subscription[State] {
	return c.hub.Subscribe()
}

// SetUsername replaces the username and clears the error and the navigation
// signal.
func (c *Controller) SetUsername(value string) {
	c.update(func(s State) State {
		s.Username = value
		s.NavigateHome = false
		return s.withoutError()
	})
}

// SetPassword replaces the password and clears the error and the navigation
// signal.
func (c *Controller) SetPassword(value string) {
	c.update(func(s State) State {
		s.Password = value
		s.NavigateHome = false
		return s.withoutError()
	})
}

// SetRememberMe replaces the remember-me preference.
func (c *Controller) SetRememberMe(value bool) {
	c.update(func(s State) State {
		s.RememberMe = value
		return s
	})
}

// RefreshConnectivity asks the probe for the current reachability.
func (c *Controller) RefreshConnectivity() {
	c.update(func(s State) State {
		s.IsOnline = c.probe.IsOnline()
		return s
	})
}

// Login runs the guard checks and, when they pass, starts an asynchronous
// credential check. It returns as soon as the guard phase is over; the
// outcome is delivered through the published state.
func (c *Controller) Login() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	snapshot := c.state

	if snapshot.IsLockedOut {
		c.publish(snapshot.withError(MsgAccountLocked))
		c.observer.Observe(OutcomeLocked, 0)
		return
	}

	if !c.probe.IsOnline() {
		next := snapshot.withError(MsgOffline)
		next.IsOnline = false
		c.publish(next)
		c.observer.Observe(OutcomeOffline, 0)
		return
	}

	if !snapshot.CanSubmit() {
		c.publish(snapshot.withError(MsgInvalidCredentials))
		c.observer.Observe(OutcomeInvalid, 0)
		return
	}

	submitting := snapshot.withoutError()
	submitting.IsSubmitting = true
	submitting.NavigateHome = false
	c.publish(submitting)

	attemptID := uuid.NewString()
	c.logger.Debug("Starting login attempt", "attempt_id", attemptID, "failure_count", snapshot.FailureCount)

	c.inFlight.Add(1)
	go c.authenticate(attemptID, snapshot)
}

// Wait blocks until no credential check is in flight. It must not be called
// concurrently with Login.
func (c *Controller) Wait() {
	c.inFlight.Wait()
}

// Close disposes the controller. The context passed to an in-flight
// verifier is cancelled, its eventual result is discarded, and every
// subscription is closed. Later calls on the controller are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.hub.Close()
}

func (c *Controller) authenticate(attemptID string, snapshot State) {
	defer c.inFlight.Done()

	ctx, span := c.tracer.Start(c.ctx, "login.authenticate",
		trace.WithAttributes(
			attribute.String("login.attempt_id", attemptID),
			attribute.Int("login.failure_count", snapshot.FailureCount),
		),
	)
	defer span.End()

	started := time.Now()
	token, err := c.verify(ctx, snapshot.Username, snapshot.Password)
	elapsed := time.Since(started)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.logger.Debug("Discarding login result after close", "attempt_id", attemptID)
		return
	}

	next := c.state
	next.IsSubmitting = false

	if err == nil {
		next = next.withToken(token)
		next.NavigateHome = true
		next.FailureCount = 0
		c.publish(next)
		c.observer.Observe(OutcomeSuccess, elapsed)
		c.logger.Info("Login succeeded", "attempt_id", attemptID, "elapsed", elapsed)
		return
	}

	failures := snapshot.FailureCount + 1
	locked := failures >= MaxFailures
	next.FailureCount = failures
	next.IsLockedOut = next.IsLockedOut || locked
	outcome := OutcomeFailure
	if locked {
		next = next.withError(MsgTooManyAttempts)
		outcome = OutcomeLockout
	} else {
		next = next.withError(MsgLoginFailed)
	}
	c.publish(next)
	c.observer.Observe(outcome, elapsed)
	c.logger.Warn("Login failed", "attempt_id", attemptID, "failure_count", failures, "locked_out", next.IsLockedOut, "error", err)
}

// verify calls the verifier, turning panics and empty tokens into errors.
func (c *Controller) verify(ctx context.Context, username, password string) (token string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("verifier panicked: %v", r)
		}
	}()

	token, err = c.verifier.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

func (c *Controller) update(fn func(State) State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.publish(fn(c.state))
}

// publish must be called with c.mu held.
func (c *Controller) publish(s State) {
	c.state = s
	c.hub.Publish(s)
}
