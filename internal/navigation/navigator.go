package navigation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nfrund/loginflow/internal/login"
	"github.com/nfrund/loginflow/internal/pubsub"
)

// Destination names a screen the host can move to.
type Destination string

const DestinationHome Destination = "home"

// NavigateFunc performs the actual navigation.
type NavigateFunc func(ctx context.Context, to Destination)

// Navigator listens for login state on the bus and navigates home once for
// every rising edge of the navigate-home signal.
type Navigator struct {
	mu       sync.Mutex
	armed    bool
	count    int
	navigate NavigateFunc
	logger   *slog.Logger
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger sets the navigator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// New creates a Navigator that calls navigate on each successful login.
func New(navigate NavigateFunc, opts ...Option) *Navigator {
	n := &Navigator{
		armed:    true,
		navigate: navigate,
		logger:   slog.Default().With("service", "navigation"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Start subscribes the navigator to login.StateChanged.
func (n *Navigator) Start(ctx context.Context, sub pubsub.Subscriber) error {
	return pubsub.Subscribe(ctx, sub, login.StateChanged, n.Handle)
}

// Handle processes one state event. Exported so hosts without a bus can
// feed events directly.
func (n *Navigator) Handle(ctx context.Context, ev login.StateEvent) error {
	n.mu.Lock()
	fire := ev.NavigateHome && n.armed
	n.armed = !ev.NavigateHome
	if fire {
		n.count++
	}
	n.mu.Unlock()

	if !fire {
		return nil
	}
	n.logger.Info("Navigating after login", "to", DestinationHome, "username", ev.Username)
	n.navigate(ctx, DestinationHome)
	return nil
}

// Count returns how many times the navigator has fired.
func (n *Navigator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}
