package connectivity

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 2 * time.Second
)

// DialProbe reports reachability of a TCP endpoint. IsOnline never blocks:
// it answers from the last dial result and, at most once per interval,
// starts a fresh dial in the background.
type DialProbe struct {
	target   string
	interval time.Duration
	timeout  time.Duration
	dialer   net.Dialer

	online   atomic.Bool
	checking atomic.Bool
	recheck  rate.Sometimes
	logger   *slog.Logger
}

// ProbeOption configures a DialProbe.
type ProbeOption func(*DialProbe)

// WithInterval sets the dial interval used by Run and the re-check throttle.
func WithInterval(d time.Duration) ProbeOption {
	return func(p *DialProbe) {
		p.interval = d
	}
}

// WithTimeout bounds a single dial.
func WithTimeout(d time.Duration) ProbeOption {
	return func(p *DialProbe) {
		p.timeout = d
	}
}

// WithLogger sets the probe's logger.
func WithLogger(logger *slog.Logger) ProbeOption {
	return func(p *DialProbe) {
		p.logger = logger
	}
}

// NewDialProbe creates a probe for target (host:port). It starts out online.
func NewDialProbe(target string, opts ...ProbeOption) *DialProbe {
	p := &DialProbe{
		target:   target,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		logger:   slog.Default().With("service", "connectivity"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.recheck = rate.Sometimes{Interval: p.interval}
	p.online.Store(true)
	return p
}

// Target returns the dialled address.
func (p *DialProbe) Target() string {
	return p.target
}

// IsOnline implements login.ConnectivityProbe.
func (p *DialProbe) IsOnline() bool {
	p.recheck.Do(func() {
		if p.checking.CompareAndSwap(false, true) {
			go func() {
				defer p.checking.Store(false)
				p.Check(context.Background())
			}()
		}
	})
	return p.online.Load()
}

// Check dials the target once, records the result and returns it.
func (p *DialProbe) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.target)
	online := err == nil
	if online {
		_ = conn.Close()
	}

	if prev := p.online.Swap(online); prev != online {
		if online {
			p.logger.Info("Connectivity restored", "target", p.target)
		} else {
			p.logger.Warn("Connectivity lost", "target", p.target, "error", err)
		}
	}
	return online
}

// Run dials the target every interval until ctx is done.
func (p *DialProbe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

// Static is a probe with a settable answer.
type Static struct {
	online atomic.Bool
}

// NewStatic creates a Static probe.
func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

// Set changes the answer.
func (s *Static) Set(online bool) {
	s.online.Store(online)
}

// IsOnline implements login.ConnectivityProbe.
func (s *Static) IsOnline() bool {
	return s.online.Load()
}
