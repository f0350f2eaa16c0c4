package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/loginflow/internal/authclient"
	"github.com/nfrund/loginflow/internal/config"
	"github.com/nfrund/loginflow/internal/connectivity"
	"github.com/nfrund/loginflow/internal/login"
	"github.com/nfrund/loginflow/internal/metrics"
	"github.com/nfrund/loginflow/internal/navigation"
	"github.com/nfrund/loginflow/internal/pubsub"
)

// Dependencies holds the collaborators of a login screen. Zero fields are
// built from configuration by New.
type Dependencies struct {
	Probe    login.ConnectivityProbe
	Verifier login.CredentialVerifier
	Registry prometheus.Registerer
	Navigate navigation.NavigateFunc
	Logger   *slog.Logger
}

// App is a fully wired login screen: controller, bus mirror, navigator,
// connectivity probe, metrics and tracing.
type App struct {
	Controller *login.Controller
	Bus        *pubsub.WatermillBridge
	Navigator  *navigation.Navigator
	Metrics    *metrics.Login
	Tracer     trace.Tracer

	logger  *slog.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	cleanup []func()
	once    sync.Once
}

// New builds an App from cfg, starting the probe loop, the navigator and
// the bus mirror. Close releases everything.
func New(ctx context.Context, cfg *config.Config, deps Dependencies) (*App, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer, shutdownTracing, err := pubsub.SetupOTel(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	a := &App{
		Tracer:  tracer,
		logger:  logger.With("service", "app"),
		cancel:  cancel,
		cleanup: []func(){shutdownTracing},
	}

	probe := deps.Probe
	if probe == nil {
		dial := connectivity.NewDialProbe(cfg.ProbeTarget,
			connectivity.WithInterval(cfg.ProbeInterval),
			connectivity.WithTimeout(cfg.ProbeTimeout),
			connectivity.WithLogger(logger.With("service", "connectivity")),
		)
		a.goRun(func() { dial.Run(runCtx) })
		probe = dial
	}

	verifier := deps.Verifier
	if verifier == nil {
		verifier = authclient.New(cfg.AuthURL,
			authclient.WithTimeout(cfg.AuthTimeout),
			authclient.WithLogger(logger.With("service", "authclient")),
		)
	}

	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	a.Metrics = metrics.NewLogin(registry)

	a.Bus = pubsub.NewWatermillBridge(pubsub.WithTracer(tracer))
	a.cleanup = append(a.cleanup, func() {
		if err := a.Bus.Close(); err != nil {
			a.logger.Warn("Failed to close bus", "error", err)
		}
	})

	navigate := deps.Navigate
	if navigate == nil {
		navigate = func(context.Context, navigation.Destination) {}
	}
	a.Navigator = navigation.New(navigate, navigation.WithLogger(logger.With("service", "navigation")))
	if err := a.Navigator.Start(runCtx, a.Bus); err != nil {
		a.Close()
		return nil, fmt.Errorf("start navigator: %w", err)
	}

	a.Controller = login.New(probe, verifier,
		login.WithLogger(logger.With("service", "login")),
		login.WithTracer(tracer),
		login.WithObserver(a.Metrics),
	)

	sub := a.Controller.Subscribe()
	a.goRun(func() {
		if err := login.Mirror(runCtx, sub, a.Bus); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("State mirror stopped", "error", err)
		}
	})

	return a, nil
}

func (a *App) goRun(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// Close disposes the controller, stops background loops and flushes
// tracing. It is safe to call more than once.
func (a *App) Close() {
	a.once.Do(func() {
		if a.Controller != nil {
			a.Controller.Close()
		}
		a.cancel()
		a.wg.Wait()
		for i := len(a.cleanup) - 1; i >= 0; i-- {
			a.cleanup[i]()
		}
	})
}
