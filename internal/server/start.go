package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ShutdownTimeout bounds graceful shutdown once Start's context ends.
const ShutdownTimeout = 10 * time.Second

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
// It returns the listener error, if any, or the shutdown error.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("Auth server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return s.Shutdown()
}
