package server

import "context"

// Shutdown stops accepting requests and waits up to ShutdownTimeout for
// in-flight ones.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down auth server")
	return s.E.Shutdown(ctx)
}
