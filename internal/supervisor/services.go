// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stockpulse/stockpulse/internal/logging"
)

// Runner is any long-running component that serves until its context is
// canceled. The WebSocket hub and the alert scan engine both satisfy it.
type Runner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService adapts a Runner to suture.Service.
type RunnerService struct {
	name   string
	runner Runner
}

// NewRunnerService wraps runner for supervision under the given name.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{name: name, runner: runner}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	logging.Info().Str("service", s.name).Msg("Service starting")
	err := s.runner.RunWithContext(ctx)
	if errors.Is(err, context.Canceled) {
		logging.Info().Str("service", s.name).Msg("Service stopped")
		return err
	}
	if err != nil {
		logging.Error().Str("service", s.name).Err(err).Msg("Service exited with error")
	}
	return err
}

func (s *RunnerService) String() string { return s.name }

// HTTPService runs an http.Server under supervision with graceful
// shutdown on context cancellation.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPService wraps server for supervision.
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("HTTP server shutdown incomplete")
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *HTTPService) String() string { return "http-server" }
