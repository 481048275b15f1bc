package utils

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	DEFAULT_READ_TIMEOUT     = 60 * time.Second
	DEFAULT_WRITE_TIMEOUT    = DEFAULT_READ_TIMEOUT
	DEFAULT_SHUTDOWN_TIMEOUT = 30 * time.Second
)

// Server wraps http.Server and drains in-flight requests on SIGINT/SIGTERM.
type Server struct {
	*http.Server

	logger     *zap.Logger
	signalChan chan os.Signal
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       DEFAULT_READ_TIMEOUT,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      DEFAULT_WRITE_TIMEOUT,
		},
		logger:     logger,
		signalChan: make(chan os.Signal, 1),
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// shuts down gracefully. It returns nil after a clean shutdown.
func (srv *Server) Run(ctx context.Context) error {
	signal.Notify(srv.signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(srv.signalChan)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-srv.signalChan:
		srv.logger.Info("received signal, graceful shutting down HTTP server", zap.String("signal", sig.String()))
	case <-ctx.Done():
		srv.logger.Info("context done, graceful shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DEFAULT_SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	srv.logger.Info("HTTP server shutdown success")
	return nil
}

// GraceServer starts an HTTP server with graceful shutdown.
func GraceServer(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	return NewServer(addr, handler, logger).Run(ctx)
}
