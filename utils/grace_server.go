package utils

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	DEFAULT_READ_TIMEOUT  = 60 * time.Second
	DEFAULT_WRITE_TIMEOUT = DEFAULT_READ_TIMEOUT

	shutdownTimeout = 30 * time.Second
	drainTimeout    = 5 * time.Minute
)

// Server wraps http.Server to support graceful shutdown: on SIGTERM or
// SIGINT it stops accepting requests, then drains in-flight background
// work via the onDrain hook before the process exits.
type Server struct {
	*http.Server

	onDrain      func(ctx context.Context) error
	signalChan   chan os.Signal
	shutdownChan chan struct{}
}

// NewServer creates a Server with timeouts, handler and drain hook.
func NewServer(addr string, handler http.Handler, onDrain func(ctx context.Context) error) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  DEFAULT_READ_TIMEOUT,
			WriteTimeout: DEFAULT_WRITE_TIMEOUT,
		},
		onDrain:      onDrain,
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}),
	}
}

// ListenAndServe starts serving and handles shutdown signals.
func (srv *Server) ListenAndServe() error {
	go srv.handleSignals()
	err := srv.Server.ListenAndServe()
	if err == http.ErrServerClosed {
		err = nil
	}
	// Wait until Shutdown and drain finished
	<-srv.shutdownChan
	return err
}

func (srv *Server) handleSignals() {
	signal.Notify(srv.signalChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-srv.signalChan
	Sugar.Infof("received %s, graceful shutting down HTTP server", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
	} else {
		Sugar.Info("HTTP server shutdown success")
	}

	if srv.onDrain != nil {
		dctx, dcancel := context.WithTimeout(context.Background(), drainTimeout)
		defer dcancel()
		if err := srv.onDrain(dctx); err != nil {
			Sugar.Errorf("background drain incomplete: %v", err)
		} else {
			Sugar.Info("background work drained")
		}
	}
	close(srv.shutdownChan)
}

// GraceServer starts an HTTP server with graceful shutdown and drain.
func GraceServer(addr string, handler http.Handler, onDrain func(ctx context.Context) error) error {
	return NewServer(addr, handler, onDrain).ListenAndServe()
}
