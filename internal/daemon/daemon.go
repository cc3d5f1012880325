// Package daemon runs the HTTP server until a signal or context cancellation,
// then drains in-flight requests and releases resources.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/leonardotrapani/soapscribe/internal/logger"
)

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	PidPath         string // empty disables the single-instance check
}

// Closer releases a resource during shutdown
type Closer func(ctx context.Context) error

type Daemon struct {
	cfg     Config
	handler http.Handler
	log     *logger.Logger

	mu      sync.Mutex
	closers []namedCloser
	addr    string
	ready   chan struct{}
}

type namedCloser struct {
	name string
	fn   Closer
}

func New(cfg Config, handler http.Handler, log *logger.Logger) *Daemon {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
	return &Daemon{
		cfg:     cfg,
		handler: handler,
		log:     log.Named("daemon"),
		ready:   make(chan struct{}),
	}
}

// OnShutdown registers fn to run after the server stops. Closers run in
// reverse registration order.
func (d *Daemon) OnShutdown(name string, fn Closer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closers = append(d.closers, namedCloser{name: name, fn: fn})
}

// Ready is closed once the listener is bound
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Addr returns the bound address, valid after Ready
func (d *Daemon) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives
func (d *Daemon) Run(ctx context.Context) error {
	if d.cfg.PidPath != "" {
		if err := CheckExisting(d.cfg.PidPath); err != nil {
			return err
		}
		if err := createPidFile(d.cfg.PidPath); err != nil {
			return fmt.Errorf("failed to create PID file: %w", err)
		}
		defer func() {
			if err := removePidFile(d.cfg.PidPath); err != nil {
				d.log.Warn("failed to remove PID file", logger.Error(err))
			}
		}()
	}

	ln, err := net.Listen("tcp", d.cfg.Addr)
	if err != nil {
		d.runClosers()
		return fmt.Errorf("listen on %s: %w", d.cfg.Addr, err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Handler:           d.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	d.mu.Lock()
	d.addr = ln.Addr().String()
	d.mu.Unlock()
	close(d.ready)

	errCh := make(chan error, 1)
	go func() {
		d.log.Info("Starting HTTP server", logger.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		d.log.Info("Shutting down server...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		d.log.Error("HTTP server shutdown error", logger.Error(err))
		if serveErr == nil {
			serveErr = fmt.Errorf("shutdown: %w", err)
		}
	} else {
		d.log.Info("HTTP server shutdown complete")
	}

	d.runClosers()
	d.log.Info("Server fully stopped")
	return serveErr
}

func (d *Daemon) runClosers() {
	d.mu.Lock()
	closers := make([]namedCloser, len(d.closers))
	copy(closers, d.closers)
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
	defer cancel()
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(ctx); err != nil {
			d.log.Error("shutdown step failed", logger.String("step", c.name), logger.Error(err))
			continue
		}
		d.log.Debug("shutdown step complete", logger.String("step", c.name))
	}
}
