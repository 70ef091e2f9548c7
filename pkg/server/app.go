package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "UMKMForecast/pkg/http"
	"UMKMForecast/pkg/logger"
)

// Worker is a background component started before the HTTP server and
// stopped after it, such as the training job queue.
type Worker interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Sweeper drops idle state; the rate limiter implements it.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

type closer struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	logger     *logger.Logger
	httpServer *xhttp.Server
	worker     Worker
	sweeper    Sweeper
	sweepEvery time.Duration
	closers    []closer
}

type Option func(*App)

// WithWorker registers a background worker. A nil worker is ignored.
func WithWorker(w Worker) Option {
	return func(a *App) { a.worker = w }
}

// WithSweeper sweeps s every interval, dropping entries idle for that long.
func WithSweeper(s Sweeper, interval time.Duration) Option {
	return func(a *App) {
		a.sweeper = s
		a.sweepEvery = interval
	}
}

// WithCloser adds a resource closed on shutdown, in registration order.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) {
		if c != nil {
			a.closers = append(a.closers, closer{name: name, c: c})
		}
	}
}

// New creates a new App instance.
func New(l *logger.Logger, srv *xhttp.Server, opts ...Option) *App {
	if l == nil {
		l = logger.Nop()
	}
	a := &App{logger: l, httpServer: srv}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if a.worker != nil {
		if err := a.worker.Start(ctx); err != nil {
			a.closeAll()
			return fmt.Errorf("start worker: %w", err)
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", logger.Error(err))
		return err
	}

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	if a.sweeper != nil && a.sweepEvery > 0 {
		go a.sweepLoop(sweepCtx)
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(a.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sweeper.Sweep(a.sweepEvery); n > 0 {
				a.logger.Debug("swept idle rate limit buckets", logger.Int("count", n))
			}
		}
	}
}

// shutdown stops HTTP first so no new work arrives, then the worker, then
// closes resources in registration order.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", logger.Error(err))
		firstErr = err
	}

	if a.worker != nil {
		if err := a.worker.Stop(ctx); err != nil {
			a.logger.Warn("worker stop error", logger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.closeAll()
	a.logger.Info("shutdown complete")
	return firstErr
}

func (a *App) closeAll() {
	for _, c := range a.closers {
		if err := c.c.Close(); err != nil {
			a.logger.Warn("close error", logger.String("resource", c.name), logger.Error(err))
		}
	}
}
