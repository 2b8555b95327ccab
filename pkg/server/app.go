package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"CosmicOptic/pkg/config"
	xhttp "CosmicOptic/pkg/http"
	pkgkafka "CosmicOptic/pkg/kafka"
	applogger "CosmicOptic/pkg/logger"
)

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	closers    []namedCloser
}

type Option func(*App)

// WithConsumer runs kh on consumer alongside the HTTP server. A nil consumer
// disables the Kafka transport.
func WithConsumer(consumer *pkgkafka.Consumer, kh pkgkafka.MessageHandler) Option {
	return func(a *App) {
		if consumer != nil && kh != nil {
			a.consumer, a.kh = consumer, kh
		}
	}
}

// WithCloser registers a resource released on shutdown, in registration order.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) { a.AddCloser(name, c) }
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server, opts ...Option) *App {
	a := &App{
		cfg:        cfg,
		l:          l,
		httpServer: httpServer,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *App) AddCloser(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	// Start consumer if configured
	if a.consumer != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("cosmicoptic started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("catalog", a.cfg.Catalog.Source),
		applogger.Bool("kafka", a.consumer != nil),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests first
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Flush aggregated logs while the producer is still open
	a.l.RemoveCollector()

	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.l.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
