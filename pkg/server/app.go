package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NSEScan/pkg/config"
	xhttp "NSEScan/pkg/http"
	applogger "NSEScan/pkg/logger"
)

// Sweeper drops idle state on a schedule, e.g. rate-limit buckets.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// Resource is an infrastructure client closed on shutdown.
type Resource struct {
	Name   string
	Closer io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handlers   []xhttp.Handler
	resources  []Resource
	sweeper    Sweeper
	httpServer *xhttp.Server
}

// New creates a new App. Resources are closed in reverse order on shutdown.
func New(cfg *config.Config, l *applogger.Logger, handlers []xhttp.Handler, sweeper Sweeper, resources ...Resource) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:       cfg,
		log:       l,
		handlers:  handlers,
		resources: resources,
		sweeper:   sweeper,
	}
}

// Server builds the HTTP server on first use.
func (a *App) Server() *xhttp.Server {
	if a.httpServer == nil {
		metricsPath := ""
		if a.cfg.Metrics.Enabled {
			metricsPath = a.cfg.Metrics.Path
		}
		a.httpServer = xhttp.NewServer(a.handlers,
			xhttp.WithHost(a.cfg.Server.Host),
			xhttp.WithPort(a.cfg.Server.Port),
			xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
			xhttp.WithCORS(a.cfg.Server.CORS),
			xhttp.WithMetricsPath(metricsPath),
			xhttp.WithLogger(a.log),
		)
	}
	return a.httpServer
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Server().Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	if a.sweeper != nil {
		go a.sweep(ctx, time.Minute, 10*time.Minute)
	}
	a.log.Info("application started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.Shutdown(context.Background())
}

func (a *App) sweep(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sweeper.Sweep(idle); n > 0 {
				a.log.Debug("rate limit buckets swept", applogger.Int("removed", n))
			}
		}
	}
}

// Shutdown stops the HTTP server and closes every resource.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	for i := len(a.resources) - 1; i >= 0; i-- {
		r := a.resources[i]
		if r.Closer == nil {
			continue
		}
		if err := r.Closer.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", r.Name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
