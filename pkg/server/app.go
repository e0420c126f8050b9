package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	icache "FinCast/internal/service/cache"
	"FinCast/internal/service/ratelimit"
	pkgch "FinCast/pkg/clickhouse"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	pkgkafka "FinCast/pkg/kafka"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/tracing"
)

// limiterSweepEvery is how often idle rate limit buckets are dropped.
const limiterSweepEvery = time.Minute

// Components are the long lived parts the App starts and stops. Nil members
// are optional infrastructure that is disabled in the configuration.
type Components struct {
	HTTP       *xhttp.Server
	Consumer   *pkgkafka.Consumer
	Handlers   []pkgkafka.MessageHandler
	Producer   *pkgkafka.Producer
	ClickHouse *pkgch.Client
	Cache      *icache.SourceCache
	Limiter    *ratelimit.Limiter
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg  *config.Config
	log  *applogger.Logger
	comp Components
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, comp Components) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{cfg: cfg, log: l, comp: comp}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done, then shuts
// down gracefully.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		a.shutdown()
		return err
	}
	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) start(ctx context.Context) error {
	if c := a.comp.Consumer; c != nil && len(a.comp.Handlers) > 0 {
		for _, h := range a.comp.Handlers {
			c.RegisterHandler(h)
		}
		if err := c.Start(); err != nil {
			return err
		}
	}

	if lim := a.comp.Limiter; lim != nil {
		go a.sweepLimiter(ctx, lim)
	}

	if err := a.comp.HTTP.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("fincast started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("providers", a.cfg.Providers.Order),
		applogger.String("forecast_backend", a.cfg.Forecast.Backend),
	)
	return nil
}

func (a *App) sweepLimiter(ctx context.Context, lim *ratelimit.Limiter) {
	t := time.NewTicker(limiterSweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := lim.Sweep(2 * limiterSweepEvery); n > 0 {
				a.log.Debug("rate limit buckets swept", applogger.Int("count", n))
			}
		}
	}
}

// shutdown stops intake first, then flushes and closes infrastructure.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.log.Info("shutting down")

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.comp.HTTP != nil {
		if err := a.comp.HTTP.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			keep(err)
		}
	}
	if a.comp.Consumer != nil {
		if err := a.comp.Consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			keep(err)
		}
	}

	// The log collector publishes through the producer, so flush it first.
	a.log.RemoveCollector()

	if a.comp.Producer != nil {
		if err := a.comp.Producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.comp.ClickHouse != nil {
		if err := a.comp.ClickHouse.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.comp.Cache != nil {
		if err := a.comp.Cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}
	if err := tracing.Shutdown(ctx); err != nil {
		a.log.Warn("tracing shutdown error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return firstErr
}
