package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	domrepo "github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
	"github.com/Kagemann/brondby-stock-tracker/internal/usecase"
	pkgch "github.com/Kagemann/brondby-stock-tracker/pkg/clickhouse"
	"github.com/Kagemann/brondby-stock-tracker/pkg/config"
	xhttp "github.com/Kagemann/brondby-stock-tracker/pkg/http"
	pkgkafka "github.com/Kagemann/brondby-stock-tracker/pkg/kafka"
	applogger "github.com/Kagemann/brondby-stock-tracker/pkg/logger"
)

// App encapsulates the entire application lifecycle: the periodic analysis
// scheduler, the news consumer, and the HTTP API.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	scheduler   *usecase.Scheduler
	collector   *usecase.PriceCollector
	consumer    *pkgkafka.Consumer
	newsHandler pkgkafka.MessageHandler
	chClient    *pkgch.Client
	notifier    domrepo.Notifier
	handlers    []xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	scheduler *usecase.Scheduler,
	collector *usecase.PriceCollector,
	consumer *pkgkafka.Consumer,
	newsHandler pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	notifier domrepo.Notifier,
	handlers ...xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		scheduler:   scheduler,
		collector:   collector,
		consumer:    consumer,
		newsHandler: newsHandler,
		chClient:    chClient,
		notifier:    notifier,
		handlers:    handlers,
	}
}

// multiHandler registers several route groups on one Echo instance.
type multiHandler []xhttp.Handler

func (m multiHandler) RegisterRoutes(e *echo.Echo) {
	for _, h := range m {
		h.RegisterRoutes(e)
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(multiHandler(a.handlers),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestLogger(a.log),
	)

	if a.collector != nil {
		a.collector.Start(ctx)
		a.log.Info("price collector started",
			applogger.String("symbol", a.cfg.MarketData.Symbol),
			applogger.Duration("interval", a.cfg.MarketData.Interval))
	}

	a.scheduler.Start(ctx)
	a.log.Info("scheduler started",
		applogger.Duration("window", a.cfg.Analysis.Window),
		applogger.Duration("interval", a.cfg.Analysis.Interval))

	if a.consumer != nil && a.newsHandler != nil {
		a.consumer.RegisterHandler(a.newsHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.newsHandler.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.scheduler.Stop()
	if a.collector != nil {
		a.collector.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			a.log.Warn("notifier close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
