package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "SmartFlow/internal/middleware"
	"SmartFlow/internal/usecase"
	pkgch "SmartFlow/pkg/clickhouse"
	"SmartFlow/pkg/config"
	xhttp "SmartFlow/pkg/http"
	pkgkafka "SmartFlow/pkg/kafka"
	applogger "SmartFlow/pkg/logger"
	pkgqueue "SmartFlow/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	collector   *usecase.WhaleCollector
	pipeline    *mid.IngestPipeline
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	scanner     *usecase.Scanner
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	chClient    *pkgch.Client
	producer    *pkgkafka.Producer

	// AlertQueue is optional; DI attaches it when Redis is enabled.
	AlertQueue *pkgqueue.RedisQueue
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.WhaleCollector,
	pipeline *mid.IngestPipeline,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	scanner *usecase.Scanner,
	httpHandler xhttp.Handler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *App {
	return &App{
		cfg:         cfg,
		l:           l,
		collector:   collector,
		pipeline:    pipeline,
		consumer:    consumer,
		kh:          kh,
		scanner:     scanner,
		httpHandler: httpHandler,
		chClient:    chClient,
		producer:    producer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.l
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.pipeline != nil {
		a.pipeline.Start(ctx)
	}

	if a.AlertQueue != nil {
		if err := a.AlertQueue.Start(); err != nil {
			l.Error("alert queue start error", applogger.Error(err))
			return err
		}
		l.Info("alert queue started")
	}

	if a.collector != nil {
		go func() {
			if err := a.collector.Run(ctx); err != nil && ctx.Err() == nil {
				l.Error("whale collector error", applogger.Error(err))
			}
		}()
		l.Info("whale collector started",
			applogger.Strings("blockchains", a.cfg.WhaleStream.Symbols),
			applogger.String("backend", a.cfg.WhaleStream.Backend))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.scanner != nil && a.cfg.Scan.Interval > 0 {
		go a.scanLoop(ctx, l)
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	cancel()
	return a.shutdown(l)
}

// scanLoop runs a full watchlist scan immediately and then on every tick
// until the context is cancelled.
func (a *App) scanLoop(ctx context.Context, l *applogger.Logger) {
	tickers := append(append([]string{}, a.cfg.Scan.Tickers...), a.cfg.Scan.Crypto...)

	run := func() {
		if _, err := a.scanner.Scan(ctx, tickers, a.cfg.Scan.LookbackDays, a.cfg.Scan.TopN); err != nil && ctx.Err() == nil {
			l.Error("scheduled scan failed", applogger.Error(err))
		}
	}

	run()
	t := time.NewTicker(a.cfg.Scan.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(l *applogger.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.pipeline != nil {
		a.pipeline.Stop()
	}

	if a.AlertQueue != nil {
		if err := a.AlertQueue.Stop(shutdownCtx); err != nil {
			l.Warn("alert queue stop error", applogger.Error(err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
