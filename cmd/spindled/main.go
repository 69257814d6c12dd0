package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"spindle/internal/config"
	"spindle/internal/metrics"
	"spindle/internal/server"
	"spindle/internal/sink"
	"spindle/internal/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	span := time.Duration(cfg.Window.SlotSeconds) * time.Second
	requests, err := stats.NewMeter(stats.Config{
		Name:   "requests",
		Span:   span,
		Slots:  cfg.Window.Slots,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("meter init failed", zap.Error(err))
	}
	latency, err := stats.NewLatency(stats.Config{
		Name:   "handle",
		Span:   span,
		Slots:  cfg.Window.Slots,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("latency init failed", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	metrics.Init(registry)
	metrics.RegisterMeter(registry, requests)
	metrics.RegisterLatency(registry, latency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Sink.Enabled {
		pg, err := sink.NewPostgres(ctx, cfg.Sink.DSN, logger)
		if err != nil {
			logger.Fatal("sink init failed", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("sink migration failed", zap.Error(err))
		}

		recorder := sink.NewRecorder(pg, time.Duration(cfg.Sink.FlushSeconds)*time.Second,
			func(now time.Time) []sink.Snapshot {
				var snaps []sink.Snapshot
				if rate, err := requests.Rate(); err == nil {
					snaps = append(snaps, sink.Snapshot{Name: requests.Name(), Value: rate, TakenAt: now})
				}
				if avg, err := latency.Average(); err == nil {
					snaps = append(snaps, sink.Snapshot{Name: latency.Name(), Value: avg.Seconds(), TakenAt: now})
				}
				return snaps
			}, logger)
		go recorder.Run(ctx)
		logger.Info("snapshot sink enabled", zap.Int("flush_seconds", cfg.Sink.FlushSeconds))
	}

	srv := server.New(logger, []*stats.Meter{requests}, latency)
	mux := http.NewServeMux()
	srv.Routes(mux, registry)

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
}
