package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/orderlab/order-service/internal/awsx"
	"github.com/orderlab/order-service/internal/config"
	"github.com/orderlab/order-service/internal/coordinator"
	"github.com/orderlab/order-service/internal/httpx"
	"github.com/orderlab/order-service/internal/order/postgres"
	"github.com/orderlab/order-service/internal/pkg/cache"
	"github.com/orderlab/order-service/internal/pkg/metrics"
	"github.com/orderlab/order-service/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	store, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	clients := awsx.NewClients(cfg.Region)
	consumer := awsx.NewConsumer(clients, cfg.QueueURL)
	publisher := awsx.NewPublisher(clients, cfg.TopicARN, cfg.EventBusName)

	var orders *cache.OrderCache
	if cfg.RedisAddr != "" {
		orders = cache.NewOrderCache(cfg.RedisAddr, cfg.ServiceName, cfg.CacheTTL)
		defer orders.Close()
	}

	m := metrics.New("orders")
	lifecycle := coordinator.NewLifecycle(store, publisher, store, orders, m)
	worker := coordinator.NewWorker(consumer, lifecycle)
	relay := coordinator.NewRelay(store, publisher, m)

	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		relay.Run(ctx)
	}()

	handler := httpx.NewHandler(lifecycle, worker, store)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpx.NewRouter(handler, m),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}()

	slog.Info("order service running", "addr", server.Addr, "workers", cfg.WorkerCount)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		stop()
	}

	wg.Wait()
}
