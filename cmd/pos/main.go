package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cartapp "github.com/dwikikusuma/supershop-pos/internal/cart/app"
	cartapi "github.com/dwikikusuma/supershop-pos/internal/cart/httpapi"
	cartmem "github.com/dwikikusuma/supershop-pos/internal/cart/infra/memory"

	catalogapp "github.com/dwikikusuma/supershop-pos/internal/catalog/app"
	catalogapi "github.com/dwikikusuma/supershop-pos/internal/catalog/httpapi"

	checkoutapp "github.com/dwikikusuma/supershop-pos/internal/checkout/app"
	checkoutapi "github.com/dwikikusuma/supershop-pos/internal/checkout/httpapi"
	"github.com/dwikikusuma/supershop-pos/internal/checkout/infra/idempotency"

	orderapp "github.com/dwikikusuma/supershop-pos/internal/order/app"
	orderapi "github.com/dwikikusuma/supershop-pos/internal/order/httpapi"
	orderkafka "github.com/dwikikusuma/supershop-pos/internal/order/infra/kafka"
	"github.com/dwikikusuma/supershop-pos/internal/order/infra/resilient"

	"github.com/dwikikusuma/supershop-pos/internal/receipt"
	"github.com/dwikikusuma/supershop-pos/pkg/config"
	"github.com/dwikikusuma/supershop-pos/pkg/logger"
	"github.com/dwikikusuma/supershop-pos/pkg/shutdown"
	"github.com/dwikikusuma/supershop-pos/pkg/tracing"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "pos", Env: cfg.AppEnv, Level: cfg.LogLevel})
	tracing.SetupPropagation()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error("store setup failed", slog.String("driver", cfg.StoreDriver), slog.Any("err", err))
		os.Exit(1)
	}

	// Catalog
	catalogSvc := catalogapp.NewService(st.catalog)
	if cfg.SeedCatalog {
		if err := catalogSvc.Seed(ctx, catalogapp.DefaultEntries()); err != nil {
			log.Error("catalog seed failed", slog.Any("err", err))
			os.Exit(1)
		}
	}

	// Cart
	cartSvc := cartapp.NewService(catalogSvc, cartmem.NewCartStore())

	// Orders
	orders := resilient.NewOrderRepo(st.orders, resilient.Settings{}, log)
	formatter := receipt.New(receipt.Options{ShopName: cfg.ShopName})
	orderSvc := orderapp.NewService(orders, formatter)

	// Checkout
	opts := checkoutapp.Options{
		ThankYouMessage: cfg.ThankYouMessage,
		CommitTimeout:   cfg.CommitTimeout,
		ItemConcurrency: cfg.ItemConcurrency,
		Idempotency:     idempotency.NewMemoryStore(cfg.IdempotencyTTL),
		Logger:          log,
	}
	if st.redis != nil {
		opts.Idempotency = idempotency.NewRedisStore(st.redis, cfg.IdempotencyTTL)
	}
	var publisher *orderkafka.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = orderkafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		opts.Publisher = publisher
		log.Info("order events enabled", slog.Any("brokers", cfg.KafkaBrokers), slog.String("topic", cfg.KafkaTopic))
	}
	checkoutSvc := checkoutapp.NewService(orders, opts)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.ping(r.Context()); err != nil {
			log.Warn("not ready", slog.Any("err", err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	catalogapi.NewHandler(catalogSvc, log).Routes(r)
	cartapi.NewHandler(cartSvc, log).Routes(r)
	checkoutapi.NewHandler(cartSvc, checkoutSvc, formatter, log).Routes(r)
	orderapi.NewHandler(orderSvc, log).Routes(r)

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              httpAddr,
		Handler:           otelhttp.NewHandler(r, "pos"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.CommitTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Error("listen failed", slog.Any("err", err), slog.String("addr", grpcAddr))
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("pos", healthpb.HealthCheckResponse_SERVING)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting", slog.String("addr", httpAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("grpc health starting", slog.String("addr", grpcAddr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc serve error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")
	hs.Shutdown()

	err = shutdown.Graceful(10*time.Second,
		server.Shutdown,
		func(ctx context.Context) error { return stopGRPC(ctx, grpcServer, log) },
		func(context.Context) error {
			if publisher == nil {
				return nil
			}
			return publisher.Close()
		},
		func(context.Context) error { return st.Close() },
	)
	if err != nil {
		log.Error("shutdown error", slog.Any("err", err))
	}

	wg.Wait()
	log.Info("bye")
}

func stopGRPC(ctx context.Context, s *grpc.Server, log *slog.Logger) error {
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		log.Warn("graceful stop timeout, forcing stop")
		s.Stop()
	case <-stopped:
	}
	return nil
}
