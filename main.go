package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appOrder "github.com/minicart/fulfillment/internal/application/order"
	"github.com/minicart/fulfillment/internal/config"
	domainCatalog "github.com/minicart/fulfillment/internal/domain/catalog"
	domainOrder "github.com/minicart/fulfillment/internal/domain/order"
	"github.com/minicart/fulfillment/internal/infrastructure/id"
	"github.com/minicart/fulfillment/internal/infrastructure/memory"
	"github.com/minicart/fulfillment/internal/infrastructure/notify"
	obsinfra "github.com/minicart/fulfillment/internal/infrastructure/observability"
	"github.com/minicart/fulfillment/internal/infrastructure/observability/oteltrace"
	"github.com/minicart/fulfillment/internal/infrastructure/observability/prometrics"
	"github.com/minicart/fulfillment/internal/infrastructure/observability/telemetry"
	"github.com/minicart/fulfillment/internal/infrastructure/observability/zaplogger"
	"github.com/minicart/fulfillment/internal/infrastructure/outbox"
	"github.com/minicart/fulfillment/internal/infrastructure/postgres"
	"github.com/minicart/fulfillment/internal/observability"
	httptransport "github.com/minicart/fulfillment/internal/presentation/http"
	"github.com/minicart/fulfillment/internal/pkg/logging"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	log := zaplogger.Wrap(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer_init_failed", observability.F("error", err))
		os.Exit(1)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	tel := buildObservability(cfg.ServiceName, log)

	var (
		cat    domainCatalog.Catalog
		repo   domainOrder.Repository
		atomic appOrder.Atomic
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres_connect_failed", observability.F("error", err))
			os.Exit(1)
		}
		defer db.Close()
		cat = postgres.NewCatalog(db)
		repo = postgres.NewOrderRepository(db)
		atomic = db
		log.Info("storage_backend", observability.F("backend", "postgres"))
	} else {
		memCatalog := memory.NewCatalog()
		seedCatalog(memCatalog, cfg.CatalogSeed, log)
		cat = memCatalog
		repo = memory.NewOrderRepository()
		atomic = memory.NewAtomic()
		log.Info("storage_backend", observability.F("backend", "memory"))
	}

	bus := outbox.NewBus(log)
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyTimeout)
	}
	notify.NewWorker(bus, notifier, tel).Start()

	placeOrder := appOrder.NewPlaceOrderUseCase(repo, cat, atomic, id.NewUUIDGenerator(), bus, tel)
	queries := appOrder.NewQueries(repo, tel)

	handler := httptransport.NewHandler(placeOrder, queries, log, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Info("http_server_start",
			observability.F("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error",
				observability.F("error", err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http_server_shutdown_error",
			observability.F("error", err),
		)
	} else {
		log.Info("http_server_stopped")
	}
}

func buildObservability(serviceName string, log observability.Logger) observability.Observability {
	registry := prometrics.New("", "")

	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: registry.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: registry.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests.",
			"method", "route", "status",
		),
		observability.MExternalRequests: registry.Counter(
			string(observability.MExternalRequests),
			"Total number of outbound calls to collaborators.",
			"peer", "endpoint", "outcome",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: registry.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case",
		),
		observability.MHTTPRequestDuration: registry.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP requests in seconds.",
			prometheus.DefBuckets,
			"method", "route", "status",
		),
		observability.MExternalRequestDuration: registry.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of outbound calls in seconds.",
			prometheus.DefBuckets,
			"peer", "endpoint",
		),
	}

	return obsinfra.New(oteltrace.New(serviceName), log, counters, histograms)
}

// seedCatalog loads id:title:price:qty entries into the in-memory catalog.
func seedCatalog(cat *memory.Catalog, seed string, log observability.Logger) {
	if seed == "" {
		return
	}
	for _, entry := range strings.Split(seed, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 4 {
			log.Warn("catalog_seed_skipped", observability.F("entry", entry))
			continue
		}
		price, perr := decimal.NewFromString(parts[2])
		qty, qerr := strconv.Atoi(parts[3])
		if perr != nil || qerr != nil {
			log.Warn("catalog_seed_skipped", observability.F("entry", entry))
			continue
		}
		product, err := domainCatalog.NewProduct(parts[0], parts[1], price, qty)
		if err != nil {
			log.Warn("catalog_seed_skipped",
				observability.F("entry", entry),
				observability.F("error", err),
			)
			continue
		}
		cat.Put(product)
	}
}
