package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clearcheck/internal/catalog"
	"clearcheck/internal/catalog/cache"
	catalogmetrics "clearcheck/internal/catalog/metrics"
	"clearcheck/internal/location"
	locationcache "clearcheck/internal/location/cache"
	mappinghandler "clearcheck/internal/mapping/handler"
	mappingmetrics "clearcheck/internal/mapping/metrics"
	mappingservice "clearcheck/internal/mapping/service"
	"clearcheck/internal/mapping/store"
	order "clearcheck/internal/order"
	orderhandler "clearcheck/internal/order/handler"
	ordermetrics "clearcheck/internal/order/metrics"
	"clearcheck/internal/order/orchestrator"
	"clearcheck/internal/order/resolver"
	"clearcheck/internal/platform/config"
	"clearcheck/internal/platform/httpserver"
	"clearcheck/internal/platform/logger"
	"clearcheck/internal/platform/middleware"
	"clearcheck/internal/platform/postgres"
	platformredis "clearcheck/internal/platform/redis"
	audit "clearcheck/pkg/platform/audit"
	"clearcheck/pkg/platform/audit/publisher"
	kafkasink "clearcheck/pkg/platform/audit/sink/kafka"
	auditmem "clearcheck/pkg/platform/audit/store/memory"
)

// main wires dependencies and owns the process lifecycle. Every external
// system degrades to an in-process fallback when unconfigured, so the
// service runs standalone in development.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	var mappingStore store.Store
	if db != nil {
		mappingStore = store.NewPostgres(db)
	} else {
		log.Warn("postgres not configured, using in-memory mapping store")
		mappingStore = store.NewInMemory()
	}

	var auditStore audit.Store
	var sink *kafkasink.Sink
	if len(cfg.KafkaBrokers) > 0 {
		sink, err = kafkasink.NewSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		auditStore = sink
	} else {
		log.Warn("kafka not configured, keeping audit events in memory")
		auditStore = auditmem.NewInMemoryStore()
	}
	auditPub := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(256),
		publisher.WithLogger(log),
	)

	var locationClient location.Client
	if cfg.LocationFeedURL != "" {
		locationClient = location.NewHTTPClient(cfg.LocationFeedURL)
	} else {
		log.Warn("location feed not configured, serving mock locations")
		locationClient = location.MockClient{}
	}

	var catalogClient catalog.Client
	if cfg.CatalogFeedURL != "" {
		catalogClient = catalog.NewHTTPClient(cfg.CatalogFeedURL)
	} else {
		log.Warn("catalog feed not configured, serving mock catalog")
		catalogClient = catalog.MockClient{}
	}
	if redisClient != nil {
		catalogClient = cache.NewRedisCache(catalogClient, redisClient, config.CatalogCacheTTL, catalogmetrics.For("catalog"))
		locationClient = locationcache.NewRedisCache(locationClient, redisClient, config.CatalogCacheTTL, catalogmetrics.For("locations"))
	}

	var orderClient order.Client
	if cfg.SubmitURL != "" {
		orderClient = order.NewHTTPClient(cfg.SubmitURL)
	} else {
		log.Warn("order store not configured, accepting submissions in memory")
		orderClient = &order.MockClient{}
	}

	jwtValidator := middleware.NewHMACValidator(cfg.JWTSigningKey)

	configService, err := mappingservice.New(locationClient, catalogClient, mappingStore,
		mappingservice.WithLogger(log),
		mappingservice.WithAuditPublisher(auditPub),
		mappingservice.WithMetrics(mappingmetrics.New()),
	)
	if err != nil {
		log.Error("config service init failed", "error", err)
		os.Exit(1)
	}

	orderMetrics := ordermetrics.New()
	requirementResolver, err := resolver.New(catalogClient, mappingStore,
		resolver.WithLogger(log),
		resolver.WithMetrics(orderMetrics),
	)
	if err != nil {
		log.Error("resolver init failed", "error", err)
		os.Exit(1)
	}
	submitOrchestrator, err := orchestrator.New(orderClient,
		orchestrator.WithLogger(log),
		orchestrator.WithAuditPublisher(auditPub),
		orchestrator.WithMetrics(orderMetrics),
	)
	if err != nil {
		log.Error("orchestrator init failed", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	mappinghandler.New(configService, log, jwtValidator).Register(router)
	orderhandler.New(requirementResolver, submitOrchestrator, log, jwtValidator).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting clearcheck", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	auditPub.Close()
	if sink != nil {
		sink.Close()
	}
	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
}
