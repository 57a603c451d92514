package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/theoseek/theoseek/internal/indexer"
	"github.com/theoseek/theoseek/internal/indexer/consumer"
	"github.com/theoseek/theoseek/internal/livesearch"
	"github.com/theoseek/theoseek/internal/livesearch/discovery"
	"github.com/theoseek/theoseek/internal/livesearch/fetch"
	"github.com/theoseek/theoseek/internal/searcher/cache"
	"github.com/theoseek/theoseek/internal/searcher/executor"
	"github.com/theoseek/theoseek/internal/searcher/handler"
	"github.com/theoseek/theoseek/internal/searcher/snippet"
	"github.com/theoseek/theoseek/pkg/config"
	"github.com/theoseek/theoseek/pkg/health"
	"github.com/theoseek/theoseek/pkg/kafka"
	"github.com/theoseek/theoseek/pkg/logger"
	"github.com/theoseek/theoseek/pkg/metrics"
	"github.com/theoseek/theoseek/pkg/middleware"
	"github.com/theoseek/theoseek/pkg/postgres"
	pkgredis "github.com/theoseek/theoseek/pkg/redis"
	"github.com/theoseek/theoseek/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting searcher service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	// Response cache: Redis when reachable, in-process TTL map otherwise.
	var cacheStore cache.Store
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, using in-memory response cache", "error", err)
		cacheStore = cache.NewMemoryStore()
	} else {
		defer redisClient.Close()
		cacheStore = cache.NewRedisStore(redisClient)
		slog.Info("redis response cache enabled", "addr", cfg.Redis.Addr)
	}
	defer cacheStore.Close()
	respCache := cache.New(cacheStore, cfg.Search.CacheTTL)

	// Local index, optionally persisted in postgres.
	var store *indexer.DocumentStore
	var pgClient *postgres.Client
	if cfg.Postgres.Enabled {
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		store = indexer.NewDocumentStore(pgClient)
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
	}
	engine := indexer.NewEngine(store, m)
	if store != nil {
		err := resilience.Retry(ctx, "index-reload", resilience.RetryConfig{}, func() error {
			return engine.Reload(ctx)
		})
		if err != nil {
			slog.Error("failed to reload local index", "error", err)
			os.Exit(1)
		}
	}

	// Out-of-band ingest consumer.
	if cfg.Kafka.Enabled {
		ingestConsumer := consumer.New(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, consumer.HandleMessage(engine)))
		go func() {
			if err := ingestConsumer.Start(ctx); err != nil {
				slog.Error("ingest consumer error", "error", err)
			}
		}()
		slog.Info("ingest consumer started", "topic", cfg.Kafka.Topics.DocumentIngest)
	}

	// Live pipeline.
	var robots *fetch.Robots
	if cfg.Robots.Enabled {
		robots = fetch.NewRobots(&http.Client{Timeout: cfg.Robots.Timeout}, cfg.Fetch.UserAgent, cfg.Robots.Timeout)
		slog.Info("robots checking enabled", "timeout", cfg.Robots.Timeout)
	}
	fetchClient := fetch.NewClient(cfg.Fetch, robots)
	discoveryClient := &http.Client{Timeout: cfg.LiveSearch.DiscoveryTimeout}
	scraper := discovery.NewScraper(discoveryClient)
	orchestrator, err := livesearch.New(scraper, fetchClient, snippet.NewGenerator(), cfg.LiveSearch, m)
	if err != nil {
		slog.Error("failed to build live-search orchestrator", "error", err)
		os.Exit(1)
	}

	exec := executor.New(engine.Index())
	h := handler.New(orchestrator, exec, engine, respCache, m, cfg.Search.DefaultLimit, cfg.Search.MaxResults)

	checker := health.NewChecker()
	checker.Register("local_index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents", engine.DocumentCount()),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.DB.PingContext(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/search/stream", h.SearchStream)
	mux.HandleFunc("POST /api/v1/index", h.IndexDocument)
	mux.HandleFunc("DELETE /api/v1/index/{id}", h.RemoveDocument)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     chain,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("searcher service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("searcher service stopped")
}
