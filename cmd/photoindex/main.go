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
	"time"

	"github.com/woodway-ua/photoindex/internal/analytics"
	"github.com/woodway-ua/photoindex/internal/coordinator"
	"github.com/woodway-ua/photoindex/internal/extract"
	"github.com/woodway-ua/photoindex/internal/feedback"
	"github.com/woodway-ua/photoindex/internal/index"
	"github.com/woodway-ua/photoindex/internal/search"
	"github.com/woodway-ua/photoindex/internal/synonyms"
	"github.com/woodway-ua/photoindex/pkg/config"
	"github.com/woodway-ua/photoindex/pkg/health"
	"github.com/woodway-ua/photoindex/pkg/kafka"
	"github.com/woodway-ua/photoindex/pkg/logger"
	"github.com/woodway-ua/photoindex/pkg/metrics"
	"github.com/woodway-ua/photoindex/pkg/middleware"
	"github.com/woodway-ua/photoindex/pkg/postgres"
	pkgredis "github.com/woodway-ua/photoindex/pkg/redis"
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
	slog.Info("starting photo index service",
		"port", cfg.Server.Port,
		"share_root", cfg.Share.RootPath,
		"rebuild_interval", cfg.Index.RebuildInterval,
	)

	var m *metrics.Metrics
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	table := synonyms.NewTable()
	if cfg.Index.SynonymFile != "" {
		if err := table.MergeFile(cfg.Index.SynonymFile); err != nil {
			slog.Error("failed to load synonym file", "file", cfg.Index.SynonymFile, "error", err)
			os.Exit(1)
		}
	}
	vocab := index.DefaultVocabulary()

	scanner := index.NewScanner(cfg.Share.RootPath, cfg.Share.Extensions, table, vocab)
	store := index.NewStore(scanner, cfg.Index.RebuildInterval, cfg.Index.SnapshotFile, m)
	if err := store.LoadWarmStart(); err != nil {
		slog.Warn("warm-start snapshot unusable, waiting for first scan", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go store.Run(ctx)

	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, extraction caching and shared cooldowns disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		slog.Info("redis connected", "addr", cfg.Redis.Addr)
	}

	var extractor extract.Extractor
	if cfg.Extraction.URL != "" {
		extractor = extract.NewCached(
			extract.NewHTTPClient(cfg.Extraction),
			redisClient,
			cfg.Extraction.CacheTTL,
			m,
		)
		slog.Info("keyword extraction enabled", "url", cfg.Extraction.URL)
	} else {
		slog.Warn("no extraction URL configured, callers must supply keywords")
	}

	var fb *feedback.Store
	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, query/feedback log disabled", "error", err)
	} else {
		defer pgClient.Close()
		fb, err = feedback.New(ctx, pgClient)
		if err != nil {
			slog.Error("failed to initialise feedback store", "error", err)
			os.Exit(1)
		}
		slog.Info("feedback store ready", "host", cfg.Postgres.Host)
	}

	var collector *analytics.Collector
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.QueryEventsTopic != "" {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.QueryEventsTopic)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 10000, m)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("query analytics enabled", "topic", cfg.Kafka.QueryEventsTopic)
	}

	engine := search.New(table, vocab, search.Options{
		ResultsPerKeyword: cfg.Search.ResultsPerKeyword,
		BroadThreshold:    cfg.Search.BroadQueryThreshold,
	})
	cooldown := coordinator.NewCooldown(redisClient, cfg.Index.RebuildCooldown)
	coord := coordinator.New(store, engine, extractor, fb, collector, cooldown, cfg.Search, m)
	h := coordinator.NewHandler(coord)

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		snap := store.Current()
		if snap == nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no snapshot yet"}
		}
		age := time.Since(snap.BuiltAt)
		if age > 3*cfg.Index.RebuildInterval {
			return health.ComponentHealth{
				Status:  health.StatusDegraded,
				Message: fmt.Sprintf("snapshot is %s old", age.Round(time.Second)),
			}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d images", snap.ImageCount()),
		}
	})
	checker.Register("share", func(ctx context.Context) health.ComponentHealth {
		if info, err := os.Stat(cfg.Share.RootPath); err != nil || !info.IsDir() {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "share root unreachable"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
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
			if err := pgClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/feedback", h.Feedback)
	mux.HandleFunc("POST /api/v1/index/rebuild", h.Rebuild)
	mux.HandleFunc("GET /api/v1/index/status", h.Status)
	mux.HandleFunc("GET /api/v1/queries/recent", h.RecentQueries)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
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

	slog.Info("photo index service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("photo index service stopped")
}
