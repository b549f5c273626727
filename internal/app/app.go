package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/cradle/internal/babybuddy"
	"github.com/MrSnakeDoc/cradle/internal/config"
	"github.com/MrSnakeDoc/cradle/internal/dispatch"
	"github.com/MrSnakeDoc/cradle/internal/httpserver"
	"github.com/MrSnakeDoc/cradle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cradle/internal/index"
	"github.com/MrSnakeDoc/cradle/internal/logger"
	"github.com/MrSnakeDoc/cradle/internal/manifest"
	"github.com/MrSnakeDoc/cradle/internal/metrics"
	"github.com/MrSnakeDoc/cradle/internal/redis"
	"github.com/MrSnakeDoc/cradle/internal/scheduler"
	"github.com/MrSnakeDoc/cradle/internal/schema"
	redisstore "github.com/MrSnakeDoc/cradle/internal/store/redis"
	"github.com/MrSnakeDoc/cradle/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	client      *babybuddy.Client
	memIndex    *index.MemoryIndex
	refresher   *scheduler.ChildRefresher
	gc          *scheduler.GarbageCollector
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	// Build the service schema table from the manifest
	table, err := manifest.Build(cfg.ManifestFile, schema.Strict(cfg.StrictServiceCalls))
	if err != nil {
		loggerClient.Errorf("Failed to build service schema table: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("service schema table built",
		logger.Int("services", table.Len()))

	// Initialize memory index
	memIndex := index.NewMemoryIndex()

	// Initialize Redis store
	store := redisstore.NewStore(redisClient)

	// Try to sync children from Redis to memory on startup
	syncer := scheduler.NewRedisSyncer(store, memIndex, loggerClient)
	if err := syncer.Sync(context.Background()); err != nil {
		loggerClient.Warn("failed to sync from redis on startup, will load from babybuddy",
			logger.Error(err))
	}

	// Prometheus metrics
	collector := metrics.New()

	// Baby Buddy API client
	client := babybuddy.New(babybuddy.Options{
		Host:    cfg.BabyBuddyHost,
		Port:    cfg.BabyBuddyPort,
		APIKey:  cfg.BabyBuddyAPIKey,
		Timeout: cfg.BabyBuddyTimeout,
	}, loggerClient, collector)

	// Create manual refresh trigger channel
	reloadTrigger := make(chan struct{}, 1)

	// Initialize child refresher
	refresher := scheduler.NewChildRefresher(
		client,
		store,
		memIndex,
		collector,
		loggerClient,
		cfg.RefreshInterval,
		reloadTrigger,
	)

	// Initialize garbage collector
	gc := scheduler.NewGarbageCollector(
		store,
		memIndex,
		loggerClient,
		cfg.GCInterval,
		cfg.GCThreshold,
	)

	// Service dispatcher
	dispatcher := dispatch.NewDispatcher(client, loggerClient)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RedisClient:     redisClient,
		Store:           store,
		MemoryIndex:     memIndex,
		Table:           table,
		Dispatcher:      dispatcher,
		Metrics:         collector,
		ReloadTrigger:   reloadTrigger,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		client:      client,
		memIndex:    memIndex,
		refresher:   refresher,
		gc:          gc,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Cradle v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Cradle %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Discover API endpoints before anything talks to the upstream
	if err := a.client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to babybuddy: %w", err)
	}
	a.logger.Info("connected to babybuddy")

	// Start child refresher (polls children and starts periodic refresh)
	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start child refresher: %w", err)
	}
	a.logger.Info("child refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval))

	// Start garbage collector
	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop refresher
	a.refresher.Stop()

	// Stop garbage collector
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Cradle stopped cleanly")
	return nil
}
