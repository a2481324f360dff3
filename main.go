package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"intentcfg/internal/api"
	"intentcfg/internal/cache"
	"intentcfg/internal/config"
	"intentcfg/internal/intent"
	intentStorage "intentcfg/internal/intent/storage"
	"intentcfg/internal/logging"
	"intentcfg/internal/middleware"
	"intentcfg/internal/runtime"
	"intentcfg/internal/snapshot"
	snapshotStorage "intentcfg/internal/snapshot/storage"
	syncsvc "intentcfg/internal/sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Initialize BadgerDB
	db, err := badger.Open(badger.DefaultOptions(cfg.Database.Path))
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	// Initialize stores
	intentStore := intentStorage.NewStore(db)
	versionBox := intentStorage.VersionBoxAdapter{Store: intentStore}
	snapshotStore := snapshotStorage.NewStore(db)

	// Initialize domain services
	lifecycle := intent.NewLifecycle(intentStore, versionBox, logger.Component("lifecycle"))
	builder := snapshot.NewBuilder(intentStore, versionBox, logger.Component("builder"))
	publisher := snapshot.NewPublisher(snapshotStore, builder, logger.Component("publisher"))
	resolver := runtime.NewResolver(snapshotStore, logger.Component("resolver"))

	// Initialize cache tiers. Without a redis address the shared tier
	// runs in-process, which is fine for single-node deployments.
	var shared cache.ConfigCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		shared = cache.NewRedis(client, cfg.SharedTTL(), logger.Component("cache"))
		logger.Info("using redis shared cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		shared = cache.NewMemory(cfg.SharedTTL())
		logger.Info("using in-process shared cache")
	}
	local := cache.NewLocal(cfg.Cache.LocalSize, cfg.LocalTTL())
	tiered := cache.NewTiered(local, shared, logger.Component("cache"))

	// Initialize sync service with the configured scope set
	var scopes []runtime.Scope
	for _, key := range cfg.Sync.Scopes {
		scope, err := runtime.ParseScope(key)
		if err != nil {
			logger.Warn("skipping invalid sync scope", zap.String("scope", key))
			continue
		}
		scopes = append(scopes, scope)
	}
	syncService := syncsvc.NewService(resolver, tiered, scopes, logger.Component("sync"))
	defer syncService.Close()

	syncService.AddListener("change-log", func(ctx context.Context, event syncsvc.Event) {
		logger.Info("runtime config changed",
			zap.String("scope", event.NewConfig.Scope.Key()),
			zap.String("etag", event.NewConfig.Etag),
		)
	})

	// Initialize handlers and router
	mux := api.NewMux(
		api.NewSnapshotHandler(snapshotStore, publisher, syncService, logger.Component("api")),
		api.NewIntentHandler(intentStore, versionBox, lifecycle),
		api.NewConfigHandler(tiered, syncService, logger.Component("api")),
		api.NewSyncHandler(syncService),
	)

	// Apply middleware
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recover(logger),
	)

	// Watch the config file; a change triggers a full resync so cache
	// TTLs and scope sets take effect without a restart.
	watcher, err := config.NewWatcher(cfgPath, logger.Component("config"), func(_ *config.Config) {
		syncService.SyncAll(context.Background())
	})
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
	} else {
		defer watcher.Close()
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
