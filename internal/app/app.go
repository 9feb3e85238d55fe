package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/menav/internal/config"
	"github.com/MrSnakeDoc/menav/internal/httpserver"
	"github.com/MrSnakeDoc/menav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/menav/internal/index"
	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/migrate"
	"github.com/MrSnakeDoc/menav/internal/redis"
	"github.com/MrSnakeDoc/menav/internal/scheduler"
	"github.com/MrSnakeDoc/menav/internal/site"
	redisstore "github.com/MrSnakeDoc/menav/internal/store/redis"
	"github.com/MrSnakeDoc/menav/internal/utils"
	"github.com/MrSnakeDoc/menav/internal/version"
)

// App is the preview server: rebuild loop, optional watcher and cache, HTTP.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	memIndex    *index.MemoryIndex
	rebuilder   *scheduler.Rebuilder
	watcher     *scheduler.Watcher
	gc          *scheduler.GarbageCollector
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg *config.Config) logger.Logger {
	return logger.New(cfg.LogLevel, cfg.PrettyLog)
}

func newBuilder(cfg *config.Config, log logger.Logger) *site.Builder {
	return site.NewBuilder(site.Options{
		Root:      cfg.Root,
		OutputDir: cfg.OutputDir,
		NoEnv:     cfg.IgnoreEnvOverrides,
	}, log)
}

// Build generates the site once.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*site.Result, error) {
	return newBuilder(cfg, log).Build(ctx)
}

// Migrate converts the legacy configuration of cfg.Root.
func Migrate(cfg *config.Config, force bool, log logger.Logger) (*migrate.Report, error) {
	return migrate.New(cfg.Root, migrate.Options{Force: force}, log).Run()
}

// New wires the preview server. When Redis is configured it must be
// reachable: the connection is retried for RedisConnectTimeout, then New fails.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	loggerClient.Debug("effective configuration", logger.Any("config", cfg.Redacted()))

	memIndex := index.NewMemoryIndex()
	builder := newBuilder(cfg, loggerClient.Named("builder"))

	var (
		redisClient *goredis.Client
		store       scheduler.SnapshotStore
		cache       deps.SearchCache
		pinger      deps.Pinger
		flusher     *redisstore.Store
	)
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.FromConfig(cfg), loggerClient.Named("cache"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		redisClient = client

		s := redisstore.NewStore(client, redisstore.Namespace(cfg.Root))
		store, cache, pinger, flusher = s, s, client, s

		// Serve search from the last mirrored build while the first one runs.
		syncer := scheduler.NewRedisSyncer(s, memIndex, loggerClient.Named("cache"))
		if err := syncer.Sync(ctx); err != nil {
			loggerClient.Warn("failed to sync from redis on startup, waiting for the first build",
				logger.Error(err))
		}
	} else {
		loggerClient.Info("redis not configured, search cache disabled")
	}

	rebuilder := scheduler.NewRebuilder(builder, store, memIndex, loggerClient.Named("rebuilder"), cfg.RebuildInterval)
	if flusher != nil {
		var lastHash string
		rebuilder.OnBuild(func(res *site.Result, err error) {
			if err != nil || res.Hash == lastHash {
				return
			}
			if lastHash != "" {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := flusher.FlushCache(flushCtx); err != nil {
					loggerClient.Warn("failed to flush search cache", logger.Error(err))
				}
				cancel()
			}
			lastHash = res.Hash
		})
	}

	var watcher *scheduler.Watcher
	if cfg.Watch {
		watcher = scheduler.NewWatcher(cfg.Root, []string{builder.OutputDir()},
			cfg.WatchDebounce, rebuilder.Trigger, loggerClient.Named("watcher"))
	}

	var gc *scheduler.GarbageCollector
	if cfg.GCInterval > 0 {
		gc = scheduler.NewGarbageCollector(builder.OutputDir(), memIndex, loggerClient.Named("gc"),
			cfg.GCInterval, scheduler.DefaultGCThreshold)
	}

	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		AllowedHosts:       cfg.AllowedHosts,
		TrustProxy:         cfg.TrustProxy,
		OutputDir:          builder.OutputDir(),
		MemoryIndex:        memIndex,
		Builds:             rebuilder,
		Cache:              cache,
		Redis:              pinger,
		SearchBurst:        cfg.SearchBurst,
		SearchRefillPerMin: cfg.SearchRefillPerMin,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient.Named("http"), d),
		redisClient: redisClient,
		memIndex:    memIndex,
		rebuilder:   rebuilder,
		watcher:     watcher,
		gc:          gc,
	}, nil
}

// Run builds the site, starts the background jobs and serves until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting menav %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("menav %s", version.String())

	if err := a.rebuilder.Start(ctx); err != nil {
		return fmt.Errorf("failed to start rebuilder: %w", err)
	}
	a.logger.Info("rebuilder started",
		logger.Duration("interval", a.cfg.RebuildInterval))

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			a.rebuilder.Stop()
			return fmt.Errorf("failed to start watcher: %w", err)
		}
	}

	if a.gc != nil {
		if err := a.gc.Start(ctx); err != nil {
			if a.watcher != nil {
				a.watcher.Stop()
			}
			a.rebuilder.Stop()
			return fmt.Errorf("failed to start garbage collector: %w", err)
		}
		a.logger.Info("garbage collector started",
			logger.Duration("interval", a.cfg.GCInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.rebuilder.Stop()
	if a.gc != nil {
		a.gc.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.MustClose(a.redisClient, "redis", a.logger)
	}

	if runErr == nil {
		a.logger.Info("✅ menav stopped cleanly")
	}
	return runErr
}
