package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/db"
	"github.com/yungbote/classroom-backend/internal/data/repos"
	apihttp "github.com/yungbote/classroom-backend/internal/http"
	"github.com/yungbote/classroom-backend/internal/observability"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/realtime"
	"github.com/yungbote/classroom-backend/internal/realtime/bus"
	"github.com/yungbote/classroom-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Set
	Services Services
	Metrics  *observability.Metrics
	Hub      *realtime.Hub
	Bus      bus.Bus
	Server   *apihttp.Server

	redis        *goredis.Client
	otelShutdown func(context.Context) error
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	a := &App{Log: log, Cfg: cfg}

	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)
	a.Metrics = observability.Init(log, cfg.Metrics)

	conn, err := openDatabase(cfg.DB, log, db.AutoMigrateAll)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.DB = conn

	if err := a.wireBus(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.Hub = realtime.NewHub(log)
	a.Hub.OnConnect(a.Metrics.StreamClientsAdd)

	// services queue events in the request outbox; the router flushes them to the bus
	publish := &services.BusEmitter{Bus: a.Bus, Log: log, Metrics: a.Metrics}
	notify := services.NewCourseNotifier(services.Deferred(publish), a.Metrics)

	a.Repos = repos.NewSet(conn, log)
	aggs, err := wireAggregates(conn, log, cfg.Tx, a.Metrics, a.Repos)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init aggregates: %w", err)
	}
	a.Services, err = wireServices(conn, log, cfg, a.Repos, aggs, notify)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init services: %w", err)
	}
	a.Server = apihttp.NewServer(cfg.Addr(), wireRouter(conn, log, cfg, a.Metrics, a.Services, a.Hub, publish))
	return a, nil
}

// openDatabase connects and migrates; the connection is closed again when
// migration fails.
func openDatabase(cfg db.Config, log *logger.Logger, migrate func(*gorm.DB) error) (*gorm.DB, error) {
	conn, err := db.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := migrate(conn); err != nil {
		if sqlDB, derr := conn.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return conn, nil
}

// wireBus uses redis pub/sub when REDIS_ADDR is set so every replica's SSE
// clients see every event; otherwise events stay in-process.
func (a *App) wireBus(ctx context.Context) error {
	if a.Cfg.Redis.Addr == "" {
		a.Bus = bus.NewLocalBus()
		a.Log.Info("event bus: in-process")
		return nil
	}
	a.redis = goredis.NewClient(&goredis.Options{
		Addr:     a.Cfg.Redis.Addr,
		Password: a.Cfg.Redis.Password,
		DB:       a.Cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", a.Cfg.Redis.Addr, err)
	}
	b, err := bus.NewRedisBus(a.Log, a.redis, a.Cfg.Redis.Channel)
	if err != nil {
		return fmt.Errorf("init redis bus: %w", err)
	}
	a.Bus = b
	a.Log.Info("event bus: redis", "addr", a.Cfg.Redis.Addr, "channel", a.Cfg.Redis.Channel)
	return nil
}

// Run serves HTTP and forwards bus events into the hub until ctx ends or
// either fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if a.Cfg.Metrics.Enabled {
		a.Metrics.StartServer(gctx, a.Log, a.Cfg.Metrics.Addr)
		a.Metrics.StartDBCollector(gctx, a.Log, a.DB)
		a.Metrics.StartRedisCollector(gctx, a.Log, a.redis)
	}

	g.Go(func() error {
		if err := a.Bus.StartForwarder(gctx, a.Hub.Broadcast); err != nil {
			return fmt.Errorf("event forwarder: %w", err)
		}
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		a.Log.Info("http server listening", "addr", a.Cfg.Addr())
		return a.Server.Run(gctx, a.Cfg.ShutdownTimeout)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
}
