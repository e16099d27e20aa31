package main

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Gopher0727/StarterPacks/config"
	"github.com/Gopher0727/StarterPacks/internal/cache"
	"github.com/Gopher0727/StarterPacks/internal/query"
	"github.com/Gopher0727/StarterPacks/internal/repositories"
	"github.com/Gopher0727/StarterPacks/internal/services"
	"github.com/Gopher0727/StarterPacks/internal/storage"
	logger "github.com/Gopher0727/StarterPacks/middleware/log"
)

// app 持有进程级资源：一个共享的存储连接、可选的 Redis 客户端以及装配好的服务
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	store repositories.Pinger
	redis *redis.Client

	packs repositories.PackRepository
	users repositories.UserRepository

	search *services.SearchService
	pack   *services.PackService
	user   *services.UserService
	stats  *services.StatsService

	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	switch cfg.Store.Driver {
	case "memory":
		mem := repositories.NewMemoryStore(nil, nil)
		if cfg.Store.Fixture != "" {
			var err error
			if mem, err = repositories.LoadFixture(cfg.Store.Fixture); err != nil {
				return nil, err
			}
		}
		a.store, a.packs, a.users = mem, mem.Packs(), mem.Users()
		log.Info("using in-memory store", zap.String("fixture", cfg.Store.Fixture))
	default:
		m, err := storage.InitMongo(ctx, &cfg.Mongo)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, m.Close)
		a.store = m
		a.packs = repositories.NewMongoPackRepository(m.DB, cfg.Mongo.PacksCollection, cfg.Mongo.OpTimeout)
		a.users = repositories.NewMongoUserRepository(m.DB, cfg.Mongo.UsersCollection, cfg.Mongo.OpTimeout)
		log.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))
	}

	if cfg.Redis.Enabled {
		client, err := storage.InitRedis(ctx, &cfg.Redis)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.redis = client
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr()))
	}

	opts := query.Options{
		RawPattern:           cfg.Search.RawPattern,
		KeepNoRemainingPacks: cfg.Search.KeepNoRemainingPacks,
	}
	c := cache.New(a.redis)
	join := services.NewJoiner(a.packs, a.users, log)

	a.search = services.NewSearchService(a.packs, a.users, join, opts)
	a.pack = services.NewPackService(a.packs, join, c, cfg.Cache.LabelsTTL, cfg.Search.MaxLabelIDs, log)
	a.user = services.NewUserService(a.users, join, opts)
	a.stats = services.NewStatsService(a.packs, a.users, c, cfg.Cache.StatsTTL, cfg.Stats.Strict, log)
	return a, nil
}

// Close 按获取的逆序释放资源
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

func loadConfigAndLogger() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("配置初始化失败: %w", err)
	}
	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("日志初始化失败: %w", err)
	}
	return cfg, log, nil
}
