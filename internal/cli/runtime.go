package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"quizbattle/internal/api"
	"quizbattle/internal/app"
	"quizbattle/internal/config"
	"quizbattle/internal/domain"
	"quizbattle/internal/infra/file"
	"quizbattle/internal/infra/memory"
	redisinfra "quizbattle/internal/infra/redis"
	"quizbattle/internal/logger"
)

// runtime is the set of collaborators a command works with.
type runtime struct {
	cfg    config.Config
	log    zerolog.Logger
	client *api.Client
	auth   *app.AuthContext
	redis  *redis.Client
}

func bootstrap(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	rt := &runtime{cfg: cfg, log: log}
	if cfg.Redis.Addr != "" {
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	rt.client = api.New(api.Options{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       config.TTLDuration(cfg.API.Timeout, 30*time.Second),
		UploadTimeout: config.TTLDuration(cfg.API.UploadTimeout, 2*time.Minute),
		Logger:        log,
	})

	store, err := rt.tokenStore()
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.auth = app.NewAuthContext(rt.client, store, log)
	if err := rt.auth.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("could not restore session")
	}
	return rt, nil
}

func (rt *runtime) tokenStore() (app.TokenStore, error) {
	switch rt.cfg.Auth.TokenStore {
	case config.TokenStoreFile, "":
		return file.NewTokenStore(rt.cfg.Auth.TokenPath), nil
	case config.TokenStoreMemory:
		return memory.NewTokenStore(), nil
	case config.TokenStoreRedis:
		if rt.redis == nil {
			return nil, fmt.Errorf("token_store redis requires redis.addr")
		}
		return redisinfra.NewTokenStore(rt.redis, redisinfra.DefaultTokenKey, config.TTLDuration(rt.cfg.Redis.TTL, 0)), nil
	default:
		return nil, fmt.Errorf("unknown token_store %q", rt.cfg.Auth.TokenStore)
	}
}

// leaderboards picks the Redis cache when Redis is configured.
func (rt *runtime) leaderboards() *app.LeaderboardService {
	ttl := config.TTLDuration(rt.cfg.Leaderboard.CacheTTL, 30*time.Second)
	var repo app.LeaderboardRepository
	if rt.redis != nil {
		repo = redisinfra.NewLeaderboardRepository(rt.redis, rt.client, ttl, rt.log)
	} else {
		repo = memory.NewLeaderboardRepository(rt.client, ttl)
	}
	return app.NewLeaderboardService(repo, rt.log)
}

func (rt *runtime) refreshDelay() time.Duration {
	return config.TTLDuration(rt.cfg.Leaderboard.RefreshDelay, time.Second)
}

func (rt *runtime) requireUser() error {
	if !rt.auth.IsAuthenticated() {
		return fmt.Errorf("%w: run `quizbattle login` first", domain.ErrUnauthenticated)
	}
	return nil
}

func (rt *runtime) requireAdmin() error {
	if !rt.auth.IsAdmin() {
		return fmt.Errorf("%w: run `quizbattle admin-login` first", domain.ErrUnauthenticated)
	}
	return nil
}

func (rt *runtime) Close() {
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
}
