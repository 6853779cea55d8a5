package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"quizbattle/internal/domain"
)

// LeaderboardLoader fetches a board from the QuizBattle API.
type LeaderboardLoader interface {
	Leaderboard(ctx context.Context, query domain.LeaderboardQuery) ([]domain.LeaderboardEntry, error)
}

// LeaderboardRepository caches boards in Redis as JSON and falls back to the loader on miss.
// Boards are stored as: SET quizbattle:leaderboard:{query key} {json} EX ttl
type LeaderboardRepository struct {
	client *redis.Client
	loader LeaderboardLoader
	ttl    time.Duration
	log    zerolog.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewLeaderboardRepository(client *redis.Client, loader LeaderboardLoader, ttl time.Duration, log zerolog.Logger) *LeaderboardRepository {
	return &LeaderboardRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log.With().Str("component", "redis_leaderboard").Logger(),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *LeaderboardRepository) GetLeaderboard(ctx context.Context, query domain.LeaderboardQuery) (domain.Leaderboard, error) {
	key := r.key(query)
	if board, ok := r.cached(ctx, key); ok {
		return board, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if board, ok := r.cached(ctx, key); ok {
			return board, nil
		}

		entries, err := r.loader.Leaderboard(ctx, query)
		if err != nil {
			return domain.Leaderboard{}, err
		}
		board := domain.Leaderboard{Query: query, Entries: entries, FetchedAt: time.Now()}

		if ttl := r.ttlWithJitter(); ttl > 0 {
			raw, err := json.Marshal(board)
			if err == nil {
				err = r.client.Set(ctx, key, raw, ttl).Err()
			}
			if err != nil {
				r.log.Warn().Err(err).Str("key", key).Msg("failed to cache leaderboard")
			}
		}
		return board, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// Invalidate deletes the cached board.
func (r *LeaderboardRepository) Invalidate(ctx context.Context, query domain.LeaderboardQuery) error {
	return r.client.Del(ctx, r.key(query)).Err()
}

func (r *LeaderboardRepository) cached(ctx context.Context, key string) (domain.Leaderboard, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Debug().Err(err).Str("key", key).Msg("leaderboard cache read failed")
		}
		return domain.Leaderboard{}, false
	}
	var board domain.Leaderboard
	if err := json.Unmarshal(raw, &board); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("dropping corrupt leaderboard cache entry")
		_ = r.client.Del(ctx, key).Err()
		return domain.Leaderboard{}, false
	}
	return board, true
}

func (r *LeaderboardRepository) key(query domain.LeaderboardQuery) string {
	return "quizbattle:leaderboard:" + query.Key()
}

func (r *LeaderboardRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
