package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizbattle/internal/domain"
)

// LeaderboardLoader fetches a board from the QuizBattle API.
type LeaderboardLoader interface {
	Leaderboard(ctx context.Context, query domain.LeaderboardQuery) ([]domain.LeaderboardEntry, error)
}

// LeaderboardRepository caches leaderboards with TTL to avoid refetching on every view.
type LeaderboardRepository struct {
	loader LeaderboardLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBoard
}

type cachedBoard struct {
	board     domain.Leaderboard
	expiresAt time.Time
}

func NewLeaderboardRepository(loader LeaderboardLoader, ttl time.Duration) *LeaderboardRepository {
	return NewLeaderboardRepositoryWithClock(loader, ttl, time.Now)
}

// NewLeaderboardRepositoryWithClock lets tests control expiry.
func NewLeaderboardRepositoryWithClock(loader LeaderboardLoader, ttl time.Duration, clock func() time.Time) *LeaderboardRepository {
	return &LeaderboardRepository{
		loader: loader,
		ttl:    ttl,
		clock:  clock,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBoard),
	}
}

func (r *LeaderboardRepository) GetLeaderboard(ctx context.Context, query domain.LeaderboardQuery) (domain.Leaderboard, error) {
	key := query.Key()
	if board, ok := r.lookup(key); ok {
		return board, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		if board, ok := r.lookup(key); ok {
			return board, nil
		}

		entries, err := r.loader.Leaderboard(ctx, query)
		if err != nil {
			return domain.Leaderboard{}, err
		}

		now := r.clock()
		board := domain.Leaderboard{Query: query, Entries: entries, FetchedAt: now}
		r.mu.Lock()
		if r.ttl > 0 {
			r.cache[key] = cachedBoard{board: board, expiresAt: now.Add(r.ttlWithJitterLocked())}
		}
		r.mu.Unlock()
		return board, nil
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return result.(domain.Leaderboard), nil
}

// Invalidate drops the cached board so the next read reloads it.
func (r *LeaderboardRepository) Invalidate(_ context.Context, query domain.LeaderboardQuery) error {
	r.mu.Lock()
	delete(r.cache, query.Key())
	r.mu.Unlock()
	return nil
}

func (r *LeaderboardRepository) lookup(key string) (domain.Leaderboard, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[key]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Leaderboard{}, false
	}
	return entry.board, true
}

// ttlWithJitterLocked adds up to 10% jitter to spread expirations. Callers hold mu.
func (r *LeaderboardRepository) ttlWithJitterLocked() time.Duration {
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticLeaderboardLoader serves fixed boards keyed by query key (useful for tests/demos).
type StaticLeaderboardLoader struct {
	boards map[string][]domain.LeaderboardEntry
}

func NewStaticLeaderboardLoader(boards map[string][]domain.LeaderboardEntry) *StaticLeaderboardLoader {
	return &StaticLeaderboardLoader{boards: boards}
}

func (l *StaticLeaderboardLoader) Leaderboard(_ context.Context, query domain.LeaderboardQuery) ([]domain.LeaderboardEntry, error) {
	if entries, ok := l.boards[query.Key()]; ok {
		return entries, nil
	}
	return nil, domain.ErrNotFound
}
