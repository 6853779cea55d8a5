package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quizbattle/internal/domain"
)

func TestLeaderboardRepositoryCaches(t *testing.T) {
	loader := &countingLoader{LeaderboardLoader: NewStaticLeaderboardLoader(sampleBoards())}
	repo := NewLeaderboardRepository(loader, time.Minute)
	query := domain.LeaderboardQuery{Type: domain.LeaderboardGlobal}

	board, err := repo.GetLeaderboard(context.Background(), query)
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if len(board.Entries) != 2 || board.Entries[0].Username != "alice" {
		t.Fatalf("unexpected board %+v", board)
	}
	if _, err := repo.GetLeaderboard(context.Background(), query); err != nil {
		t.Fatalf("get leaderboard 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestLeaderboardRepositoryExpiresAndInvalidates(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	loader := &countingLoader{LeaderboardLoader: NewStaticLeaderboardLoader(sampleBoards())}
	repo := NewLeaderboardRepositoryWithClock(loader, time.Minute, clock)
	query := domain.LeaderboardQuery{Type: domain.LeaderboardChallenge, ChallengeID: 7}

	_, _ = repo.GetLeaderboard(context.Background(), query)
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetLeaderboard(context.Background(), query)
	if loader.count() != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.count())
	}

	if err := repo.Invalidate(context.Background(), query); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetLeaderboard(context.Background(), query)
	if loader.count() != 3 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.count())
	}
}

func TestLeaderboardRepositoryDoesNotCacheErrors(t *testing.T) {
	loader := &countingLoader{LeaderboardLoader: NewStaticLeaderboardLoader(nil)}
	repo := NewLeaderboardRepository(loader, time.Minute)
	query := domain.LeaderboardQuery{Type: domain.LeaderboardGlobal}

	for i := 0; i < 2; i++ {
		if _, err := repo.GetLeaderboard(context.Background(), query); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.count() != 2 {
		t.Fatalf("errors should not be cached, loader calls %d", loader.count())
	}
}

type countingLoader struct {
	LeaderboardLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) Leaderboard(ctx context.Context, query domain.LeaderboardQuery) ([]domain.LeaderboardEntry, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.LeaderboardLoader.Leaderboard(ctx, query)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleBoards() map[string][]domain.LeaderboardEntry {
	return map[string][]domain.LeaderboardEntry{
		"global": {
			{Rank: 1, UserID: 1, Username: "alice", Score: 40},
			{Rank: 2, UserID: 2, Username: "bob", Score: 12},
		},
		"challenge:7": {
			{Rank: 1, UserID: 2, Username: "bob", Score: 20},
		},
	}
}
