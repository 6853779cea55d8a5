package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"quizbattle/internal/domain"
)

// LeaderboardRepository reads boards through a cache (in-memory, Redis, etc).
type LeaderboardRepository interface {
	GetLeaderboard(ctx context.Context, query domain.LeaderboardQuery) (domain.Leaderboard, error)
	Invalidate(ctx context.Context, query domain.LeaderboardQuery) error
}

// LeaderboardService serves rankings and refreshes them after submissions.
type LeaderboardService struct {
	repo LeaderboardRepository
	log  zerolog.Logger
}

func NewLeaderboardService(repo LeaderboardRepository, log zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{repo: repo, log: log.With().Str("component", "leaderboard").Logger()}
}

// Get returns the board for query. An empty type means the global board.
func (s *LeaderboardService) Get(ctx context.Context, query domain.LeaderboardQuery) (domain.Leaderboard, error) {
	if query.Type == "" {
		query.Type = domain.LeaderboardGlobal
	}
	board, err := s.repo.GetLeaderboard(ctx, query)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("leaderboard %s: %w", query.Key(), err)
	}
	return board, nil
}

// Refresh reloads the global board and, for a positive id, the challenge board.
// Both are attempted even when one fails; the first error is returned.
func (s *LeaderboardService) Refresh(ctx context.Context, challengeID int) error {
	queries := []domain.LeaderboardQuery{{Type: domain.LeaderboardGlobal}}
	if challengeID > 0 {
		queries = append(queries, domain.LeaderboardQuery{Type: domain.LeaderboardChallenge, ChallengeID: challengeID})
	}

	var g errgroup.Group
	for _, q := range queries {
		g.Go(func() error {
			if err := s.repo.Invalidate(ctx, q); err != nil {
				s.log.Debug().Err(err).Str("board", q.Key()).Msg("invalidate failed")
			}
			if _, err := s.repo.GetLeaderboard(ctx, q); err != nil {
				return fmt.Errorf("refresh %s: %w", q.Key(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
