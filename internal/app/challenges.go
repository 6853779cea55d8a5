package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"quizbattle/internal/domain"
	"quizbattle/internal/validation"
)

// ChallengeClient is the challenge half of the QuizBattle API.
type ChallengeClient interface {
	ActiveChallenges(ctx context.Context) ([]domain.Challenge, error)
	CompletedChallenges(ctx context.Context) ([]domain.CompletedChallenge, error)
	CreateChallenge(ctx context.Context, req domain.CreateChallengeRequest) (domain.Challenge, error)
	JoinChallenge(ctx context.Context, code string) (domain.Challenge, error)
}

// ChallengeList is the challenge overview shown to a player.
type ChallengeList struct {
	Active    []domain.Challenge
	Completed []domain.CompletedChallenge
}

// JoinResult reports the joined challenge. AlreadyJoined is set on a 409.
type JoinResult struct {
	Challenge     domain.Challenge
	AlreadyJoined bool
}

// ChallengeService contains the challenge lobby use cases.
type ChallengeService struct {
	client ChallengeClient
	log    zerolog.Logger
}

func NewChallengeService(client ChallengeClient, log zerolog.Logger) *ChallengeService {
	return &ChallengeService{client: client, log: log.With().Str("component", "challenges").Logger()}
}

// List returns active and completed challenges. A failure on the completed
// list degrades to an empty list.
func (s *ChallengeService) List(ctx context.Context) (ChallengeList, error) {
	active, err := s.client.ActiveChallenges(ctx)
	if err != nil {
		return ChallengeList{}, fmt.Errorf("list active challenges: %w", err)
	}
	completed, err := s.client.CompletedChallenges(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("completed challenges unavailable")
		completed = nil
	}
	return ChallengeList{Active: active, Completed: completed}, nil
}

// Create validates and creates a challenge.
func (s *ChallengeService) Create(ctx context.Context, req domain.CreateChallengeRequest) (domain.Challenge, error) {
	if err := validation.Struct(req); err != nil {
		return domain.Challenge{}, err
	}
	c, err := s.client.CreateChallenge(ctx, req)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("create challenge: %w", err)
	}
	s.log.Info().Int("challenge_id", c.ID).Str("code", c.Code).Msg("challenge created")
	return c, nil
}

// Join joins by code. Joining twice is not an error; the challenge is then
// looked up among the active ones by code.
func (s *ChallengeService) Join(ctx context.Context, code string) (JoinResult, error) {
	code, err := validation.JoinCode(code)
	if err != nil {
		return JoinResult{}, err
	}

	c, err := s.client.JoinChallenge(ctx, code)
	switch {
	case err == nil:
		return JoinResult{Challenge: c}, nil
	case !errors.Is(err, domain.ErrConflict):
		return JoinResult{}, fmt.Errorf("join %s: %w", code, err)
	}

	res := JoinResult{Challenge: domain.Challenge{Code: code}, AlreadyJoined: true}
	active, err := s.client.ActiveChallenges(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("lookup after conflict failed")
		return res, nil
	}
	for _, a := range active {
		if a.Code == code {
			res.Challenge = a
			break
		}
	}
	return res, nil
}
