package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"quizbattle/internal/app"
	"quizbattle/internal/domain"
)

type fakeChallengeClient struct {
	active       []domain.Challenge
	completedErr error
	joinErr      error
	joinedCode   string
	created      int
}

func (c *fakeChallengeClient) ActiveChallenges(context.Context) ([]domain.Challenge, error) {
	return c.active, nil
}

func (c *fakeChallengeClient) CompletedChallenges(context.Context) ([]domain.CompletedChallenge, error) {
	if c.completedErr != nil {
		return nil, c.completedErr
	}
	return []domain.CompletedChallenge{{Challenge: domain.Challenge{ID: 1}}}, nil
}

func (c *fakeChallengeClient) CreateChallenge(_ context.Context, req domain.CreateChallengeRequest) (domain.Challenge, error) {
	c.created++
	return domain.Challenge{ID: 5, Name: req.Name, Code: "ABC123"}, nil
}

func (c *fakeChallengeClient) JoinChallenge(_ context.Context, code string) (domain.Challenge, error) {
	c.joinedCode = code
	if c.joinErr != nil {
		return domain.Challenge{}, c.joinErr
	}
	return domain.Challenge{ID: 8, Code: code}, nil
}

func TestChallengeListDegradesCompleted(t *testing.T) {
	client := &fakeChallengeClient{
		active:       []domain.Challenge{{ID: 1}, {ID: 2}},
		completedErr: &domain.APIError{Status: 500, Kind: domain.ErrTransient},
	}
	svc := app.NewChallengeService(client, zerolog.Nop())

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Active) != 2 || len(list.Completed) != 0 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestChallengeCreateValidates(t *testing.T) {
	client := &fakeChallengeClient{}
	svc := app.NewChallengeService(client, zerolog.Nop())

	_, err := svc.Create(context.Background(), domain.CreateChallengeRequest{Name: "x", ExamType: "JEE", Difficulty: "insane", QuestionCount: 10, TimeLimit: 30})
	if !errors.Is(err, domain.ErrValidation) || client.created != 0 {
		t.Fatalf("expected validation failure before network, got %v", err)
	}

	c, err := svc.Create(context.Background(), domain.CreateChallengeRequest{Name: "Weekly", ExamType: "JEE", Difficulty: "mixed", QuestionCount: 10, TimeLimit: 30})
	if err != nil || c.ID != 5 {
		t.Fatalf("create: %+v %v", c, err)
	}
}

func TestChallengeJoin(t *testing.T) {
	client := &fakeChallengeClient{}
	svc := app.NewChallengeService(client, zerolog.Nop())

	res, err := svc.Join(context.Background(), " abc123 ")
	if err != nil || res.AlreadyJoined || res.Challenge.ID != 8 {
		t.Fatalf("join: %+v %v", res, err)
	}
	if client.joinedCode != "ABC123" {
		t.Fatalf("expected normalized code, got %q", client.joinedCode)
	}

	if _, err := svc.Join(context.Background(), "abc"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestChallengeJoinConflictIsJoined(t *testing.T) {
	client := &fakeChallengeClient{
		active:  []domain.Challenge{{ID: 3, Code: "ZZZ999"}, {ID: 4, Code: "ABC123"}},
		joinErr: &domain.APIError{Status: 409, Message: "Already joined", Kind: domain.ErrConflict},
	}
	svc := app.NewChallengeService(client, zerolog.Nop())

	res, err := svc.Join(context.Background(), "ABC123")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !res.AlreadyJoined || res.Challenge.ID != 4 {
		t.Fatalf("expected already joined challenge 4, got %+v", res)
	}
}
