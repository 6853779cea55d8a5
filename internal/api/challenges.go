package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"quizbattle/internal/domain"
)

func (c *Client) ActiveChallenges(ctx context.Context) ([]domain.Challenge, error) {
	var out struct {
		Challenges []domain.Challenge `json:"challenges"`
	}
	err := c.getJSON(ctx, "/challenges/active", nil, &out)
	return out.Challenges, err
}

func (c *Client) CompletedChallenges(ctx context.Context) ([]domain.CompletedChallenge, error) {
	var out struct {
		Challenges []domain.CompletedChallenge `json:"challenges"`
	}
	err := c.getJSON(ctx, "/challenges/completed", nil, &out)
	return out.Challenges, err
}

func (c *Client) CreateChallenge(ctx context.Context, req domain.CreateChallengeRequest) (domain.Challenge, error) {
	var out struct {
		Challenge domain.Challenge `json:"challenge"`
	}
	err := c.sendJSON(ctx, http.MethodPost, "/challenges/create", req, &out)
	return out.Challenge, err
}

// JoinChallenge joins by code. A 409 (already joined) surfaces as domain.ErrConflict.
func (c *Client) JoinChallenge(ctx context.Context, code string) (domain.Challenge, error) {
	var out struct {
		Challenge domain.Challenge `json:"challenge"`
	}
	err := c.sendJSON(ctx, http.MethodPost, "/challenges/join/"+url.PathEscape(code), nil, &out)
	return out.Challenge, err
}

// PlayChallenge fetches a challenge and its question set. A missing challenge
// object in a 2xx body is reported as domain.ErrChallengeNotFound.
func (c *Client) PlayChallenge(ctx context.Context, challengeID int) (domain.Challenge, []domain.Question, error) {
	var out struct {
		Challenge *domain.Challenge `json:"challenge"`
		Questions []domain.Question `json:"questions"`
	}
	if err := c.getJSON(ctx, challengePath(challengeID, "play"), nil, &out); err != nil {
		return domain.Challenge{}, nil, err
	}
	if out.Challenge == nil {
		return domain.Challenge{}, nil, domain.ErrChallengeNotFound
	}
	return *out.Challenge, out.Questions, nil
}

func (c *Client) SubmitChallenge(ctx context.Context, challengeID int, sub domain.Submission) (domain.SubmissionRecord, error) {
	var out struct {
		Result domain.SubmissionRecord `json:"result"`
	}
	err := c.sendJSON(ctx, http.MethodPost, challengePath(challengeID, "submit"), sub, &out)
	return out.Result, err
}

func (c *Client) ChallengeResults(ctx context.Context, challengeID int) ([]domain.SubmissionRecord, error) {
	var out struct {
		Results []domain.SubmissionRecord `json:"results"`
	}
	err := c.getJSON(ctx, challengePath(challengeID, "results"), nil, &out)
	return out.Results, err
}

// Questions lists practice questions, optionally filtered.
func (c *Client) Questions(ctx context.Context, examType, difficulty string) ([]domain.Question, error) {
	q := url.Values{}
	if examType != "" {
		q.Set("exam_type", examType)
	}
	if difficulty != "" {
		q.Set("difficulty", difficulty)
	}
	var out struct {
		Questions []domain.Question `json:"questions"`
	}
	err := c.getJSON(ctx, "/quizzes/questions", q, &out)
	return out.Questions, err
}

func (c *Client) SubmitPractice(ctx context.Context, sub domain.PracticeSubmission) error {
	return c.sendJSON(ctx, http.MethodPost, "/quizzes/practice/submit", sub, nil)
}

func challengePath(id int, action string) string {
	return fmt.Sprintf("/challenges/%d/%s", id, action)
}
