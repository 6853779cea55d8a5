package api

import (
	"context"
	"net/url"
	"strconv"

	"quizbattle/internal/domain"
)

// leaderboardEntryWire accepts both board shapes the backend emits: global rows
// carry total_score/challenges_completed/last_updated, challenge rows carry
// score/correct_answers/submitted_at, and some deployments nest the username.
type leaderboardEntryWire struct {
	Rank     int    `json:"rank"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	User     *struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	TotalScore          *int             `json:"total_score"`
	Score               *int             `json:"score"`
	ChallengesCompleted int              `json:"challenges_completed"`
	CorrectAnswers      int              `json:"correct_answers"`
	WrongAnswers        int              `json:"wrong_answers"`
	LastUpdated         domain.Timestamp `json:"last_updated"`
	SubmittedAt         domain.Timestamp `json:"submitted_at"`
}

func (w leaderboardEntryWire) normalize(position int) domain.LeaderboardEntry {
	entry := domain.LeaderboardEntry{
		Rank:                w.Rank,
		UserID:              w.UserID,
		Username:            w.Username,
		ChallengesCompleted: w.ChallengesCompleted,
		CorrectAnswers:      w.CorrectAnswers,
		WrongAnswers:        w.WrongAnswers,
		UpdatedAt:           w.LastUpdated.Time,
	}
	if entry.Rank == 0 {
		entry.Rank = position
	}
	if w.User != nil {
		if entry.Username == "" {
			entry.Username = w.User.Username
		}
		if entry.UserID == 0 {
			entry.UserID = w.User.ID
		}
	}
	switch {
	case w.TotalScore != nil && *w.TotalScore != 0:
		entry.Score = *w.TotalScore
	case w.Score != nil:
		entry.Score = *w.Score
	case w.TotalScore != nil:
		entry.Score = *w.TotalScore
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = w.SubmittedAt.Time
	}
	return entry
}

// Leaderboard fetches a board. Challenge boards use /leaderboard/{id}; every
// other query goes through /leaderboard with type and challenge_id params.
func (c *Client) Leaderboard(ctx context.Context, query domain.LeaderboardQuery) ([]domain.LeaderboardEntry, error) {
	var out struct {
		Leaderboard []leaderboardEntryWire `json:"leaderboard"`
	}

	var err error
	if query.Type == domain.LeaderboardChallenge && query.ChallengeID > 0 {
		err = c.getJSON(ctx, "/leaderboard/"+strconv.Itoa(query.ChallengeID), nil, &out)
	} else {
		params := url.Values{}
		typ := query.Type
		if typ == "" {
			typ = domain.LeaderboardGlobal
		}
		params.Set("type", typ)
		if query.ChallengeID > 0 {
			params.Set("challenge_id", strconv.Itoa(query.ChallengeID))
		}
		err = c.getJSON(ctx, "/leaderboard", params, &out)
	}
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(out.Leaderboard))
	for i, raw := range out.Leaderboard {
		entries = append(entries, raw.normalize(i+1))
	}
	return entries, nil
}
