package app

import (
	"math"

	"quizbattle/internal/domain"
)

const (
	pointsPerCorrect = 4
	penaltyPerWrong  = 1
)

// ComputeResult scores an attempt from the question set and the final answers
// (question id -> option index). It is a pure function.
func ComputeResult(questions []domain.Question, answers map[int]int, timeTaken int) domain.Result {
	res := domain.Result{
		Total:     len(questions),
		TimeTaken: timeTaken,
		Questions: make([]domain.QuestionResult, 0, len(questions)),
	}

	for _, q := range questions {
		row := domain.QuestionResult{Question: q}
		if idx, ok := answers[q.ID]; ok {
			answer := idx
			row.UserAnswer = &answer
			row.IsAnswered = true
			row.IsCorrect = idx == q.CorrectIndex
		}
		switch {
		case row.IsCorrect:
			res.Correct++
		case row.IsAnswered:
			res.Wrong++
		}
		res.Questions = append(res.Questions, row)
	}

	res.Unanswered = res.Total - res.Correct - res.Wrong
	res.Score = Score(res.Correct, res.Wrong)
	if res.Total > 0 {
		res.Percentage = int(math.Round(float64(res.Correct) / float64(res.Total) * 100))
	}
	return res
}

// Score is floored at zero.
func Score(correct, wrong int) int {
	score := correct*pointsPerCorrect - wrong*penaltyPerWrong
	if score < 0 {
		return 0
	}
	return score
}
