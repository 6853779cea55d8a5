package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"quizbattle/internal/domain"
	"quizbattle/internal/validation"
)

const (
	DefaultPracticeExamType   = "CBSE 11"
	DefaultPracticeDifficulty = "easy"
	DefaultPracticeCount      = 10
)

// PracticeOptions selects the questions for a practice run.
type PracticeOptions struct {
	ExamType      string `json:"exam_type" validate:"required"`
	Difficulty    string `json:"difficulty" validate:"required"`
	QuestionCount int    `json:"question_count" validate:"min=1,max=100"`
}

// DefaultPracticeOptions returns the lobby defaults.
func DefaultPracticeOptions() PracticeOptions {
	return PracticeOptions{
		ExamType:      DefaultPracticeExamType,
		Difficulty:    DefaultPracticeDifficulty,
		QuestionCount: DefaultPracticeCount,
	}
}

// PracticeClient is the practice half of the QuizBattle API.
type PracticeClient interface {
	Questions(ctx context.Context, examType, difficulty string) ([]domain.Question, error)
	SubmitPractice(ctx context.Context, sub domain.PracticeSubmission) error
}

// NewPracticeSession runs practice questions through a ChallengeSession with
// one minute per requested question. Practice never refreshes leaderboards
// and its submission never fails.
func NewPracticeSession(client PracticeClient, opts PracticeOptions, cfg SessionConfig) (*ChallengeSession, error) {
	if err := validation.Struct(opts); err != nil {
		return nil, err
	}
	cfg.Provider = &practiceProvider{
		client: client,
		opts:   opts,
		log:    cfg.Logger.With().Str("component", "practice").Logger(),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	cfg.Refresher = nil
	return NewChallengeSession(0, cfg), nil
}

// practiceProvider adapts the practice endpoints to ChallengeProvider.
type practiceProvider struct {
	client PracticeClient
	opts   PracticeOptions
	log    zerolog.Logger

	mu        sync.Mutex
	rnd       *rand.Rand
	questions []domain.Question
}

func (p *practiceProvider) PlayChallenge(ctx context.Context, _ int) (domain.Challenge, []domain.Question, error) {
	all, err := p.client.Questions(ctx, p.opts.ExamType, p.opts.Difficulty)
	if err != nil {
		return domain.Challenge{}, nil, fmt.Errorf("load practice questions: %w", err)
	}

	p.mu.Lock()
	selected := make([]domain.Question, len(all))
	copy(selected, all)
	p.rnd.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	if len(selected) > p.opts.QuestionCount {
		selected = selected[:p.opts.QuestionCount]
	}
	p.questions = selected
	p.mu.Unlock()

	c := domain.Challenge{
		Name:          "Practice",
		ExamType:      p.opts.ExamType,
		Difficulty:    p.opts.Difficulty,
		QuestionCount: len(selected),
		TimeLimit:     p.opts.QuestionCount,
		IsActive:      true,
	}
	return c, selected, nil
}

// SubmitChallenge reports the run for leaderboards. Failures are logged only.
func (p *practiceProvider) SubmitChallenge(ctx context.Context, _ int, sub domain.Submission) (domain.SubmissionRecord, error) {
	p.mu.Lock()
	questions := p.questions
	p.mu.Unlock()

	result := ComputeResult(questions, sub.Answers, sub.TimeTaken)
	refs := make([]domain.PracticeQuestionRef, 0, len(questions))
	for _, q := range questions {
		refs = append(refs, domain.PracticeQuestionRef{ID: q.ID, Answer: q.CorrectIndex})
	}

	err := p.client.SubmitPractice(ctx, domain.PracticeSubmission{
		Questions:      refs,
		Answers:        sub.Answers,
		Score:          result.Score,
		CorrectAnswers: result.Correct,
		WrongAnswers:   result.Wrong,
		TimeTaken:      sub.TimeTaken,
	})
	if err != nil {
		p.log.Warn().Err(err).Msg("practice result not recorded")
	}

	return domain.SubmissionRecord{
		Score:          result.Score,
		TotalQuestions: result.Total,
		CorrectAnswers: result.Correct,
		WrongAnswers:   result.Wrong,
		TimeTaken:      sub.TimeTaken,
	}, nil
}
