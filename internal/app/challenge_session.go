package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quizbattle/internal/domain"
)

// AuthGate reports whether the caller may play.
type AuthGate interface {
	IsAuthenticated() bool
}

// ChallengeProvider fetches a challenge with its questions and records submissions.
type ChallengeProvider interface {
	PlayChallenge(ctx context.Context, challengeID int) (domain.Challenge, []domain.Question, error)
	SubmitChallenge(ctx context.Context, challengeID int, sub domain.Submission) (domain.SubmissionRecord, error)
}

// NavigationGuard is supplied by the hosting shell. The registered handler
// returns true when the navigation may proceed.
type NavigationGuard interface {
	ConfirmNavigation() bool
	OnNavigationAttempt(handler func() bool)
}

// Navigator routes the hosting shell away from the session.
type Navigator interface {
	ToChallengeList()
	ToLogin()
}

// LeaderboardRefresher is called best-effort after a successful submission.
type LeaderboardRefresher interface {
	Refresh(ctx context.Context, challengeID int) error
}

// EmptyState distinguishes the terminal load outcomes that are not errors.
type EmptyState int

const (
	EmptyNone EmptyState = iota
	EmptyNotFound
	EmptyNoQuestions
)

const (
	msgChallengeNotFound = "Challenge data not found"
	msgNoQuestions       = "No questions available for this challenge"
	msgLoadFailed        = "Failed to load challenge data"
	msgTimeUp            = "Time is up! Submitting your answers automatically..."
	msgSubmitted         = "Quiz submitted successfully!"
	msgSubmitFailed      = "Failed to submit quiz"
)

type timeWarning struct {
	at      int
	message string
}

var timeWarnings = []timeWarning{
	{at: 300, message: "Only 5 minutes remaining!"},
	{at: 60, message: "Only 1 minute remaining! Quiz will auto-submit."},
	{at: 30, message: "30 seconds left! Auto-submitting soon..."},
}

const backgroundRefreshTimeout = 30 * time.Second

// SkipConfirmation is returned instead of submitting when skipped questions remain.
// Numbers are 1-based question positions in question order.
type SkipConfirmation struct {
	Numbers []int
	Indexes []int
}

// SubmitOutcome carries either a deferred confirmation or the final result.
type SubmitOutcome struct {
	Deferred *SkipConfirmation
	Result   *domain.Result
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	AttemptID    string
	Phase        domain.Phase
	Empty        EmptyState
	Challenge    domain.Challenge
	Questions    int
	CurrentIndex int
	Current      *domain.Question
	TimeLeft     int
	Answers      map[int]int
	Skipped      map[int]bool
	Result       *domain.Result
	Record       *domain.SubmissionRecord
}

// Answered reports the selected option for question id, if any.
func (s Snapshot) Answered(id int) (int, bool) {
	idx, ok := s.Answers[id]
	return idx, ok
}

// SessionConfig wires a ChallengeSession to its collaborators.
// Only Provider is required.
type SessionConfig struct {
	Provider     ChallengeProvider
	Auth         AuthGate
	Notifier     Notifier
	Navigator    Navigator
	Refresher    LeaderboardRefresher
	RefreshDelay time.Duration
	NewTicker    TickerFactory
	Logger       zerolog.Logger
}

// ChallengeSession drives one user through one timed attempt at a challenge.
type ChallengeSession struct {
	challengeID  int
	provider     ChallengeProvider
	auth         AuthGate
	notifier     Notifier
	navigator    Navigator
	refresher    LeaderboardRefresher
	refreshDelay time.Duration
	newTicker    TickerFactory
	log          zerolog.Logger

	mu            sync.Mutex
	phase         domain.Phase
	empty         EmptyState
	attemptID     string
	challenge     domain.Challenge
	questions     []domain.Question
	answers       map[int]int
	skipped       map[int]bool
	current       int
	timeLeft      int
	warningsFired map[int]bool
	expired       bool
	timer         *countdown
	timerGen      uint64
	result        *domain.Result
	record        *domain.SubmissionRecord
	done          chan struct{}
	finished      bool

	refreshWG sync.WaitGroup
}

func NewChallengeSession(challengeID int, cfg SessionConfig) *ChallengeSession {
	s := &ChallengeSession{
		challengeID:  challengeID,
		provider:     cfg.Provider,
		auth:         cfg.Auth,
		notifier:     cfg.Notifier,
		navigator:    cfg.Navigator,
		refresher:    cfg.Refresher,
		refreshDelay: cfg.RefreshDelay,
		newTicker:    cfg.NewTicker,
		log:          cfg.Logger.With().Str("component", "challenge_session").Int("challenge_id", challengeID).Logger(),
		phase:        domain.PhaseNotStarted,
		done:         make(chan struct{}),
	}
	if s.notifier == nil {
		s.notifier = discardNotifier{}
	}
	if s.navigator == nil {
		s.navigator = noopNavigator{}
	}
	if s.newTicker == nil {
		s.newTicker = NewStdTicker
	}
	return s
}

// ChallengeID returns the id the session was created for.
func (s *ChallengeSession) ChallengeID() int {
	return s.challengeID
}

// Load fetches the challenge and its questions. Failures are terminal for the
// session and route the shell away.
func (s *ChallengeSession) Load(ctx context.Context) error {
	if s.auth != nil && !s.auth.IsAuthenticated() {
		s.navigator.ToLogin()
		return domain.ErrUnauthenticated
	}

	s.mu.Lock()
	if s.phase != domain.PhaseNotStarted || s.empty != EmptyNone {
		s.mu.Unlock()
		return fmt.Errorf("load challenge %d: session already %s", s.challengeID, s.phase)
	}
	s.mu.Unlock()

	challenge, questions, err := s.provider.PlayChallenge(ctx, s.challengeID)
	switch {
	case errors.Is(err, domain.ErrChallengeNotFound), errors.Is(err, domain.ErrNotFound):
		s.terminate(EmptyNotFound)
		s.notify(LevelError, msgChallengeNotFound)
		s.navigator.ToChallengeList()
		return fmt.Errorf("load challenge %d: %w", s.challengeID, domain.ErrChallengeNotFound)
	case errors.Is(err, domain.ErrUnauthorized):
		s.terminate(EmptyNone)
		s.navigator.ToLogin()
		return fmt.Errorf("load challenge %d: %w", s.challengeID, err)
	case err != nil:
		s.log.Error().Err(err).Msg("failed to load challenge")
		s.terminate(EmptyNone)
		s.notify(LevelError, domain.UserMessage(err, msgLoadFailed))
		s.navigator.ToChallengeList()
		return fmt.Errorf("load challenge %d: %w", s.challengeID, err)
	}

	s.mu.Lock()
	s.challenge = challenge
	if len(questions) == 0 {
		s.phase = domain.PhaseAbandoned
		s.empty = EmptyNoQuestions
		s.finishLocked()
		s.mu.Unlock()
		s.notify(LevelError, msgNoQuestions)
		s.navigator.ToChallengeList()
		return fmt.Errorf("load challenge %d: %w", s.challengeID, domain.ErrNoQuestions)
	}
	s.questions = questions
	s.mu.Unlock()

	s.log.Debug().Int("questions", len(questions)).Int("time_limit", challenge.TimeLimit).Msg("challenge loaded")
	return nil
}

func (s *ChallengeSession) terminate(empty EmptyState) {
	s.mu.Lock()
	s.phase = domain.PhaseAbandoned
	s.empty = empty
	s.finishLocked()
	s.mu.Unlock()
}

// Start begins the attempt and the countdown.
func (s *ChallengeSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.empty == EmptyNoQuestions:
		return domain.ErrNoQuestions
	case s.empty == EmptyNotFound:
		return domain.ErrChallengeNotFound
	case s.phase != domain.PhaseNotStarted:
		return fmt.Errorf("start: session is %s", s.phase)
	case len(s.questions) == 0:
		return domain.ErrNotLoaded
	}

	s.attemptID = uuid.NewString()
	s.answers = make(map[int]int)
	s.skipped = make(map[int]bool)
	s.warningsFired = make(map[int]bool)
	s.expired = false
	s.current = 0
	s.timeLeft = s.challenge.TimeLimitSeconds()
	s.phase = domain.PhaseInProgress
	s.startTimerLocked()

	s.log.Info().Str("attempt_id", s.attemptID).Int("time_left", s.timeLeft).Msg("attempt started")
	return nil
}

// SelectAnswer records idx for the current question, replacing any earlier choice.
func (s *ChallengeSession) SelectAnswer(idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.answerableLocked(); err != nil {
		return err
	}
	return s.selectLocked(s.questions[s.current], idx)
}

// SelectAnswerFor records idx for the question with the given id.
func (s *ChallengeSession) SelectAnswerFor(questionID, idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.answerableLocked(); err != nil {
		return err
	}
	for _, q := range s.questions {
		if q.ID == questionID {
			return s.selectLocked(q, idx)
		}
	}
	return fmt.Errorf("question %d: %w", questionID, domain.ErrInvalidQuestionIndex)
}

// answerableLocked rejects answer changes outside InProgress and after the
// clock has run out. Callers hold mu.
func (s *ChallengeSession) answerableLocked() error {
	if s.phase != domain.PhaseInProgress {
		return domain.ErrNotInProgress
	}
	if s.expired {
		return domain.ErrTimeExpired
	}
	return nil
}

func (s *ChallengeSession) selectLocked(q domain.Question, idx int) error {
	if idx < 0 || (len(q.Options) > 0 && idx >= len(q.Options)) {
		return fmt.Errorf("option %d for question %d: %w", idx, q.ID, domain.ErrInvalidOption)
	}
	s.answers[q.ID] = idx
	return nil
}

// Next moves forward; it is a no-op on the last question.
func (s *ChallengeSession) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseInProgress {
		return domain.ErrNotInProgress
	}
	s.nextLocked()
	return nil
}

func (s *ChallengeSession) nextLocked() {
	if s.current < len(s.questions)-1 {
		s.current++
	}
}

// Previous moves back; it is a no-op on the first question.
func (s *ChallengeSession) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseInProgress {
		return domain.ErrNotInProgress
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// Jump sets the current question to index i (0-based).
func (s *ChallengeSession) Jump(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseInProgress {
		return domain.ErrNotInProgress
	}
	if i < 0 || i >= len(s.questions) {
		return fmt.Errorf("jump to %d of %d: %w", i, len(s.questions), domain.ErrInvalidQuestionIndex)
	}
	s.current = i
	return nil
}

// Skip marks the current question as skipped and advances.
func (s *ChallengeSession) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.answerableLocked(); err != nil {
		return err
	}
	s.skipped[s.questions[s.current].ID] = true
	s.nextLocked()
	return nil
}

// ResumeFirstSkipped moves to the earliest skipped question and returns its index.
func (s *ChallengeSession) ResumeFirstSkipped() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseInProgress {
		return 0, domain.ErrNotInProgress
	}
	for i, q := range s.questions {
		if s.skipped[q.ID] {
			s.current = i
			return i, nil
		}
	}
	return s.current, nil
}

type pendingSubmission struct {
	submission domain.Submission
	questions  []domain.Question
}

// Submit sends the attempt. Unless force is set, skipped questions defer the
// submission and a SkipConfirmation is returned instead. A submit while one is
// in flight or done returns ErrAlreadySubmitted without side effects.
func (s *ChallengeSession) Submit(ctx context.Context, force bool) (SubmitOutcome, error) {
	s.mu.Lock()
	switch s.phase {
	case domain.PhaseInProgress:
	case domain.PhaseSubmitting, domain.PhaseCompleted:
		s.mu.Unlock()
		return SubmitOutcome{}, domain.ErrAlreadySubmitted
	default:
		s.mu.Unlock()
		return SubmitOutcome{}, domain.ErrNotInProgress
	}

	// Once the clock has run out every submit is forced.
	if !force && !s.expired && len(s.skipped) > 0 {
		confirm := s.skipConfirmationLocked()
		s.mu.Unlock()
		return SubmitOutcome{Deferred: &confirm}, nil
	}

	pending := s.beginSubmitLocked()
	s.mu.Unlock()

	return s.finishSubmit(ctx, pending)
}

func (s *ChallengeSession) skipConfirmationLocked() SkipConfirmation {
	var c SkipConfirmation
	for i, q := range s.questions {
		if s.skipped[q.ID] {
			c.Indexes = append(c.Indexes, i)
			c.Numbers = append(c.Numbers, i+1)
		}
	}
	return c
}

// beginSubmitLocked moves to Submitting and stops the countdown. Callers hold mu.
func (s *ChallengeSession) beginSubmitLocked() pendingSubmission {
	s.phase = domain.PhaseSubmitting
	s.stopTimerLocked()

	answers := make(map[int]int, len(s.answers))
	for id, idx := range s.answers {
		answers[id] = idx
	}
	return pendingSubmission{
		submission: domain.Submission{
			Answers:   answers,
			TimeTaken: s.challenge.TimeLimitSeconds() - s.timeLeft,
		},
		questions: s.questions,
	}
}

func (s *ChallengeSession) finishSubmit(ctx context.Context, p pendingSubmission) (SubmitOutcome, error) {
	record, err := s.provider.SubmitChallenge(ctx, s.challengeID, p.submission)
	if err != nil {
		s.mu.Lock()
		if s.phase == domain.PhaseSubmitting {
			s.phase = domain.PhaseInProgress
			if s.timeLeft > 0 {
				s.startTimerLocked()
			}
		}
		s.mu.Unlock()

		s.log.Error().Err(err).Int("answers", len(p.submission.Answers)).Msg("submit failed")
		s.notify(LevelError, msgSubmitFailed)
		return SubmitOutcome{}, fmt.Errorf("submit challenge %d: %w", s.challengeID, err)
	}

	result := ComputeResult(p.questions, p.submission.Answers, p.submission.TimeTaken)

	s.mu.Lock()
	s.phase = domain.PhaseCompleted
	s.result = &result
	s.record = &record
	s.finishLocked()
	s.mu.Unlock()

	s.log.Info().
		Int("score", result.Score).
		Int("correct", result.Correct).
		Int("wrong", result.Wrong).
		Int("time_taken", result.TimeTaken).
		Msg("attempt submitted")
	s.notify(LevelSuccess, msgSubmitted)

	if s.refresher != nil {
		s.refreshWG.Add(1)
		go s.refreshLeaderboards()
	}
	return SubmitOutcome{Result: &result}, nil
}

func (s *ChallengeSession) refreshLeaderboards() {
	defer s.refreshWG.Done()
	if s.refreshDelay > 0 {
		time.Sleep(s.refreshDelay)
	}
	ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
	defer cancel()
	if err := s.refresher.Refresh(ctx, s.challengeID); err != nil {
		s.log.Debug().Err(err).Msg("leaderboard refresh failed")
	}
}

// WaitBackground blocks until background leaderboard refreshes have returned.
func (s *ChallengeSession) WaitBackground() {
	s.refreshWG.Wait()
}

// Tick applies one second of countdown. The timer normally drives it.
func (s *ChallengeSession) Tick() {
	s.mu.Lock()
	gen := s.timerGen
	s.mu.Unlock()
	s.tick(gen)
}

func (s *ChallengeSession) tick(gen uint64) {
	s.mu.Lock()
	if s.phase != domain.PhaseInProgress || gen != s.timerGen || s.timeLeft <= 0 {
		s.mu.Unlock()
		return
	}

	// Thresholds are matched against the time shown before this tick, so a
	// session that starts exactly on one still warns.
	var warning string
	for _, w := range timeWarnings {
		if s.timeLeft == w.at && !s.warningsFired[w.at] {
			s.warningsFired[w.at] = true
			warning = w.message
		}
	}
	s.timeLeft--

	expired := s.timeLeft == 0
	var pending pendingSubmission
	if expired {
		s.expired = true
		pending = s.beginSubmitLocked()
	}
	s.mu.Unlock()

	if warning != "" {
		s.notify(LevelWarning, warning)
	}
	if expired {
		s.log.Info().Msg("time expired, auto-submitting")
		s.notify(LevelWarning, msgTimeUp)
		_, _ = s.finishSubmit(context.Background(), pending)
	}
}

func (s *ChallengeSession) startTimerLocked() {
	if s.timeLeft <= 0 {
		return
	}
	s.timerGen++
	s.timer = startCountdown(s.newTicker, s.timerGen, s.tick)
}

func (s *ChallengeSession) stopTimerLocked() {
	s.timer.stop()
	s.timer = nil
	s.timerGen++
}

// GuardNavigation registers the session's handler with the shell's guard.
// The handler lets navigation through once the attempt is no longer in progress.
func (s *ChallengeSession) GuardNavigation(guard NavigationGuard) {
	guard.OnNavigationAttempt(func() bool {
		if s.Phase() != domain.PhaseInProgress {
			return true
		}
		if !guard.ConfirmNavigation() {
			return false
		}
		// The attempt may have been auto-submitted while the prompt was open.
		if !s.abandonInProgress() {
			return false
		}
		s.navigator.ToChallengeList()
		return true
	})
}

// abandonInProgress abandons the attempt only if it is still in progress.
func (s *ChallengeSession) abandonInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseInProgress {
		return false
	}
	s.abandonLocked()
	return true
}

// Abandon tears the attempt down. It has no effect once submission has begun.
func (s *ChallengeSession) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case domain.PhaseNotStarted, domain.PhaseInProgress:
		s.abandonLocked()
	}
}

func (s *ChallengeSession) abandonLocked() {
	s.stopTimerLocked()
	s.phase = domain.PhaseAbandoned
	s.answers = nil
	s.skipped = nil
	s.finishLocked()
	s.log.Info().Str("attempt_id", s.attemptID).Msg("attempt abandoned")
}

// Done is closed once the session is Completed or Abandoned.
func (s *ChallengeSession) Done() <-chan struct{} {
	return s.done
}

func (s *ChallengeSession) finishLocked() {
	if !s.finished {
		s.finished = true
		close(s.done)
	}
}

// Phase returns the current phase.
func (s *ChallengeSession) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Result returns the computed result once Completed.
func (s *ChallengeSession) Result() (domain.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.Result{}, false
	}
	return *s.result, true
}

// Snapshot copies the session state.
func (s *ChallengeSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		AttemptID:    s.attemptID,
		Phase:        s.phase,
		Empty:        s.empty,
		Challenge:    s.challenge,
		Questions:    len(s.questions),
		CurrentIndex: s.current,
		TimeLeft:     s.timeLeft,
		Answers:      make(map[int]int, len(s.answers)),
		Skipped:      make(map[int]bool, len(s.skipped)),
		Result:       s.result,
		Record:       s.record,
	}
	for id, idx := range s.answers {
		snap.Answers[id] = idx
	}
	for id := range s.skipped {
		snap.Skipped[id] = true
	}
	if s.current < len(s.questions) {
		q := s.questions[s.current]
		snap.Current = &q
	}
	return snap
}

// Questions returns the loaded question set.
func (s *ChallengeSession) Questions() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

func (s *ChallengeSession) notify(level Level, message string) {
	s.notifier.Notify(Notice{Level: level, Message: message})
}
