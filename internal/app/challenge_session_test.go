package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"quizbattle/internal/app"
	"quizbattle/internal/domain"
)

type fakeProvider struct {
	mu        sync.Mutex
	challenge domain.Challenge
	questions []domain.Question
	loadErr   error
	failNext  int
	submits   []domain.Submission
	entered   chan struct{}
	release   chan struct{}
}

func (p *fakeProvider) PlayChallenge(_ context.Context, id int) (domain.Challenge, []domain.Question, error) {
	if p.loadErr != nil {
		return domain.Challenge{}, nil, p.loadErr
	}
	c := p.challenge
	c.ID = id
	return c, p.questions, nil
}

func (p *fakeProvider) SubmitChallenge(_ context.Context, id int, sub domain.Submission) (domain.SubmissionRecord, error) {
	p.mu.Lock()
	p.submits = append(p.submits, sub)
	fail := p.failNext > 0
	if fail {
		p.failNext--
	}
	entered, release := p.entered, p.release
	p.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	if fail {
		return domain.SubmissionRecord{}, &domain.APIError{Status: 503, Kind: domain.ErrTransient}
	}
	return domain.SubmissionRecord{ID: 1, ChallengeID: id, TimeTaken: sub.TimeTaken}, nil
}

func (p *fakeProvider) submissions() []domain.Submission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Submission(nil), p.submits...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []app.Notice
}

func (n *recordingNotifier) Notify(notice app.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) messages(level app.Level) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, notice := range n.notices {
		if notice.Level == level {
			out = append(out, notice.Message)
		}
	}
	return out
}

type recordingNavigator struct {
	mu     sync.Mutex
	list   int
	logins int
}

func (n *recordingNavigator) ToChallengeList() {
	n.mu.Lock()
	n.list++
	n.mu.Unlock()
}

func (n *recordingNavigator) ToLogin() {
	n.mu.Lock()
	n.logins++
	n.mu.Unlock()
}

type staticAuth bool

func (a staticAuth) IsAuthenticated() bool { return bool(a) }

// idleTicker never fires; tests drive the countdown with Tick.
type idleTicker struct{}

func (idleTicker) Chan() <-chan time.Time { return nil }
func (idleTicker) Stop()                  {}

func idleTickers(time.Duration) app.Ticker { return idleTicker{} }

func makeQuestions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{
			ID:           100 + i,
			Text:         "question",
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % 4,
		}
	}
	return qs
}

type harness struct {
	session  *app.ChallengeSession
	provider *fakeProvider
	notifier *recordingNotifier
	nav      *recordingNavigator
}

func newHarness(t *testing.T, questions, timeLimit int) *harness {
	t.Helper()
	h := &harness{
		provider: &fakeProvider{
			challenge: domain.Challenge{Name: "Weekly", TimeLimit: timeLimit},
			questions: makeQuestions(questions),
		},
		notifier: &recordingNotifier{},
		nav:      &recordingNavigator{},
	}
	h.session = app.NewChallengeSession(7, app.SessionConfig{
		Provider:  h.provider,
		Auth:      staticAuth(true),
		Notifier:  h.notifier,
		Navigator: h.nav,
		NewTicker: idleTickers,
		Logger:    zerolog.Nop(),
	})
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.session.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := h.session.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
}

func (h *harness) ticks(n int) {
	for i := 0; i < n; i++ {
		h.session.Tick()
	}
}

func TestSelectAnswerKeepsLastChoice(t *testing.T) {
	h := newHarness(t, 3, 5)
	h.start(t)

	for _, idx := range []int{0, 3, 2, 1} {
		if err := h.session.SelectAnswer(idx); err != nil {
			t.Fatalf("select %d failed: %v", idx, err)
		}
	}
	snap := h.session.Snapshot()
	if len(snap.Answers) != 1 || snap.Answers[100] != 1 {
		t.Fatalf("expected only last selection 1, got %+v", snap.Answers)
	}

	if err := h.session.SelectAnswer(4); !errors.Is(err, domain.ErrInvalidOption) {
		t.Fatalf("expected invalid option, got %v", err)
	}
	if err := h.session.SelectAnswerFor(999, 0); !errors.Is(err, domain.ErrInvalidQuestionIndex) {
		t.Fatalf("expected invalid question, got %v", err)
	}
}

func TestNavigationIsClamped(t *testing.T) {
	h := newHarness(t, 3, 5)
	h.start(t)

	_ = h.session.Previous()
	if got := h.session.Snapshot().CurrentIndex; got != 0 {
		t.Fatalf("previous at start moved to %d", got)
	}
	_ = h.session.Next()
	_ = h.session.Next()
	_ = h.session.Next()
	if got := h.session.Snapshot().CurrentIndex; got != 2 {
		t.Fatalf("expected clamp at 2, got %d", got)
	}
	if err := h.session.Jump(3); !errors.Is(err, domain.ErrInvalidQuestionIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
	if err := h.session.Jump(0); err != nil {
		t.Fatalf("jump failed: %v", err)
	}

	// Skip on the last question stays there.
	_ = h.session.Jump(2)
	_ = h.session.Skip()
	snap := h.session.Snapshot()
	if snap.CurrentIndex != 2 || !snap.Skipped[102] {
		t.Fatalf("unexpected state after skipping last: %+v", snap)
	}
}

func TestMutationsRequireInProgress(t *testing.T) {
	h := newHarness(t, 2, 5)
	if err := h.session.SelectAnswer(0); !errors.Is(err, domain.ErrNotInProgress) {
		t.Fatalf("expected not in progress before start, got %v", err)
	}
	if err := h.session.Start(); !errors.Is(err, domain.ErrNotLoaded) {
		t.Fatalf("expected not loaded, got %v", err)
	}
}

func TestFullCorrectRun(t *testing.T) {
	h := newHarness(t, 5, 10)
	h.start(t)

	for i, q := range h.session.Questions() {
		if err := h.session.SelectAnswerFor(q.ID, q.CorrectIndex); err != nil {
			t.Fatalf("answer %d failed: %v", i, err)
		}
	}
	h.ticks(120)

	out, err := h.session.Submit(context.Background(), false)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if out.Deferred != nil || out.Result == nil {
		t.Fatalf("expected a result, got %+v", out)
	}
	r := out.Result
	if r.Correct != 5 || r.Wrong != 0 || r.Unanswered != 0 || r.Score != 20 || r.Percentage != 100 {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.TimeTaken != 120 {
		t.Fatalf("expected time taken 120, got %d", r.TimeTaken)
	}
	subs := h.provider.submissions()
	if len(subs) != 1 || subs[0].TimeTaken != 120 || len(subs[0].Answers) != 5 {
		t.Fatalf("unexpected submissions %+v", subs)
	}
	if h.session.Phase() != domain.PhaseCompleted {
		t.Fatalf("expected completed, got %s", h.session.Phase())
	}
	if msgs := h.notifier.messages(app.LevelSuccess); len(msgs) != 1 || msgs[0] != "Quiz submitted successfully!" {
		t.Fatalf("unexpected success notices %v", msgs)
	}
	if err := h.session.SelectAnswer(0); !errors.Is(err, domain.ErrNotInProgress) {
		t.Fatalf("completed session accepted a mutation: %v", err)
	}
}

func TestTimeExpiryAutoSubmitsDespiteSkips(t *testing.T) {
	h := newHarness(t, 3, 1)
	h.start(t)

	qs := h.session.Questions()
	_ = h.session.SelectAnswer(qs[0].CorrectIndex)
	_ = h.session.Next()
	_ = h.session.SelectAnswer((qs[1].CorrectIndex + 1) % 4)
	_ = h.session.Next()
	_ = h.session.Skip()

	h.ticks(60)

	if h.session.Phase() != domain.PhaseCompleted {
		t.Fatalf("expected completed after expiry, got %s", h.session.Phase())
	}
	subs := h.provider.submissions()
	if len(subs) != 1 {
		t.Fatalf("expected exactly one submission, got %d", len(subs))
	}
	if subs[0].TimeTaken != 60 {
		t.Fatalf("expected time taken 60, got %d", subs[0].TimeTaken)
	}
	r, ok := h.session.Result()
	if !ok {
		t.Fatal("expected result")
	}
	if r.Correct != 1 || r.Wrong != 1 || r.Unanswered != 1 || r.Score != 3 || r.Percentage != 33 {
		t.Fatalf("unexpected result %+v", r)
	}

	// Further ticks are ignored.
	h.ticks(5)
	if len(h.provider.submissions()) != 1 {
		t.Fatal("tick after completion triggered another submission")
	}
}

func TestWarningsFireOncePerThreshold(t *testing.T) {
	cases := []struct {
		name      string
		timeLimit int
		want      []string
	}{
		{
			name:      "six minutes",
			timeLimit: 6,
			want: []string{
				"Only 5 minutes remaining!",
				"Only 1 minute remaining! Quiz will auto-submit.",
				"30 seconds left! Auto-submitting soon...",
				"Time is up! Submitting your answers automatically...",
			},
		},
		{
			name:      "five minutes warns on the first tick",
			timeLimit: 5,
			want: []string{
				"Only 5 minutes remaining!",
				"Only 1 minute remaining! Quiz will auto-submit.",
				"30 seconds left! Auto-submitting soon...",
				"Time is up! Submitting your answers automatically...",
			},
		},
		{
			name:      "one minute",
			timeLimit: 1,
			want: []string{
				"Only 1 minute remaining! Quiz will auto-submit.",
				"30 seconds left! Auto-submitting soon...",
				"Time is up! Submitting your answers automatically...",
			},
		},
		{
			name:      "two minutes never warns at five",
			timeLimit: 2,
			want: []string{
				"Only 1 minute remaining! Quiz will auto-submit.",
				"30 seconds left! Auto-submitting soon...",
				"Time is up! Submitting your answers automatically...",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, 1, tc.timeLimit)
			h.start(t)
			h.ticks(tc.timeLimit*60 + 10)

			got := h.notifier.messages(app.LevelWarning)
			if len(got) != len(tc.want) {
				t.Fatalf("expected warnings %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("warning %d: expected %q, got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestSkipThenConfirm(t *testing.T) {
	h := newHarness(t, 3, 5)
	h.start(t)

	_ = h.session.SelectAnswer(0)
	_ = h.session.Next()
	_ = h.session.Skip()
	_ = h.session.SelectAnswer(2)

	out, err := h.session.Submit(context.Background(), false)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if out.Deferred == nil || out.Result != nil {
		t.Fatalf("expected deferred submission, got %+v", out)
	}
	if len(out.Deferred.Numbers) != 1 || out.Deferred.Numbers[0] != 2 {
		t.Fatalf("expected skipped question 2, got %v", out.Deferred.Numbers)
	}
	if len(h.provider.submissions()) != 0 {
		t.Fatal("deferred submit reached the provider")
	}
	if h.session.Phase() != domain.PhaseInProgress {
		t.Fatalf("expected in progress, got %s", h.session.Phase())
	}

	idx, err := h.session.ResumeFirstSkipped()
	if err != nil || idx != 1 || h.session.Snapshot().CurrentIndex != 1 {
		t.Fatalf("expected resume at index 1, got %d (%v)", idx, err)
	}

	out, err = h.session.Submit(context.Background(), true)
	if err != nil || out.Result == nil {
		t.Fatalf("forced submit failed: %+v %v", out, err)
	}
	if h.session.Phase() != domain.PhaseCompleted {
		t.Fatalf("expected completed, got %s", h.session.Phase())
	}
}

func TestSkippedThenAnsweredStillConfirms(t *testing.T) {
	h := newHarness(t, 2, 5)
	h.start(t)

	_ = h.session.Skip()
	_ = h.session.Previous()
	_ = h.session.SelectAnswer(1)

	out, err := h.session.Submit(context.Background(), false)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if out.Deferred == nil || out.Deferred.Numbers[0] != 1 {
		t.Fatalf("expected confirmation for question 1, got %+v", out)
	}
}

func TestZeroQuestionsIsTerminal(t *testing.T) {
	h := newHarness(t, 0, 5)

	err := h.session.Load(context.Background())
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected no questions, got %v", err)
	}
	if err := h.session.Start(); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected start to refuse, got %v", err)
	}
	snap := h.session.Snapshot()
	if snap.Empty != app.EmptyNoQuestions || snap.Phase == domain.PhaseInProgress {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if h.nav.list != 1 {
		t.Fatalf("expected navigation to challenge list, got %d", h.nav.list)
	}
	if msgs := h.notifier.messages(app.LevelError); len(msgs) != 1 || msgs[0] != "No questions available for this challenge" {
		t.Fatalf("unexpected notices %v", msgs)
	}
}

func TestChallengeNotFoundIsTerminal(t *testing.T) {
	h := newHarness(t, 3, 5)
	h.provider.loadErr = domain.ErrChallengeNotFound

	if err := h.session.Load(context.Background()); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if snap := h.session.Snapshot(); snap.Empty != app.EmptyNotFound {
		t.Fatalf("expected not found state, got %+v", snap)
	}
	if msgs := h.notifier.messages(app.LevelError); len(msgs) != 1 || msgs[0] != "Challenge data not found" {
		t.Fatalf("unexpected notices %v", msgs)
	}
}

func TestLoadFailureAbandonsSession(t *testing.T) {
	h := newHarness(t, 3, 5)
	h.provider.loadErr = &domain.APIError{Status: 502, Message: "upstream down", Kind: domain.ErrTransient}

	if err := h.session.Load(context.Background()); !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if h.session.Phase() != domain.PhaseAbandoned || h.nav.list != 1 {
		t.Fatalf("expected abandoned and navigated away, got %s / %d", h.session.Phase(), h.nav.list)
	}
	if msgs := h.notifier.messages(app.LevelError); len(msgs) != 1 || msgs[0] != "upstream down" {
		t.Fatalf("unexpected notices %v", msgs)
	}
}

func TestLoadRequiresAuthentication(t *testing.T) {
	h := newHarness(t, 3, 5)
	h.session = app.NewChallengeSession(7, app.SessionConfig{
		Provider:  h.provider,
		Auth:      staticAuth(false),
		Navigator: h.nav,
		NewTicker: idleTickers,
	})

	if err := h.session.Load(context.Background()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if h.nav.logins != 1 {
		t.Fatalf("expected redirect to login, got %d", h.nav.logins)
	}
}

func TestSubmitFailureAllowsRetry(t *testing.T) {
	h := newHarness(t, 3, 5)
	h.provider.failNext = 1
	h.start(t)

	_ = h.session.SelectAnswer(0)
	_ = h.session.Next()
	_ = h.session.SelectAnswer(1)
	h.ticks(10)

	if _, err := h.session.Submit(context.Background(), false); !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("expected transient failure, got %v", err)
	}
	snap := h.session.Snapshot()
	if snap.Phase != domain.PhaseInProgress {
		t.Fatalf("expected in progress after failure, got %s", snap.Phase)
	}
	if len(snap.Answers) != 2 {
		t.Fatalf("answers lost after failure: %+v", snap.Answers)
	}
	if msgs := h.notifier.messages(app.LevelError); len(msgs) != 1 || msgs[0] != "Failed to submit quiz" {
		t.Fatalf("unexpected notices %v", msgs)
	}

	out, err := h.session.Submit(context.Background(), false)
	if err != nil || out.Result == nil {
		t.Fatalf("retry failed: %+v %v", out, err)
	}
	subs := h.provider.submissions()
	if len(subs) != 2 {
		t.Fatalf("expected two submit calls, got %d", len(subs))
	}
	if subs[0].Answers[100] != subs[1].Answers[100] || subs[0].Answers[101] != subs[1].Answers[101] {
		t.Fatalf("retry sent different answers: %+v", subs)
	}
}

func TestRetryAfterFailedAutoSubmitIsForced(t *testing.T) {
	h := newHarness(t, 2, 1)
	h.provider.failNext = 1
	h.start(t)

	_ = h.session.SelectAnswer(0)
	_ = h.session.Skip()
	h.ticks(60)

	snap := h.session.Snapshot()
	if snap.Phase != domain.PhaseInProgress || snap.TimeLeft != 0 {
		t.Fatalf("expected in progress with no time left, got %s / %d", snap.Phase, snap.TimeLeft)
	}
	if err := h.session.SelectAnswer(1); !errors.Is(err, domain.ErrTimeExpired) {
		t.Fatalf("expected time expired on answer change, got %v", err)
	}
	if err := h.session.Skip(); !errors.Is(err, domain.ErrTimeExpired) {
		t.Fatalf("expected time expired on skip, got %v", err)
	}

	out, err := h.session.Submit(context.Background(), false)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if out.Deferred != nil || out.Result == nil {
		t.Fatalf("expected forced submission after expiry, got %+v", out)
	}
	subs := h.provider.submissions()
	if len(subs) != 2 || subs[1].Answers[100] != 0 || subs[1].TimeTaken != 60 {
		t.Fatalf("unexpected submissions %+v", subs)
	}
}

func TestSubmitIsAtMostOnce(t *testing.T) {
	h := newHarness(t, 2, 1)
	h.start(t)
	h.ticks(59)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := h.session.Submit(context.Background(), true)
			if err != nil && !errors.Is(err, domain.ErrAlreadySubmitted) {
				t.Errorf("unexpected submit error: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			h.session.Tick()
		}()
	}
	wg.Wait()

	if n := len(h.provider.submissions()); n != 1 {
		t.Fatalf("expected exactly one submission, got %d", n)
	}
	if _, err := h.session.Submit(context.Background(), true); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected already submitted, got %v", err)
	}
}

func TestTickDuringSubmissionIsDiscarded(t *testing.T) {
	h := newHarness(t, 2, 5)
	h.provider.entered = make(chan struct{})
	h.provider.release = make(chan struct{})
	h.start(t)
	h.ticks(3)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.session.Submit(context.Background(), false)
	}()
	<-h.provider.entered

	h.ticks(5)
	if snap := h.session.Snapshot(); snap.Phase != domain.PhaseSubmitting || snap.TimeLeft != 297 {
		t.Fatalf("tick mutated a submitting session: %+v", snap)
	}
	close(h.provider.release)
	<-done

	if snap := h.session.Snapshot(); snap.Phase != domain.PhaseCompleted || snap.Result.TimeTaken != 3 {
		t.Fatalf("unexpected final state %+v", snap)
	}
}

type fakeGuard struct {
	confirm   bool
	asked     int
	handlers  []func() bool
	onConfirm func()
}

func (g *fakeGuard) ConfirmNavigation() bool {
	g.asked++
	if g.onConfirm != nil {
		g.onConfirm()
	}
	return g.confirm
}

func (g *fakeGuard) OnNavigationAttempt(h func() bool) {
	g.handlers = append(g.handlers, h)
}

func (g *fakeGuard) attempt() bool {
	return g.handlers[0]()
}

func TestNavigationGuard(t *testing.T) {
	h := newHarness(t, 2, 5)
	guard := &fakeGuard{}
	h.session.GuardNavigation(guard)

	if !guard.attempt() || guard.asked != 0 {
		t.Fatal("guard should be inert before the attempt starts")
	}

	h.start(t)
	if guard.attempt() {
		t.Fatal("declined navigation was allowed")
	}
	if h.session.Phase() != domain.PhaseInProgress || h.nav.list != 0 {
		t.Fatalf("declining changed the session: %s", h.session.Phase())
	}

	guard.confirm = true
	if !guard.attempt() {
		t.Fatal("confirmed navigation was blocked")
	}
	if h.session.Phase() != domain.PhaseAbandoned || h.nav.list != 1 {
		t.Fatalf("expected abandoned session routed to list, got %s / %d", h.session.Phase(), h.nav.list)
	}
	if err := h.session.SelectAnswer(0); !errors.Is(err, domain.ErrNotInProgress) {
		t.Fatalf("abandoned session accepted input: %v", err)
	}
}

func TestNavigationGuardInertAfterCompletion(t *testing.T) {
	h := newHarness(t, 1, 5)
	guard := &fakeGuard{}
	h.session.GuardNavigation(guard)
	h.start(t)

	if _, err := h.session.Submit(context.Background(), false); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !guard.attempt() || guard.asked != 0 {
		t.Fatal("guard prompted after completion")
	}
}

func TestConfirmedLeaveAfterAutoSubmitKeepsResult(t *testing.T) {
	h := newHarness(t, 1, 1)
	guard := &fakeGuard{confirm: true}
	h.session.GuardNavigation(guard)
	h.start(t)
	h.ticks(59)

	// the clock runs out while the leave prompt is open
	guard.onConfirm = func() { h.session.Tick() }
	if guard.attempt() {
		t.Fatal("navigation allowed after the attempt completed")
	}
	if guard.asked != 1 {
		t.Fatalf("expected one prompt, got %d", guard.asked)
	}
	if h.session.Phase() != domain.PhaseCompleted || h.nav.list != 0 {
		t.Fatalf("expected completed session kept in place, got %s / %d", h.session.Phase(), h.nav.list)
	}
	if _, ok := h.session.Result(); !ok {
		t.Fatal("result lost")
	}
}

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (f *fakeTicker) Chan() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()                  { f.once.Do(func() { close(f.stopped) }) }

func TestCountdownDrivesTicksAndStops(t *testing.T) {
	ticker := &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	provider := &fakeProvider{challenge: domain.Challenge{TimeLimit: 1}, questions: makeQuestions(1)}
	session := app.NewChallengeSession(3, app.SessionConfig{
		Provider:  provider,
		NewTicker: func(time.Duration) app.Ticker { return ticker },
		Logger:    zerolog.Nop(),
	})
	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := session.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	ticker.ch <- time.Now()
	deadline := time.Now().Add(2 * time.Second)
	for session.Snapshot().TimeLeft != 59 {
		if time.Now().After(deadline) {
			t.Fatalf("tick not applied, time left %d", session.Snapshot().TimeLeft)
		}
		time.Sleep(5 * time.Millisecond)
	}

	session.Abandon()
	select {
	case <-ticker.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker not stopped after abandon")
	}
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls []int
	err   error
}

func (r *fakeRefresher) Refresh(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, id)
	return r.err
}

func TestLeaderboardRefreshIsBestEffort(t *testing.T) {
	provider := &fakeProvider{challenge: domain.Challenge{TimeLimit: 1}, questions: makeQuestions(1)}
	refresher := &fakeRefresher{err: errors.New("leaderboard unavailable")}
	notifier := &recordingNotifier{}
	session := app.NewChallengeSession(9, app.SessionConfig{
		Provider:  provider,
		Notifier:  notifier,
		Refresher: refresher,
		NewTicker: idleTickers,
		Logger:    zerolog.Nop(),
	})
	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	_ = session.Start()

	out, err := session.Submit(context.Background(), false)
	if err != nil || out.Result == nil {
		t.Fatalf("submit failed: %+v %v", out, err)
	}
	session.WaitBackground()

	if len(refresher.calls) != 1 || refresher.calls[0] != 9 {
		t.Fatalf("expected one refresh for challenge 9, got %v", refresher.calls)
	}
	if msgs := notifier.messages(app.LevelError); len(msgs) != 0 {
		t.Fatalf("refresh failure surfaced to the user: %v", msgs)
	}
}
