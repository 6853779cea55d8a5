package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"quizbattle/internal/app"
	"quizbattle/internal/domain"
)

// ErrInputClosed is returned when input ends during an attempt.
var ErrInputClosed = errors.New("input closed")

const playHelp = `Commands:
  a-d or 1-4   choose an option
  n / p        next / previous question
  g <number>   go to question
  s            skip this question
  l            list questions
  t            time left
  submit       submit your answers
  quit         leave the quiz
`

// Play runs an interactive attempt on a loaded session. Interrupts (Ctrl+C)
// are treated as navigation attempts.
func Play(ctx context.Context, t *Terminal, s *app.ChallengeSession, interrupts <-chan os.Signal) error {
	s.GuardNavigation(t)

	snap := s.Snapshot()
	c := snap.Challenge
	t.Printf("\n%s\n", c.Name)
	if c.ExamType != "" || c.Difficulty != "" {
		t.Printf("%s, %s\n", c.ExamType, c.Difficulty)
	}
	t.Printf("%d questions, %s on the clock. Correct +4, wrong -1.\n", snap.Questions, FormatSeconds(c.TimeLimitSeconds()))

	answer, err := t.Prompt(ctx, "Press Enter to start, or type quit: ")
	if err != nil {
		return err
	}
	if isQuit(answer) {
		t.AttemptNavigation()
		return nil
	}
	if err := s.Start(); err != nil {
		return err
	}
	t.Printf("%s", playHelp)
	renderQuestion(t, s.Snapshot())

	for {
		select {
		case <-s.Done():
			return finish(t, s)
		default:
		}

		select {
		case <-ctx.Done():
			s.Abandon()
			return ctx.Err()
		case <-s.Done():
			return finish(t, s)
		case <-interrupts:
			if t.AttemptNavigation() {
				return nil
			}
			renderQuestion(t, s.Snapshot())
		case line, ok := <-t.Lines():
			if !ok {
				s.Abandon()
				return ErrInputClosed
			}
			if leave := handleCommand(ctx, t, s, line); leave {
				return nil
			}
		}
	}
}

// handleCommand applies one input line and reports whether the user left.
func handleCommand(ctx context.Context, t *Terminal, s *app.ChallengeSession, line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		renderQuestion(t, s.Snapshot())
		return false
	}

	var err error
	switch cmd := fields[0]; {
	case isQuit(cmd):
		return t.AttemptNavigation()
	case cmd == "n" || cmd == "next":
		err = s.Next()
	case cmd == "p" || cmd == "prev" || cmd == "previous":
		err = s.Previous()
	case cmd == "s" || cmd == "skip":
		err = s.Skip()
	case cmd == "g" || cmd == "goto":
		if len(fields) < 2 {
			t.Println("usage: g <question number>")
			return false
		}
		n, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			t.Println("usage: g <question number>")
			return false
		}
		err = s.Jump(n - 1)
	case cmd == "l" || cmd == "list":
		renderOverview(t, s.Snapshot(), s.Questions())
		return false
	case cmd == "t" || cmd == "time":
		t.Printf("Time left: %s\n", FormatSeconds(s.Snapshot().TimeLeft))
		return false
	case cmd == "h" || cmd == "help" || cmd == "?":
		t.Printf("%s", playHelp)
		return false
	case cmd == "submit":
		submit(ctx, t, s, false)
		return false
	default:
		idx, ok := parseOption(cmd)
		if !ok {
			t.Printf("Unknown command %q. Type h for help.\n", cmd)
			return false
		}
		err = s.SelectAnswer(idx)
	}

	if err != nil {
		t.Printf("%s\n", describe(err))
		return false
	}
	if s.Phase() == domain.PhaseInProgress {
		renderQuestion(t, s.Snapshot())
	}
	return false
}

func submit(ctx context.Context, t *Terminal, s *app.ChallengeSession, force bool) {
	out, err := s.Submit(ctx, force)
	switch {
	case errors.Is(err, domain.ErrAlreadySubmitted):
		return
	case err != nil:
		t.Println("You can try submitting again.")
		return
	case out.Deferred == nil:
		return
	}

	numbers := make([]string, len(out.Deferred.Numbers))
	for i, n := range out.Deferred.Numbers {
		numbers[i] = strconv.Itoa(n)
	}
	t.Printf("You skipped question(s) %s.\n", strings.Join(numbers, ", "))
	answer, err := t.Prompt(ctx, "[b]ack to the first skipped question or [c]onfirm submit: ")
	if err != nil {
		return
	}
	if a := strings.ToLower(answer); a == "c" || a == "confirm" {
		submit(ctx, t, s, true)
		return
	}
	if _, err := s.ResumeFirstSkipped(); err == nil {
		renderQuestion(t, s.Snapshot())
	}
}

func finish(t *Terminal, s *app.ChallengeSession) error {
	snap := s.Snapshot()
	if snap.Phase != domain.PhaseCompleted || snap.Result == nil {
		return nil
	}
	RenderResult(t, snap.Challenge.Name, *snap.Result)
	return nil
}

func renderQuestion(t *Terminal, snap app.Snapshot) {
	q := snap.Current
	if q == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nQuestion %d/%d", snap.CurrentIndex+1, snap.Questions)
	if idx, ok := snap.Answered(q.ID); ok {
		fmt.Fprintf(&b, "  [answered %s]", optionLabel(idx))
	}
	if snap.Skipped[q.ID] {
		b.WriteString("  [skipped]")
	}
	fmt.Fprintf(&b, "  time left %s\n%s\n", FormatSeconds(snap.TimeLeft), q.Text)
	if q.ImageURL != "" {
		fmt.Fprintf(&b, "Image: %s\n", q.ImageURL)
	}
	selected, answered := snap.Answered(q.ID)
	for i, opt := range q.Options {
		marker := " "
		if answered && selected == i {
			marker = ">"
		}
		fmt.Fprintf(&b, " %s %s) %s\n", marker, optionLabel(i), opt)
	}
	if q.Hint != "" {
		fmt.Fprintf(&b, "Hint: %s\n", q.Hint)
	}
	b.WriteString("> ")
	t.Printf("%s", b.String())
}

func renderOverview(t *Terminal, snap app.Snapshot, questions []domain.Question) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	w := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTATUS\t")
	for i, q := range questions {
		status := "unanswered"
		if idx, ok := snap.Answered(q.ID); ok {
			status = "answered " + optionLabel(idx)
		}
		if snap.Skipped[q.ID] {
			status += ", skipped"
		}
		current := ""
		if i == snap.CurrentIndex {
			current = "<"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, status, current)
	}
	_ = w.Flush()
}

// RenderResult prints the score summary and the per-question review.
func RenderResult(t *Terminal, title string, r domain.Result) {
	t.outMu.Lock()
	defer t.outMu.Unlock()

	fmt.Fprintf(t.out, "\nResults: %s\n", title)
	w := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  Score\t%d\n", r.Score)
	fmt.Fprintf(w, "  Correct\t%d/%d (%d%%)\n", r.Correct, r.Total, r.Percentage)
	fmt.Fprintf(w, "  Wrong\t%d\n", r.Wrong)
	fmt.Fprintf(w, "  Unanswered\t%d\n", r.Unanswered)
	fmt.Fprintf(w, "  Time taken\t%s\n", FormatSeconds(r.TimeTaken))
	_ = w.Flush()

	fmt.Fprintln(t.out, "\nReview:")
	for i, row := range r.Questions {
		status := "unanswered"
		yours := "-"
		if row.IsAnswered {
			yours = optionLabel(*row.UserAnswer)
			status = "wrong"
			if row.IsCorrect {
				status = "correct"
			}
		}
		fmt.Fprintf(t.out, "  %d. [%s] %s\n     yours: %s  correct: %s\n",
			i+1, status, row.Question.Text, yours, optionLabel(row.Question.CorrectIndex))
	}
}

// FormatSeconds renders seconds as m:ss.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func optionLabel(idx int) string {
	if idx >= 0 && idx < 26 {
		return string(rune('A' + idx))
	}
	return strconv.Itoa(idx + 1)
}

func parseOption(s string) (int, bool) {
	if len(s) == 1 && s[0] >= 'a' && s[0] <= 'z' {
		return int(s[0] - 'a'), true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

func isQuit(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "q" || s == "quit" || s == "exit"
}

func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidOption):
		return "That option does not exist."
	case errors.Is(err, domain.ErrInvalidQuestionIndex):
		return "No such question."
	case errors.Is(err, domain.ErrNotInProgress):
		return "The quiz is no longer in progress."
	case errors.Is(err, domain.ErrTimeExpired):
		return "Time is up. Type submit to send your answers."
	default:
		return err.Error()
	}
}
