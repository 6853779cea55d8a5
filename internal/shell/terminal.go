package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"quizbattle/internal/app"
)

// Terminal hosts sessions on a line-oriented terminal. It is the Notifier,
// NavigationGuard and Navigator for a session.
type Terminal struct {
	in  io.Reader
	out io.Writer

	outMu sync.Mutex

	readOnce sync.Once
	lines    chan string

	mu          sync.Mutex
	handler     func() bool
	destination string
}

func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

// Out returns the writer used for interactive output.
func (t *Terminal) Out() io.Writer {
	return t.out
}

// Printf writes to the terminal; it is safe to call from the timer goroutine.
func (t *Terminal) Printf(format string, args ...any) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) Println(args ...any) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	fmt.Fprintln(t.out, args...)
}

// Lines delivers trimmed input lines; it is closed at end of input.
func (t *Terminal) Lines() <-chan string {
	t.readOnce.Do(func() {
		t.lines = make(chan string)
		go func() {
			defer close(t.lines)
			sc := bufio.NewScanner(t.in)
			for sc.Scan() {
				t.lines <- strings.TrimSpace(sc.Text())
			}
		}()
	})
	return t.lines
}

// ReadLine waits for the next line. It returns io.EOF when input is exhausted.
func (t *Terminal) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-t.Lines():
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

// Prompt prints prompt and reads the answer.
func (t *Terminal) Prompt(ctx context.Context, prompt string) (string, error) {
	t.Printf("%s", prompt)
	return t.ReadLine(ctx)
}

// Notify prints a notice on its own line.
func (t *Terminal) Notify(n app.Notice) {
	t.Printf("\n[%s] %s\n", n.Level, n.Message)
}

// ConfirmNavigation asks before leaving a quiz in progress. Closed input confirms.
func (t *Terminal) ConfirmNavigation() bool {
	answer, err := t.Prompt(context.Background(), "Leave the quiz? Your answers will be lost. [y/N]: ")
	if err != nil {
		return true
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (t *Terminal) OnNavigationAttempt(handler func() bool) {
	t.mu.Lock()
	t.handler = handler
	t.mu.Unlock()
}

// AttemptNavigation runs the registered handler, if any, and reports whether
// the user may leave.
func (t *Terminal) AttemptNavigation() bool {
	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()
	if h == nil {
		return true
	}
	return h()
}

const (
	DestinationChallenges = "challenges"
	DestinationLogin      = "login"
)

func (t *Terminal) ToChallengeList() {
	t.setDestination(DestinationChallenges)
	t.Println("Back to challenges. Run `quizbattle challenges list` to pick another.")
}

func (t *Terminal) ToLogin() {
	t.setDestination(DestinationLogin)
	t.Println("Please log in first: `quizbattle login`.")
}

func (t *Terminal) setDestination(d string) {
	t.mu.Lock()
	t.destination = d
	t.mu.Unlock()
}

// Destination reports where the last navigation request pointed.
func (t *Terminal) Destination() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destination
}
