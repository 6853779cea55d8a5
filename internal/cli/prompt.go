package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads form fields from the command's input.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	stdin  *os.File
	asTerm bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.stdin = f
		p.asTerm = true
	}
	return p
}

// field returns value when set, otherwise asks for it.
func (p *prompter) field(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// password reads without echo on a terminal.
func (p *prompter) password(label string) (string, error) {
	if !p.asTerm {
		return p.field(label, "")
	}
	fmt.Fprintf(p.out, "%s: ", label)
	raw, err := term.ReadPassword(int(p.stdin.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
