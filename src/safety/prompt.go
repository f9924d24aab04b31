package safety

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Options carries the global safety flags.
type Options struct {
	DryRun bool
	Yes    bool
}

var (
	// ErrCancelled is returned when input ends or the context is cancelled
	// while waiting for an answer.
	ErrCancelled = errors.New("operation cancelled")
	// ErrInvalidSelection is returned for a non-numeric or out-of-range choice.
	ErrInvalidSelection = errors.New("invalid selection")
)

// Prompter asks questions on out and reads answers line by line from in.
// One Prompter must be used for a whole session so buffered input is not lost
// between questions.
type Prompter struct {
	in   *bufio.Reader
	out  io.Writer
	opts Options
}

func NewPrompter(in io.Reader, out io.Writer, opts Options) *Prompter {
	if out == nil {
		out = io.Discard
	}
	return &Prompter{in: bufio.NewReader(in), out: out, opts: opts}
}

// Confirm asks a y/N question about a destructive action. With opts.Yes it
// returns true without prompting. Only "y" (any case) confirms; anything
// else, including end of input, declines.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if p.opts.Yes {
		return true, nil
	}
	fmt.Fprintf(p.out, "%s (y/N): ", strings.TrimSpace(question))
	line, err := p.readLine(ctx)
	if errors.Is(err, io.EOF) {
		return strings.EqualFold(strings.TrimSpace(line), "y"), nil
	}
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}

// Select asks for a number between 1 and n and returns its zero-based index.
func (p *Prompter) Select(ctx context.Context, question string, n int) (int, error) {
	fmt.Fprintf(p.out, "%s ", strings.TrimSpace(question))
	line, err := p.readLine(ctx)
	line = strings.TrimSpace(line)
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return 0, ErrCancelled
		}
		return 0, err
	}
	choice, convErr := strconv.Atoi(line)
	if convErr != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidSelection, line)
	}
	if choice < 1 || choice > n {
		return 0, fmt.Errorf("%w: %d is not between 1 and %d", ErrInvalidSelection, choice, n)
	}
	return choice - 1, nil
}

type lineResult struct {
	line string
	err  error
}

// readLine reads one line, giving up with ErrCancelled when ctx is done.
// A line cut short by end of input is returned together with io.EOF.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	ch := make(chan lineResult, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- lineResult{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ErrCancelled
	case res := <-ch:
		return res.line, res.err
	}
}
