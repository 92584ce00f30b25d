package lifecycle

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mikey/scam-monitor/internal/core"
)

// Confirmer asks whether running channels may be stopped
type Confirmer interface {
	Confirm(ctx context.Context, running []core.Channel) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, running []core.Channel) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, running []core.Channel) (bool, error) {
	return f(ctx, running)
}

// Always confirms every exit
func Always() Confirmer {
	return ConfirmFunc(func(context.Context, []core.Channel) (bool, error) { return true, nil })
}

// Never declines every exit
func Never() Confirmer {
	return ConfirmFunc(func(context.Context, []core.Channel) (bool, error) { return false, nil })
}

// Prompt asks on a terminal. Only "y" or "yes" confirms.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt creates a prompt reading answers from in
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Confirm prints the running channels and waits for an answer or ctx
func (p *Prompt) Confirm(ctx context.Context, running []core.Channel) (bool, error) {
	names := make([]string, len(running))
	for i, ch := range running {
		names[i] = string(ch)
	}
	fmt.Fprintf(p.out, "Monitoring is running for %s. Stop and exit? [y/N]: ", strings.Join(names, ", "))

	type answer struct {
		line string
		err  error
	}
	answers := make(chan answer, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		answers <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-answers:
		if a.err != nil && a.err != io.EOF {
			return false, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

// NewConfirmer selects a confirmer by its configured name: prompt, always or never
func NewConfirmer(mode string, in io.Reader, out io.Writer) (Confirmer, error) {
	switch mode {
	case "", "prompt":
		return NewPrompt(in, out), nil
	case "always":
		return Always(), nil
	case "never":
		return Never(), nil
	default:
		return nil, fmt.Errorf("unknown exit confirmation mode: %s", mode)
	}
}
