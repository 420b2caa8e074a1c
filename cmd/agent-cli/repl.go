package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/agent"
)

var promptColor = color.New(color.FgMagenta, color.Bold)

type objectiveRunner interface {
	Run(ctx context.Context, objective string) error
}

// repl reads the start URL and then one objective per line.
type repl struct {
	scanner *bufio.Scanner
	out     io.Writer
	logger  *zap.Logger
}

// maxLineSize bounds one input line; pasted objectives can be long.
const maxLineSize = 1 << 20

func newREPL(in io.Reader, out io.Writer, logger *zap.Logger) *repl {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
	return &repl{scanner: scanner, out: out, logger: logger}
}

func (r *repl) ask(question string) (string, bool) {
	promptColor.Fprintf(r.out, "? %s ", question)
	if !r.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.scanner.Text()), true
}

// startURL returns the normalized arg, or asks until a valid URL is entered.
func (r *repl) startURL(arg string) (string, error) {
	if arg != "" {
		return normalizeURL(arg)
	}
	for {
		line, ok := r.ask("Enter a URL:")
		if !ok {
			return "", io.EOF
		}
		u, err := normalizeURL(line)
		if err == nil {
			return u, nil
		}
		fmt.Fprintf(r.out, "%v\n", err)
	}
}

// objectives runs each entered objective to completion. A failed objective
// is reported and the loop asks for the next one; EOF, exit or quit end it.
func (r *repl) objectives(ctx context.Context, runner objectiveRunner, signals *agent.SignalController) error {
	id := 0
	for {
		line, ok := r.ask("What should I do?")
		if !ok {
			return r.scanner.Err()
		}
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		id++
		fmt.Fprintf(r.out, "Action %d: %s\n", id, line)

		runCtx, release := signals.Scope(ctx)
		err := runner.Run(runCtx, line)
		release()

		if err != nil {
			r.logger.Warn("Objective failed", zap.Int("action", id), zap.Error(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
