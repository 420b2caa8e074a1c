package agent

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/command"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	commandColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

// Report is the summary of one objective run.
type Report struct {
	RunID      string
	Objective  string
	Steps      int
	Executed   int
	ExitReason string
	Err        error
	Duration   time.Duration
	Trace      []string
}

// Reporter prints the trace of one objective and logs it under a run id.
type Reporter struct {
	out    io.Writer
	logger *zap.Logger

	runID     string
	objective string
	start     time.Time
	steps     int
	executed  int
	trace     []string
	exit      string
	err       error
}

func NewReporter(out io.Writer, logger *zap.Logger, objective string) *Reporter {
	runID := uuid.NewString()
	return &Reporter{
		out:       out,
		logger:    logger.With(zap.String("run_id", runID)),
		runID:     runID,
		objective: objective,
	}
}

func (r *Reporter) Started() {
	r.start = time.Now()
	r.logger.Info("Objective started", zap.String("objective", r.objective))
	headerColor.Fprintf(r.out, "Objective: %s\n", r.objective)
}

func (r *Reporter) Command(step int, url string, action command.Action) {
	r.steps = step

	commandColor.Fprintf(r.out, "COMMAND: %s\n", action.Line)
	if action.Selector != "" {
		fmt.Fprintf(r.out, "SELECTOR: %s\n", action.Selector)
	}

	r.logger.Info("Command interpreted",
		zap.Int("step", step),
		zap.String("url", url),
		zap.Stringer("kind", action.Kind),
		zap.String("selector", action.Selector),
	)
	r.trace = append(r.trace, fmt.Sprintf("STEP %d | URL=%s | %s | SELECTOR=%s", step, url, action.Line, action.Selector))
}

func (r *Reporter) Rejected(step int, raw string, err error) {
	r.steps = step
	r.logger.Warn("Command rejected", zap.Int("step", step), zap.String("raw", raw), zap.Error(err))
	r.trace = append(r.trace, fmt.Sprintf("STEP %d | REJECTED %q | %v", step, firstLine(raw), err))
}

func (r *Reporter) Executed() { r.executed++ }

func (r *Reporter) Skipped(step int, why error) {
	r.logger.Warn("Command skipped", zap.Int("step", step), zap.Error(why))
	warnColor.Fprintf(r.out, "Skipped: %v\n", why)
	r.trace = append(r.trace, fmt.Sprintf("STEP %d | SKIPPED | %v", step, why))
}

func (r *Reporter) NoCommand(step int) {
	r.steps = step
	fmt.Fprintln(r.out, "No command generated")
}

// Stopped closes the run with err as its cause; nil means the model finished.
func (r *Reporter) Stopped(err error) {
	r.err = err
	r.exit = exitReason(err)

	fields := []zap.Field{
		zap.String("exit_reason", r.exit),
		zap.Int("steps", r.steps),
		zap.Duration("duration", time.Since(r.start)),
	}
	if err != nil {
		r.logger.Error("Objective stopped", append(fields, zap.Error(err))...)
		errorColor.Fprintf(r.out, "Failed to run command: %v\n", err)
	} else {
		r.logger.Info("Objective finished", fields...)
	}
	r.printReport()
}

func (r *Reporter) Summary() Report {
	trace := make([]string, len(r.trace))
	copy(trace, r.trace)
	return Report{
		RunID:      r.runID,
		Objective:  r.objective,
		Steps:      r.steps,
		Executed:   r.executed,
		ExitReason: r.exit,
		Err:        r.err,
		Duration:   time.Since(r.start).Truncate(time.Millisecond),
		Trace:      trace,
	}
}

func (r *Reporter) printReport() {
	s := r.Summary()

	headerColor.Fprintln(r.out, "\n===== EXECUTION REPORT =====")
	fmt.Fprintf(r.out, "Run: %s\n", s.RunID)
	fmt.Fprintf(r.out, "Objective: %s\n", s.Objective)
	fmt.Fprintf(r.out, "Duration: %s\n", s.Duration)
	fmt.Fprintf(r.out, "Commands executed: %d\n", s.Executed)
	fmt.Fprintf(r.out, "Exit reason: %s\n", s.ExitReason)

	if len(s.Trace) > 0 {
		fmt.Fprintln(r.out, "\n--- STEP TRACE ---")
		fmt.Fprintln(r.out, strings.Join(s.Trace, "\n"))
	}
	headerColor.Fprintln(r.out, "===== END OF REPORT =====")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
