package agent

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInterrupted     = errors.New("execution interrupted")
	ErrExtractionFail  = errors.New("extraction error")
	ErrPageUnavailable = errors.New("page unavailable")
)

type Runner struct {
	agent     *Agent
	objective string
	reporter  *Reporter
}

func NewRunner(a *Agent, objective string) *Runner {
	return &Runner{
		agent:     a,
		objective: objective,
		reporter:  NewReporter(a.out, a.logger, objective),
	}
}

func (r *Runner) Run(ctx context.Context) error {
	r.reporter.Started()

	for step := 1; ; step++ {
		if ctx.Err() != nil {
			r.reporter.Stopped(ErrInterrupted)
			return ErrInterrupted
		}

		finished, err := r.executeStep(ctx, step)
		if err != nil {
			if ctx.Err() != nil {
				err = errors.Join(ErrInterrupted, err)
			}
			r.reporter.Stopped(err)
			return err
		}

		if finished {
			r.reporter.Stopped(nil)
			return nil
		}

		if !sleep(ctx, r.agent.delay) {
			r.reporter.Stopped(ErrInterrupted)
			return ErrInterrupted
		}
	}
}

// Report describes the run so far.
func (r *Runner) Report() Report { return r.reporter.Summary() }

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
