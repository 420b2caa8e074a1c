package agent

import (
	"context"
	"os"
	"os/signal"
)

// SignalController scopes interrupt handling to one objective. Outside a
// scope the process keeps the default signal behaviour, so Ctrl+C at the
// objective prompt exits.
type SignalController struct {
	signals []os.Signal
}

func NewSignalController(signals ...os.Signal) *SignalController {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt}
	}
	return &SignalController{signals: signals}
}

// Scope returns a context that is cancelled on the next signal. The returned
// release func must be called when the objective ends.
func (s *SignalController) Scope(parent context.Context) (context.Context, context.CancelFunc) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, s.signals...)

	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(ch)
		cancel()
	}
}
