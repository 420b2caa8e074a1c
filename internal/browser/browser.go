package browser

import (
	"context"
	"errors"
	"time"
)

const LoadStateDomcontentloaded = "domcontentloaded"

var (
	ErrUninitializedSession = errors.New("page is not initialized")
	ErrStalePage            = errors.New("page was replaced by a newer one")
)

// Page is one browser tab as seen by the agent. A Page value is bound to the
// generation of the session's page slot at the time it was handed out.
type Page interface {
	Generation() uint64
	URL(ctx context.Context) (string, error)
	// Evaluate runs a JavaScript function expression in the page and returns its result.
	Evaluate(ctx context.Context, script string) (any, error)
	// Content returns the serialized DOM.
	Content(ctx context.Context) (string, error)
	Navigate(ctx context.Context, url string) error
	WaitForContentLoaded(ctx context.Context) error
	Locator(selector string) Locator
}

// Locator is an actionable handle for a structural selector.
type Locator interface {
	ScrollIntoView(ctx context.Context) error
	Click(ctx context.Context, timeout time.Duration) error
	Type(ctx context.Context, text string, delay time.Duration) error
	Press(ctx context.Context, key string) error
}

// Session owns one browsing context and its current page slot.
type Session interface {
	Open(ctx context.Context, url string) error
	Current() (Page, error)
	// IsCurrent reports whether generation still occupies the page slot.
	IsCurrent(generation uint64) bool
	Close() error
}

// await runs fn and returns early when ctx is done. fn keeps running in the
// background in that case; the drivers it wraps take no context.
func await(ctx context.Context, fn func() error) error {
	_, err := awaitValue(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

type outcome[T any] struct {
	value T
	err   error
}

// awaitValue is await for calls that produce a value. The value travels over
// the channel, so an abandoned call never writes to memory the caller reads.
func awaitValue[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	done := make(chan outcome[T], 1)
	go func() {
		v, err := fn()
		done <- outcome[T]{value: v, err: err}
	}()
	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
