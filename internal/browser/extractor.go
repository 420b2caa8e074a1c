package browser

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nbenliogludev/go-browser-command-agent/internal/config"
	"github.com/nbenliogludev/go-browser-command-agent/internal/dom"
)

// Extractor produces the interactive inventory of a page.
type Extractor interface {
	Extract(ctx context.Context, page Page) ([]dom.Element, error)
}

// LiveExtractor runs dom.Script inside the page.
type LiveExtractor struct{}

func (LiveExtractor) Extract(ctx context.Context, page Page) ([]dom.Element, error) {
	if page == nil {
		return nil, ErrUninitializedSession
	}
	result, err := page.Evaluate(ctx, dom.Script)
	if err != nil {
		return nil, fmt.Errorf("js evaluation failed: %w", err)
	}
	payload, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("expected string from js, got %T", result)
	}
	candidates, err := dom.DecodeCandidates(payload)
	if err != nil {
		return nil, err
	}
	return dom.Elements(candidates), nil
}

// StaticExtractor parses the serialized DOM instead of running script in the
// page. Every selector is resolved back against the parsed document and
// elements that do not round-trip are dropped before ids are assigned.
type StaticExtractor struct {
	Logger *zap.Logger
}

func (s StaticExtractor) Extract(ctx context.Context, page Page) ([]dom.Element, error) {
	if page == nil {
		return nil, ErrUninitializedSession
	}
	content, err := page.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}
	elements, doc, err := dom.ExtractHTML(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	kept, dropped := dom.Verify(doc, elements)
	for _, el := range dropped {
		if s.Logger != nil {
			s.Logger.Warn("Dropping element with unresolvable selector",
				zap.String("selector", el.DomPath),
				zap.String("text", el.Text),
			)
		}
	}
	return kept, nil
}

func NewExtractor(mode string, logger *zap.Logger) (Extractor, error) {
	switch mode {
	case config.ExtractionLive, "":
		return LiveExtractor{}, nil
	case config.ExtractionStatic:
		return StaticExtractor{Logger: logger.Named("extractor")}, nil
	default:
		return nil, fmt.Errorf("unknown extraction mode %q", mode)
	}
}
