package prompt

import (
	"fmt"
	"strings"

	"github.com/nbenliogludev/go-browser-command-agent/internal/dom"
)

// maxWindowSize is the most context blocks a prompt ever carries.
const maxWindowSize = 3

// Window is a FIFO of rendered context blocks bounded to size entries.
type Window struct {
	size    int
	entries []string
}

func NewWindow(size int, seed ...string) *Window {
	if size <= 0 || size > maxWindowSize {
		size = maxWindowSize
	}
	w := &Window{size: size}
	for _, s := range seed {
		w.Push(s)
	}
	return w
}

// Push appends entry and drops the oldest entries beyond the bound.
func (w *Window) Push(entry string) {
	w.entries = append(w.entries, entry)
	if len(w.entries) > w.size {
		w.entries = w.entries[len(w.entries)-w.size:]
	}
}

func (w *Window) Entries() []string {
	out := make([]string, len(w.entries))
	copy(out, w.entries)
	return out
}

func (w *Window) Len() int { return len(w.entries) }

type Options struct {
	WindowSize   int
	URLLimit     int
	ContentLimit int
	SeedExamples bool
}

// Input is what one iteration knows when it asks for a command.
type Input struct {
	Objective       string
	URL             string
	PreviousCommand string
	Elements        []dom.Element
}

// Builder renders context blocks and keeps the sliding window of them.
type Builder struct {
	window       *Window
	urlLimit     int
	contentLimit int
}

func NewBuilder(opts Options) *Builder {
	var seed []string
	if opts.SeedExamples {
		seed = Examples()
	}
	return &Builder{
		window:       NewWindow(opts.WindowSize, seed...),
		urlLimit:     opts.URLLimit,
		contentLimit: opts.ContentLimit,
	}
}

// Build renders the context for in, appends it to the window and returns the
// full prompt built from the window.
func (b *Builder) Build(in Input) string {
	b.window.Push(b.Render(in))
	return Compose(b.window.Entries())
}

// Render produces one context block without touching the window.
func (b *Builder) Render(in Input) string {
	r := strings.NewReplacer(
		"$browser_content", truncate(Inventory(in.Elements), b.contentLimit),
		"$objective", in.Objective,
		"$url", truncate(in.URL, b.urlLimit),
		"$previous_command", in.PreviousCommand,
	)
	return r.Replace(contextTemplate)
}

func (b *Builder) Window() *Window { return b.window }

// Compose wraps context blocks, oldest first, in the session header.
func Compose(contexts []string) string {
	var sb strings.Builder
	sb.WriteString(sessionHeader)
	for _, c := range contexts {
		sb.WriteString("\n")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// Inventory serializes elements one per line; the line index is the element id.
func Inventory(elements []dom.Element) string {
	lines := make([]string, len(elements))
	for i, el := range elements {
		lines[i] = fmt.Sprintf("<%s id=%d>%s</%s>", el.Kind, i, el.Text, el.Kind)
	}
	return strings.Join(lines, "\n")
}

// truncate keeps the first limit characters of s.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
