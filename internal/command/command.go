package command

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrInvalidCommandSyntax = errors.New("invalid command syntax")
	ErrUnknownElementID     = errors.New("unknown element id")
	ErrActionExecution      = errors.New("action execution failed")
)

type Kind int

const (
	KindScrollUp Kind = iota
	KindScrollDown
	KindClick
	KindType
	KindTypeSubmit
	KindNavigate
)

func (k Kind) String() string {
	switch k {
	case KindScrollUp:
		return "SCROLL-UP"
	case KindScrollDown:
		return "SCROLL-DOWN"
	case KindClick:
		return "CLICK"
	case KindType:
		return "TYPE"
	case KindTypeSubmit:
		return "TYPESUBMIT"
	case KindNavigate:
		return "NAVIGATE"
	default:
		return "UNKNOWN"
	}
}

// Targeted reports whether the command acts on an element id.
func (k Kind) Targeted() bool { return k != KindNavigate }

// Checked in order; TYPESUBMIT shares a prefix with TYPE.
var keywords = []Kind{
	KindScrollUp,
	KindScrollDown,
	KindClick,
	KindTypeSubmit,
	KindType,
	KindNavigate,
}

// Command is one parsed model instruction.
type Command struct {
	Kind Kind
	// Line is the first line of the model output, the part that was parsed.
	Line string
	// Target is the element id; meaningful only when Kind.Targeted().
	Target int
	// Payload is the text to type, or the URL for NAVIGATE.
	Payload string
}

// Parse reads the first line of raw into a Command. A missing id token is a
// syntax error; an id that is not a number can never be in an index.
func Parse(raw string) (Command, error) {
	line, _, _ := strings.Cut(raw, "\n")
	line = strings.TrimSpace(line)

	kind, ok := keyword(line)
	if !ok {
		return Command{}, fmt.Errorf("%w: unrecognized command %q", ErrInvalidCommandSyntax, line)
	}
	cmd := Command{Kind: kind, Line: line}
	tokens := strings.Fields(line)

	if kind == KindNavigate {
		if len(tokens) < 2 {
			return Command{}, fmt.Errorf("%w: NAVIGATE needs a URL", ErrInvalidCommandSyntax)
		}
		u, err := url.Parse(tokens[1])
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return Command{}, fmt.Errorf("%w: NAVIGATE needs an absolute URL, got %q", ErrInvalidCommandSyntax, tokens[1])
		}
		cmd.Payload = tokens[1]
		return cmd, nil
	}

	if len(tokens) < 2 {
		return Command{}, fmt.Errorf("%w: %s needs an element id", ErrInvalidCommandSyntax, kind)
	}
	id, err := strconv.Atoi(tokens[1])
	if err != nil {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownElementID, tokens[1])
	}
	cmd.Target = id

	if kind == KindType || kind == KindTypeSubmit {
		payload, ok := unquote(strings.Join(tokens[2:], " "))
		if !ok {
			return Command{}, fmt.Errorf("%w: %s needs a quoted payload", ErrInvalidCommandSyntax, kind)
		}
		cmd.Payload = payload
	}
	return cmd, nil
}

func keyword(line string) (Kind, bool) {
	for _, k := range keywords {
		if strings.HasPrefix(line, k.String()) {
			return k, true
		}
	}
	return 0, false
}

// unquote drops the first and last characters, which the model is told to
// send as quote delimiters.
func unquote(s string) (string, bool) {
	r := []rune(s)
	if len(r) < 2 {
		return "", false
	}
	return string(r[1 : len(r)-1]), true
}
