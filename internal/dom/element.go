package dom

import "strings"

// Kind is the closed set of element classes the agent can target.
type Kind int

const (
	KindIgnored Kind = iota
	KindLink
	KindInput
	KindButton
)

func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindInput:
		return "input"
	case KindButton:
		return "button"
	default:
		return "ignored"
	}
}

// Element is one entry of the interactive inventory.
type Element struct {
	Kind    Kind
	Text    string
	DomPath string
}

// Candidate holds the raw facts collected for a DOM element before classification.
type Candidate struct {
	Tag       string `json:"tag"`
	InputType string `json:"type"`
	Label     string `json:"label"`
	Clickable bool   `json:"clickable"`
	DomPath   string `json:"path"`
}

type rule struct {
	kind  Kind
	match func(c Candidate) bool
}

// Order matters: the first matching rule wins.
var rules = []rule{
	{KindInput, isTextInput},
	{KindLink, isAnchor},
	{KindButton, isButton},
}

func isTextInput(c Candidate) bool {
	tag := strings.ToLower(c.Tag)
	if tag == "textarea" {
		return true
	}
	return tag == "input" && strings.EqualFold(c.InputType, "text")
}

func isAnchor(c Candidate) bool {
	return strings.EqualFold(c.Tag, "a")
}

func isButton(c Candidate) bool {
	return strings.EqualFold(c.Tag, "button") || c.Clickable
}

// Classify maps a candidate onto its Kind. Unmatched candidates are KindIgnored.
func Classify(c Candidate) Kind {
	for _, r := range rules {
		if r.match(c) {
			return r.kind
		}
	}
	return KindIgnored
}

// Elements classifies candidates in order and drops ignored or unlabelled ones.
func Elements(candidates []Candidate) []Element {
	out := make([]Element, 0, len(candidates))
	for _, c := range candidates {
		text := strings.TrimSpace(c.Label)
		if text == "" {
			continue
		}
		kind := Classify(c)
		if kind == KindIgnored {
			continue
		}
		out = append(out, Element{Kind: kind, Text: text, DomPath: c.DomPath})
	}
	return out
}
