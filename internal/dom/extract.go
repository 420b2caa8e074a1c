package dom

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/html"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Script collects extraction candidates from the live document. It mirrors
// DomPath and the static walk below, but reads the rendered innerText and the
// onclick property, which only exist in a running page. The result is a JSON
// string so every backend decodes it the same way.
const Script = `() => {
	const domPath = (el) => {
		const stack = [];
		while (el.parentNode !== null) {
			let sibCount = 0;
			let sibIndex = 0;
			for (let i = 0; i < el.parentNode.childNodes.length; i += 1) {
				const sib = el.parentNode.childNodes[i];
				if (sib && sib.nodeName === el.nodeName) {
					if (sib === el) {
						sibIndex = sibCount;
						break;
					}
					sibCount += 1;
				}
			}
			const nodeName = CSS.escape(el.nodeName.toLowerCase());
			if (nodeName === "html") break;
			stack.unshift(nodeName + ":nth-of-type(" + (sibIndex + 1) + ")");
			el = el.parentNode;
		}
		return stack.join(" > ");
	};

	const candidateTags = new Set(["a", "input", "textarea", "button"]);
	const out = [];
	for (const el of document.getElementsByTagName("*")) {
		const tag = el.nodeName.toLowerCase();
		const clickable = el.onclick !== null && el.onclick !== undefined;
		if (!candidateTags.has(tag) && !clickable) continue;

		const label = (el.getAttribute("aria-label") || el.innerText || "").trim();
		if (!label) continue;

		out.push({
			tag: tag,
			type: el.getAttribute("type") || "",
			label: label,
			clickable: clickable,
			path: domPath(el),
		});
	}
	return JSON.stringify(out);
}`

// DecodeCandidates parses the payload returned by Script.
func DecodeCandidates(payload string) ([]Candidate, error) {
	var out []Candidate
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, fmt.Errorf("decode extraction payload: %w", err)
	}
	return out, nil
}

var candidateTags = map[string]bool{"a": true, "input": true, "textarea": true, "button": true}

// ExtractHTML runs the extraction over a serialized document. Labels come from
// aria-label or text content, click handlers from the onclick attribute.
func ExtractHTML(r io.Reader) ([]Element, *html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parse document: %w", err)
	}
	return Elements(Candidates(doc)), doc, nil
}

// Candidates walks doc in document order and collects labelled candidates.
func Candidates(doc *html.Node) []Candidate {
	var out []Candidate
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if c, ok := candidateFor(n); ok {
				out = append(out, c)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return out
}

func candidateFor(n *html.Node) (Candidate, bool) {
	tag := strings.ToLower(n.Data)
	_, clickable := attr(n, "onclick")
	if !candidateTags[tag] && !clickable {
		return Candidate{}, false
	}

	label, _ := attr(n, "aria-label")
	if label == "" {
		label = textContent(n)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return Candidate{}, false
	}

	inputType, _ := attr(n, "type")
	return Candidate{
		Tag:       tag,
		InputType: inputType,
		Label:     label,
		Clickable: clickable,
		DomPath:   DomPath(n),
	}, true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

var invisibleTags = map[string]bool{"script": true, "style": true, "noscript": true, "template": true, "head": true}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		case html.ElementNode:
			if invisibleTags[strings.ToLower(n.Data)] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
