package dom

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ErrBadSelector is returned for selectors that are not structural paths.
var ErrBadSelector = errors.New("not a structural selector")

const segmentSep = " > "

// DomPath builds the structural selector for node: one tag:nth-of-type(k)
// segment per ancestor below <html>, closest-to-root first.
func DomPath(node *html.Node) string {
	var stack []string
	for n := node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		tag := strings.ToLower(n.Data)
		if tag == "html" || n.Parent == nil {
			break
		}

		// nth-of-type is 1-based.
		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.EqualFold(prev.Data, n.Data) {
				index++
			}
		}
		stack = append(stack, fmt.Sprintf("%s:nth-of-type(%d)", tag, index))
	}

	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	return strings.Join(stack, segmentSep)
}

// XPath rewrites a structural selector as an absolute XPath rooted at /html.
func XPath(selector string) (string, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return "/html", nil
	}

	var sb strings.Builder
	sb.WriteString("/html")
	for _, seg := range strings.Split(selector, segmentSep) {
		tag, rest, ok := strings.Cut(strings.TrimSpace(seg), ":nth-of-type(")
		if !ok || tag == "" || !strings.HasSuffix(rest, ")") {
			return "", fmt.Errorf("%w: segment %q", ErrBadSelector, seg)
		}
		k, err := strconv.Atoi(strings.TrimSuffix(rest, ")"))
		if err != nil || k < 1 {
			return "", fmt.Errorf("%w: segment %q", ErrBadSelector, seg)
		}
		fmt.Fprintf(&sb, "/%s[%d]", tag, k)
	}
	return sb.String(), nil
}

// Resolve locates the node a structural selector points at within doc.
func Resolve(doc *html.Node, selector string) (*html.Node, error) {
	expr, err := XPath(selector)
	if err != nil {
		return nil, err
	}
	node, err := htmlquery.Query(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", expr, err)
	}
	if node == nil {
		return nil, fmt.Errorf("no node matches %q", selector)
	}
	return node, nil
}

// Verify splits elements into those whose selector resolves to a node of doc
// and those that do not. Only the first group can be acted on.
func Verify(doc *html.Node, elements []Element) (kept, dropped []Element) {
	kept = make([]Element, 0, len(elements))
	for _, el := range elements {
		if _, err := Resolve(doc, el.DomPath); err != nil {
			dropped = append(dropped, el)
			continue
		}
		kept = append(kept, el)
	}
	return kept, dropped
}
