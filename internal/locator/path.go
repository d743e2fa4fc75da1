package locator

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// StructuralPath builds the absolute XPath of n from tag names and 1-based
// positions among same-tag siblings. The position is omitted when n has no
// same-tag sibling. An element without an element parent yields "/tag".
func StructuralPath(n *html.Node) string {
	var segments []string
	for e := n; e != nil; e = parentElement(e) {
		segments = append(segments, segment(e))
	}

	var b strings.Builder
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(segments[i])
	}
	return b.String()
}

func segment(e *html.Node) string {
	tag := strings.ToLower(e.Data)
	parent := parentElement(e)
	if parent == nil {
		return tag
	}

	count, index := 0, 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || !strings.EqualFold(c.Data, e.Data) {
			continue
		}
		count++
		if c == e {
			index = count
		}
	}

	if count == 1 {
		return tag
	}
	return tag + "[" + strconv.Itoa(index) + "]"
}

func parentElement(n *html.Node) *html.Node {
	if n.Parent == nil || n.Parent.Type != html.ElementNode {
		return nil
	}
	return n.Parent
}
