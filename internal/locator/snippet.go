package locator

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ahrdadan/browsemd/internal/toolerr"
)

// FocalSelector matches the input-like controls a snippet can target.
const FocalSelector = "input, textarea"

// Snippet is a parsed, non-live fragment with its focal element.
type Snippet struct {
	focal *html.Node
}

// ParseSnippet parses fragment and picks the first input-like element in
// document order as the focal element.
func ParseSnippet(fragment string) (*Snippet, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, toolerr.Wrap(toolerr.KindSnippetInvalid, "failed to parse html snippet", err)
	}

	sel := doc.Find(FocalSelector).First()
	if sel.Length() == 0 {
		return nil, toolerr.New(toolerr.KindSnippetInvalid, "no input element found in the provided html")
	}

	return &Snippet{focal: sel.Get(0)}, nil
}

// Focal returns the focal element node.
func (s *Snippet) Focal() *html.Node {
	return s.focal
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
