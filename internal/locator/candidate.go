// Package locator derives strategies for finding a live element from a
// serialized HTML fragment and resolves them against a browser session.
package locator

import "github.com/ahrdadan/browsemd/internal/browser"

// Kind names a locating strategy.
type Kind string

const (
	KindID      Kind = "id"
	KindName    Kind = "name"
	KindPath    Kind = "structural-path"
	KindClass   Kind = "class-list"
	KindTagType Kind = "tag-type"
	KindTag     Kind = "tag"
)

// Candidate is one strategy for finding the live element. Lower Priority is tried first.
type Candidate struct {
	Kind     Kind   `json:"kind"`
	Selector string `json:"selector"`
	Priority int    `json:"priority"`
}

// By reports how the selector must be interpreted by the driver.
func (c Candidate) By() browser.By {
	if c.Kind == KindPath {
		return browser.ByXPath
	}
	return browser.ByCSS
}
