package browser

import "context"

// By selects how FindElement interprets a selector.
type By string

const (
	ByCSS   By = "css selector"
	ByXPath By = "xpath"
)

// Element is a live element found in the current page.
type Element interface {
	Clear(ctx context.Context) error
	SendText(ctx context.Context, text string) error
}

// Session is the live browser session driven by the tool operations.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	Source(ctx context.Context) (string, error)
	// FindElement returns the first element matching selector or a lookup error.
	// It never waits for the element to appear.
	FindElement(ctx context.Context, by By, selector string) (Element, error)
	CountElements(ctx context.Context, css string) (int, error)
	Quit() error
}

// Factory launches a new Session.
type Factory func(ctx context.Context) (Session, error)

// endpointer is implemented by sessions that expose a DevTools endpoint.
type endpointer interface {
	Endpoint() string
}
