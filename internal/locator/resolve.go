package locator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ahrdadan/browsemd/internal/browser"
	"github.com/ahrdadan/browsemd/internal/toolerr"
)

// Finder looks up one live element. browser.Session satisfies it.
type Finder interface {
	FindElement(ctx context.Context, by browser.By, selector string) (browser.Element, error)
}

// Resolve tries candidates one at a time in priority order and returns the
// first element found with the candidate that found it. Individual lookup
// failures only advance to the next candidate. When every candidate fails the
// error is element_not_found wrapping the last lookup error.
func Resolve(ctx context.Context, f Finder, candidates []Candidate) (browser.Element, Candidate, error) {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	var lastErr error
	for _, c := range ordered {
		el, err := f.FindElement(ctx, c.By(), c.Selector)
		if err != nil {
			lastErr = err
			continue
		}
		if el == nil {
			lastErr = fmt.Errorf("empty result for %s %s", c.By(), c.Selector)
			continue
		}
		return el, c, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no locator candidates")
	}
	return nil, Candidate{}, toolerr.Wrap(toolerr.KindElementNotFound, "no matching element found on the page", lastErr)
}

// FillInput resolves the element described by fragment, clears it and types text.
func FillInput(ctx context.Context, f Finder, fragment, text string) (Candidate, error) {
	snippet, err := ParseSnippet(fragment)
	if err != nil {
		return Candidate{}, err
	}

	el, used, err := Resolve(ctx, f, Synthesize(snippet))
	if err != nil {
		return Candidate{}, err
	}

	if err := el.Clear(ctx); err != nil {
		return used, toolerr.Wrap(toolerr.KindInternal, "failed to clear input", err)
	}
	if err := el.SendText(ctx, text); err != nil {
		return used, toolerr.Wrap(toolerr.KindInternal, "failed to type into input", err)
	}
	return used, nil
}
