// Package browsertest provides an in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ahrdadan/browsemd/internal/browser"
)

// ErrNoSuchElement is returned by FindElement when no element is registered.
var ErrNoSuchElement = errors.New("no such element")

// Page is the content served after navigating to a URL.
type Page struct {
	Title  string
	Source string
	// Counts maps CSS selectors to the number of matching elements.
	Counts map[string]int
	// Sequences overrides Counts with one value per call, in order. The last
	// value repeats once the sequence is used up.
	Sequences map[string][]int
}

// Element records what was done to it.
type Element struct {
	Name     string
	Cleared  bool
	Text     string
	ClearErr error
	SendErr  error
}

func (e *Element) Clear(_ context.Context) error {
	if e.ClearErr != nil {
		return e.ClearErr
	}
	e.Cleared = true
	e.Text = ""
	return nil
}

func (e *Element) SendText(_ context.Context, text string) error {
	if e.SendErr != nil {
		return e.SendErr
	}
	e.Text += text
	return nil
}

// Session is a scripted browser.Session.
type Session struct {
	mu sync.Mutex

	Pages    map[string]Page
	Elements map[string]*Element

	NavigateErr error
	QuitErr     error

	current     Page
	probes      map[string]int
	Visited     []string
	Lookups     []string
	Quitted     bool
	EndpointURL string
}

// NewSession creates an empty scripted session.
func NewSession() *Session {
	return &Session{
		Pages:    make(map[string]Page),
		Elements: make(map[string]*Element),
	}
}

// Key builds the Elements map key for a lookup.
func Key(by browser.By, selector string) string {
	return fmt.Sprintf("%s|%s", by, selector)
}

// AddElement registers el under the given lookup.
func (s *Session) AddElement(by browser.By, selector string, el *Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Elements[Key(by, selector)] = el
}

// SetPage registers the page served for url.
func (s *Session) SetPage(url string, p Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pages[url] = p
}

// SetCurrent replaces the current page without navigation.
func (s *Session) SetCurrent(p Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p
	s.probes = nil
}

func (s *Session) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	s.Visited = append(s.Visited, url)
	if p, ok := s.Pages[url]; ok {
		s.current = p
	} else {
		s.current = Page{}
	}
	s.probes = nil
	return nil
}

func (s *Session) Title(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Title, nil
}

func (s *Session) Source(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Source, nil
}

func (s *Session) FindElement(_ context.Context, by browser.By, selector string) (browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Key(by, selector)
	s.Lookups = append(s.Lookups, key)
	if el, ok := s.Elements[key]; ok {
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoSuchElement, key)
}

func (s *Session) CountElements(_ context.Context, css string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq := s.current.Sequences[css]; len(seq) > 0 {
		if s.probes == nil {
			s.probes = make(map[string]int)
		}
		i := s.probes[css]
		s.probes[css]++
		if i >= len(seq) {
			i = len(seq) - 1
		}
		return seq[i], nil
	}
	return s.current.Counts[css], nil
}

func (s *Session) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Quitted = true
	return s.QuitErr
}

func (s *Session) Endpoint() string {
	return s.EndpointURL
}

// Factory hands out a single prepared session and counts launches.
type Factory struct {
	mu       sync.Mutex
	Session  *Session
	Err      error
	Launches int
}

// NewFactory returns a Factory serving session.
func NewFactory(session *Session) *Factory {
	return &Factory{Session: session}
}

// Func adapts f to browser.Factory.
func (f *Factory) Func() browser.Factory {
	return func(_ context.Context) (browser.Session, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.Err != nil {
			return nil, f.Err
		}
		f.Launches++
		return f.Session, nil
	}
}
