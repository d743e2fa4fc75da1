// Package tools implements the browser and conversion operations exposed to
// calling agents.
package tools

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ahrdadan/browsemd/internal/browser"
	"github.com/ahrdadan/browsemd/internal/events"
	"github.com/ahrdadan/browsemd/internal/locator"
	"github.com/ahrdadan/browsemd/internal/markdown"
	"github.com/ahrdadan/browsemd/internal/search"
	"github.com/ahrdadan/browsemd/internal/toolerr"
)

// CaptchaMessage is returned when a human verification challenge blocks a search.
const CaptchaMessage = "Google verification detected. Complete the verification in the browser window, then call google_search_to_markdown again with the same keyword."

// Options holds operation settings
type Options struct {
	DownloadDir string
	ReaderURL   string
	SearchURL   string
	LoadWait    time.Duration
	SearchWait  time.Duration
	RecheckWait time.Duration
}

// DefaultOptions returns default operation settings
func DefaultOptions() Options {
	return Options{
		DownloadDir: "downloads",
		ReaderURL:   "https://r.jina.ai/",
		SearchURL:   "https://www.google.com/search?q=",
		LoadWait:    2 * time.Second,
		SearchWait:  3 * time.Second,
		RecheckWait: 2 * time.Second,
	}
}

// Result is the outcome of a successful operation. A suspended result asks the
// caller to obtain human action and invoke the same operation again.
type Result struct {
	Text            string `json:"text"`
	NeedsUserInput  bool   `json:"needs_user_input,omitempty"`
	WaitForResponse bool   `json:"wait_for_response,omitempty"`
}

// Suspended reports whether the caller must pause before resuming.
func (r *Result) Suspended() bool {
	return r.NeedsUserInput || r.WaitForResponse
}

func text(format string, args ...any) *Result {
	return &Result{Text: fmt.Sprintf(format, args...)}
}

func suspended(message string) *Result {
	return &Result{Text: message, NeedsUserInput: true, WaitForResponse: true}
}

// Service runs tool operations against the single browser session
type Service struct {
	manager   *browser.Manager
	converter *markdown.Converter
	events    events.Emitter
	opts      Options
}

// NewService creates a new service. A nil emitter discards events.
func NewService(manager *browser.Manager, converter *markdown.Converter, emitter events.Emitter, opts Options) *Service {
	if emitter == nil {
		emitter = events.Discard
	}
	return &Service{
		manager:   manager,
		converter: converter,
		events:    emitter,
		opts:      opts,
	}
}

// Manager returns the session manager
func (s *Service) Manager() *browser.Manager {
	return s.manager
}

// StartBrowser launches the browser session
func (s *Service) StartBrowser(ctx context.Context) (*Result, error) {
	if err := s.manager.Start(ctx); err != nil {
		return nil, err
	}
	s.events.Emit(events.New(events.SessionStarted, "start_browser", ""))
	return text("Browser session started"), nil
}

// NavigateTo opens rawURL in the current session
func (s *Service) NavigateTo(ctx context.Context, rawURL string) (*Result, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	session, err := s.manager.Session()
	if err != nil {
		return nil, err
	}
	if err := navigate(ctx, session, rawURL); err != nil {
		return nil, err
	}
	return text("Navigated to: %s", rawURL), nil
}

// PageTitle returns the current page title
func (s *Service) PageTitle(ctx context.Context) (*Result, error) {
	session, err := s.manager.Session()
	if err != nil {
		return nil, err
	}
	title, err := session.Title(ctx)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.KindInternal, "failed to get page title", err)
	}
	return text("Page title: %s", title), nil
}

// PageSource returns the current page markup
func (s *Service) PageSource(ctx context.Context) (*Result, error) {
	session, err := s.manager.Session()
	if err != nil {
		return nil, err
	}
	source, err := pageSource(ctx, session)
	if err != nil {
		return nil, err
	}
	return &Result{Text: source}, nil
}

// DownloadPage writes the current page markup under the download directory
func (s *Service) DownloadPage(ctx context.Context, filename string) (*Result, error) {
	if filename == "" {
		filename = defaultFilename(time.Now())
	} else if err := validateFilename(filename); err != nil {
		return nil, err
	}

	session, err := s.manager.Session()
	if err != nil {
		return nil, err
	}
	source, err := pageSource(ctx, session)
	if err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(s.opts.DownloadDir)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.KindInternal, "failed to resolve download directory", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, toolerr.Wrap(toolerr.KindInternal, "failed to create download directory", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		return nil, toolerr.Wrap(toolerr.KindInternal, "failed to write page", err)
	}

	log.Printf("Saved page to %s", path)
	return text("Page saved to: %s", path), nil
}

// CloseBrowser ends the browser session
func (s *Service) CloseBrowser(_ context.Context) (*Result, error) {
	if err := s.manager.Close(); err != nil {
		if !toolerr.Is(err, toolerr.KindSessionNotActive) {
			s.events.Emit(events.New(events.SessionClosed, "close_browser", err.Error()))
		}
		return nil, err
	}
	s.events.Emit(events.New(events.SessionClosed, "close_browser", ""))
	return text("Browser session closed"), nil
}

// VisitMarkdownURL opens rawURL through the reader service
func (s *Service) VisitMarkdownURL(ctx context.Context, rawURL string) (*Result, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	session, err := s.manager.Session()
	if err != nil {
		return nil, err
	}

	readerURL := s.opts.ReaderURL + encodeComponent(rawURL)
	if err := navigate(ctx, session, readerURL); err != nil {
		return nil, err
	}
	return text("Opened Markdown view: %s", readerURL), nil
}

// ConvertToMarkdown opens rawURL, waits the load pause and converts the page
func (s *Service) ConvertToMarkdown(ctx context.Context, rawURL string) (*Result, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	session, err := s.manager.Session()
	if err != nil {
		return nil, err
	}
	if err := navigate(ctx, session, rawURL); err != nil {
		return nil, err
	}
	if err := s.wait(ctx, s.opts.LoadWait); err != nil {
		return nil, err
	}
	return s.convertSession(ctx, session)
}

// ConvertCurrentToMarkdown converts the page currently loaded
func (s *Service) ConvertCurrentToMarkdown(ctx context.Context) (*Result, error) {
	session, err := s.manager.Session()
	if err != nil {
		return nil, err
	}
	return s.convertSession(ctx, session)
}

// GoogleSearchToMarkdown searches for keyword and returns the structured report.
// A verification challenge yields a suspended result instead of an error.
func (s *Service) GoogleSearchToMarkdown(ctx context.Context, keyword string) (*Result, error) {
	if err := requireParam("keyword", keyword); err != nil {
		return nil, err
	}
	session, err := s.manager.Session()
	if err != nil {
		return nil, err
	}

	if err := navigate(ctx, session, s.opts.SearchURL+encodeComponent(keyword)); err != nil {
		return nil, err
	}
	if err := s.wait(ctx, s.opts.SearchWait); err != nil {
		return nil, err
	}

	blocked, err := checkCaptcha(ctx, session)
	if err == nil && !blocked {
		if err = s.wait(ctx, s.opts.RecheckWait); err == nil {
			blocked, err = checkCaptcha(ctx, session)
		}
	}
	if err != nil {
		return nil, err
	}
	if blocked {
		log.Printf("Verification challenge detected for search %q", keyword)
		return suspended(CaptchaMessage), nil
	}

	source, err := pageSource(ctx, session)
	if err != nil {
		return nil, err
	}
	md, err := s.converter.Convert(source)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(md) == "" {
		return suspended(CaptchaMessage), nil
	}

	report, _ := search.Structure(md)
	return &Result{Text: report}, nil
}

// TextInput opens rawURL, waits the load pause and types value into the
// element described by fragment.
func (s *Service) TextInput(ctx context.Context, rawURL, fragment, value string) (*Result, error) {
	if err := requireParam("url", rawURL); err != nil {
		return nil, err
	}
	if err := requireParam("html", fragment); err != nil {
		return nil, err
	}
	if value == "" {
		return nil, toolerr.New(toolerr.KindInvalidParams, "text is required")
	}
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	if _, err := locator.ParseSnippet(fragment); err != nil {
		return nil, err
	}

	session, err := s.manager.Session()
	if err != nil {
		return nil, err
	}
	if err := navigate(ctx, session, rawURL); err != nil {
		return nil, err
	}
	if err := s.wait(ctx, s.opts.LoadWait); err != nil {
		return nil, err
	}

	if _, err := s.ResolveAndFillInput(ctx, fragment, value); err != nil {
		return nil, err
	}
	return text("Typed text into input: %s", value), nil
}

// ResolveAndFillInput locates the live counterpart of fragment's input element
// in the current page, clears it and types value.
func (s *Service) ResolveAndFillInput(ctx context.Context, fragment, value string) (locator.Candidate, error) {
	session, err := s.manager.Session()
	if err != nil {
		return locator.Candidate{}, err
	}
	used, err := locator.FillInput(ctx, session, fragment, value)
	if err != nil {
		return locator.Candidate{}, err
	}
	log.Printf("Filled input located by %s %s", used.Kind, used.Selector)
	return used, nil
}

// StructureSearchContent converts markup and composes the search report. It
// does not need a browser session.
func (s *Service) StructureSearchContent(_ context.Context, markup string) (*Result, error) {
	md, err := s.converter.Convert(markup)
	if err != nil {
		return nil, err
	}
	report, _ := search.Structure(md)
	return &Result{Text: report}, nil
}

func (s *Service) convertSession(ctx context.Context, session browser.Session) (*Result, error) {
	source, err := pageSource(ctx, session)
	if err != nil {
		return nil, err
	}
	md, err := s.converter.Convert(source)
	if err != nil {
		return nil, err
	}
	return &Result{Text: md}, nil
}

func (s *Service) wait(ctx context.Context, d time.Duration) error {
	if err := browser.Wait(ctx, d); err != nil {
		return toolerr.Wrap(toolerr.KindInternal, "wait interrupted", err)
	}
	return nil
}

func checkCaptcha(ctx context.Context, session browser.Session) (bool, error) {
	found, err := browser.HasCaptcha(ctx, session)
	if err != nil {
		return false, toolerr.Wrap(toolerr.KindInternal, "failed to check for verification challenge", err)
	}
	return found, nil
}

func navigate(ctx context.Context, session browser.Session, target string) error {
	if err := session.Navigate(ctx, target); err != nil {
		return toolerr.Wrap(toolerr.KindInternal, "failed to navigate", err)
	}
	return nil
}

func pageSource(ctx context.Context, session browser.Session) (string, error) {
	source, err := session.Source(ctx)
	if err != nil {
		return "", toolerr.Wrap(toolerr.KindInternal, "failed to get page source", err)
	}
	return source, nil
}

func requireParam(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return toolerr.Newf(toolerr.KindInvalidParams, "%s is required", name)
	}
	return nil
}

func validateURL(rawURL string) error {
	if err := requireParam("url", rawURL); err != nil {
		return err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return toolerr.Wrap(toolerr.KindInvalidParams, "invalid url", err)
	}
	if u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
		return toolerr.Newf(toolerr.KindInvalidParams, "invalid url: %s", rawURL)
	}
	return nil
}

func validateFilename(name string) error {
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || name != filepath.Base(name) {
		return toolerr.Newf(toolerr.KindInvalidParams, "invalid filename: %s", name)
	}
	return nil
}

func defaultFilename(now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	return "page-" + strings.NewReplacer(":", "-", ".", "-").Replace(stamp) + ".html"
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
