package browser

import (
	"context"
	"fmt"
	"log"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// ChromeOptions configures sessions launched by NewChromeFactory.
type ChromeOptions struct {
	Bin       string
	Headless  bool
	Stealth   bool
	UserAgent string
	Headers   map[string]string
}

// NewChromeFactory returns a Factory that launches Chromium through rod.
func NewChromeFactory(opts ChromeOptions) Factory {
	return func(ctx context.Context) (Session, error) {
		return launchChrome(ctx, opts)
	}
}

// chromeSession drives a single tab of a rod-launched browser.
type chromeSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	wsURL    string
}

func launchChrome(ctx context.Context, opts ChromeOptions) (*chromeSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := launcher.New().Headless(opts.Headless)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}

	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}

	page, err := openPage(b, opts.Stealth)
	if err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, err
	}

	if err := applyPageOptions(page, opts); err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, err
	}

	log.Printf("Chrome started with endpoint %s", wsURL)
	return &chromeSession{
		launcher: l,
		browser:  b,
		page:     page,
		wsURL:    wsURL,
	}, nil
}

func openPage(b *rod.Browser, useStealth bool) (*rod.Page, error) {
	var page *rod.Page
	var err error
	if useStealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}
	return page, nil
}

func applyPageOptions(page *rod.Page, opts ChromeOptions) error {
	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			return fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	if len(opts.Headers) > 0 {
		pairs := make([]string, 0, len(opts.Headers)*2)
		for key, value := range opts.Headers {
			pairs = append(pairs, key, value)
		}
		if _, err := page.SetExtraHeaders(pairs); err != nil {
			return fmt.Errorf("failed to set headers: %w", err)
		}
	}

	return nil
}

func (s *chromeSession) Endpoint() string {
	return s.wsURL
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *chromeSession) Title(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to get page title: %w", err)
	}
	return info.Title, nil
}

func (s *chromeSession) Source(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get page source: %w", err)
	}
	return html, nil
}

func (s *chromeSession) FindElement(ctx context.Context, by By, selector string) (Element, error) {
	p := s.page.Context(ctx).Sleeper(rod.NotFoundSleeper)

	var el *rod.Element
	var err error
	switch by {
	case ByXPath:
		el, err = p.ElementX(selector)
	case ByCSS:
		el, err = p.Element(selector)
	default:
		return nil, fmt.Errorf("unsupported selector kind: %s", by)
	}
	if err != nil {
		return nil, fmt.Errorf("element not found (%s %s): %w", by, selector, err)
	}
	return &chromeElement{el: el}, nil
}

func (s *chromeSession) CountElements(ctx context.Context, css string) (int, error) {
	els, err := s.page.Context(ctx).Elements(css)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

func (s *chromeSession) Quit() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("failed to close chrome: %w", err)
	}
	log.Println("Chrome stopped")
	return nil
}

type chromeElement struct {
	el *rod.Element
}

func (e *chromeElement) Clear(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(`() => {
		this.value = '';
		this.dispatchEvent(new Event('input', { bubbles: true }));
	}`)
	if err != nil {
		return fmt.Errorf("failed to clear element: %w", err)
	}
	return nil
}

func (e *chromeElement) SendText(ctx context.Context, text string) error {
	if err := e.el.Context(ctx).Input(text); err != nil {
		return fmt.Errorf("failed to input text: %w", err)
	}
	return nil
}
