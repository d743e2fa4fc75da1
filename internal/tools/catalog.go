package tools

import (
	"context"
	"encoding/json"
	"log"

	"github.com/ahrdadan/browsemd/internal/events"
	"github.com/ahrdadan/browsemd/internal/toolerr"
)

// Param is one string argument of a tool.
type Param struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Tool describes an operation offered to calling agents.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
	// NeedsSession is false only for tools usable before start_browser.
	NeedsSession bool `json:"needs_session"`

	call func(ctx context.Context, s *Service, args json.RawMessage) (*Result, error)
}

// InputSchema returns the JSON schema of the tool arguments.
func (t Tool) InputSchema() map[string]any {
	props := make(map[string]any, len(t.Params))
	var required []string
	for _, p := range t.Params {
		props[p.Name] = map[string]any{
			"type":        "string",
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

type urlArgs struct {
	URL string `json:"url"`
}

var catalog = []Tool{
	{
		Name:        "start_browser",
		Description: "Start the browser session",
		call: func(ctx context.Context, s *Service, _ json.RawMessage) (*Result, error) {
			return s.StartBrowser(ctx)
		},
	},
	{
		Name:         "navigate_to",
		Description:  "Navigate the browser to a URL",
		Params:       []Param{{Name: "url", Description: "URL to open", Required: true}},
		NeedsSession: true,
		call: func(ctx context.Context, s *Service, raw json.RawMessage) (*Result, error) {
			var args urlArgs
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			return s.NavigateTo(ctx, args.URL)
		},
	},
	{
		Name:         "get_page_title",
		Description:  "Get the title of the current page",
		NeedsSession: true,
		call: func(ctx context.Context, s *Service, _ json.RawMessage) (*Result, error) {
			return s.PageTitle(ctx)
		},
	},
	{
		Name:         "get_page_source",
		Description:  "Get the HTML source of the current page",
		NeedsSession: true,
		call: func(ctx context.Context, s *Service, _ json.RawMessage) (*Result, error) {
			return s.PageSource(ctx)
		},
	},
	{
		Name:         "download_page",
		Description:  "Save the current page HTML to the download directory",
		Params:       []Param{{Name: "filename", Description: "File name, defaults to a timestamped page-*.html"}},
		NeedsSession: true,
		call: func(ctx context.Context, s *Service, raw json.RawMessage) (*Result, error) {
			var args struct {
				Filename string `json:"filename"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			return s.DownloadPage(ctx, args.Filename)
		},
	},
	{
		Name:         "close_browser",
		Description:  "Close the browser session",
		NeedsSession: true,
		call: func(ctx context.Context, s *Service, _ json.RawMessage) (*Result, error) {
			return s.CloseBrowser(ctx)
		},
	},
	{
		Name:         "visit_markdown_url",
		Description:  "Open a web page through the Markdown reader service",
		Params:       []Param{{Name: "url", Description: "URL of the page to read", Required: true}},
		NeedsSession: true,
		call: func(ctx context.Context, s *Service, raw json.RawMessage) (*Result, error) {
			var args urlArgs
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			return s.VisitMarkdownURL(ctx, args.URL)
		},
	},
	{
		Name:         "convert_to_markdown",
		Description:  "Open a web page and convert it to Markdown",
		Params:       []Param{{Name: "url", Description: "URL of the page to convert", Required: true}},
		NeedsSession: true,
		call: func(ctx context.Context, s *Service, raw json.RawMessage) (*Result, error) {
			var args urlArgs
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			return s.ConvertToMarkdown(ctx, args.URL)
		},
	},
	{
		Name:         "convert_current_to_markdown",
		Description:  "Convert the current page to Markdown",
		NeedsSession: true,
		call: func(ctx context.Context, s *Service, _ json.RawMessage) (*Result, error) {
			return s.ConvertCurrentToMarkdown(ctx)
		},
	},
	{
		Name:         "google_search_to_markdown",
		Description:  "Search Google and return the results as structured Markdown",
		Params:       []Param{{Name: "keyword", Description: "Search keywords", Required: true}},
		NeedsSession: true,
		call: func(ctx context.Context, s *Service, raw json.RawMessage) (*Result, error) {
			var args struct {
				Keyword string `json:"keyword"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			return s.GoogleSearchToMarkdown(ctx, args.Keyword)
		},
	},
	{
		Name:        "text_input",
		Description: "Type text into the input field described by an HTML snippet",
		Params: []Param{
			{Name: "url", Description: "URL of the page holding the input", Required: true},
			{Name: "html", Description: "HTML source of the input element", Required: true},
			{Name: "text", Description: "Text to type", Required: true},
		},
		NeedsSession: true,
		call: func(ctx context.Context, s *Service, raw json.RawMessage) (*Result, error) {
			var args struct {
				URL  string `json:"url"`
				HTML string `json:"html"`
				Text string `json:"text"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			return s.TextInput(ctx, args.URL, args.HTML, args.Text)
		},
	},
	{
		Name:        "structure_search_content",
		Description: "Convert search result HTML to Markdown and compose a summary report",
		Params:      []Param{{Name: "html", Description: "Search result page HTML", Required: true}},
		call: func(ctx context.Context, s *Service, raw json.RawMessage) (*Result, error) {
			var args struct {
				HTML string `json:"html"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}
			if err := requireParam("html", args.HTML); err != nil {
				return nil, err
			}
			return s.StructureSearchContent(ctx, args.HTML)
		},
	},
}

// Catalog lists every tool in registration order.
func Catalog() []Tool {
	out := make([]Tool, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a tool by name.
func Lookup(name string) (Tool, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Call runs the named tool with JSON arguments and emits its outcome.
// Errors are always *toolerr.Error.
func (s *Service) Call(ctx context.Context, name string, args json.RawMessage) (res *Result, err error) {
	t, ok := Lookup(name)
	if !ok {
		return nil, toolerr.Newf(toolerr.KindInvalidParams, "unknown tool: %s", name)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Tool %s panicked: %v", name, r)
			res, err = nil, toolerr.Newf(toolerr.KindInternal, "tool %s panicked: %v", name, r)
			s.events.Emit(events.New(events.ToolFailed, name, err.Error()))
		}
	}()

	res, err = t.call(ctx, s, args)
	if err != nil {
		te := toolerr.Normalize(err, "tool failed")
		log.Printf("Tool %s failed: %v", name, te)
		s.events.Emit(events.New(events.ToolFailed, name, te.Error()))
		return nil, te
	}

	if res.Suspended() {
		s.events.Emit(events.New(events.CaptchaDetected, name, res.Text))
	} else {
		s.events.Emit(events.New(events.ToolSucceeded, name, ""))
	}
	return res, nil
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return toolerr.Wrap(toolerr.KindInvalidParams, "invalid arguments", err)
	}
	return nil
}
