package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ahrdadan/browsemd/internal/browser"
	"github.com/ahrdadan/browsemd/internal/markdown"
	"github.com/ahrdadan/browsemd/internal/tools"
)

const (
	// Version is the current version of browsemd
	Version = "1"
	// AppName is the application name
	AppName = "browsemd"
)

// Transports
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportBoth  = "both"
)

// Config holds all configuration options for browsemd
type Config struct {
	// Transport
	Transport string `yaml:"transport"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`

	// Chrome
	ChromeBin      string            `yaml:"chrome_bin"`
	ChromeRevision int               `yaml:"chrome_revision"`
	InstallChrome  bool              `yaml:"install_chrome"`
	Headless       bool              `yaml:"headless"`
	Stealth        bool              `yaml:"stealth"`
	UserAgent      string            `yaml:"user_agent"`
	Headers        map[string]string `yaml:"headers"`

	// Pauses
	LoadWait    time.Duration `yaml:"load_wait"`
	SearchWait  time.Duration `yaml:"search_wait"`
	RecheckWait time.Duration `yaml:"recheck_wait"`

	// Tools
	DownloadDir string `yaml:"download_dir"`
	ReaderURL   string `yaml:"reader_url"`
	SearchURL   string `yaml:"search_url"`

	// Markdown
	HeadingStyle   string   `yaml:"heading_style"`
	CodeBlockStyle string   `yaml:"code_block_style"`
	IgnoreElements []string `yaml:"ignore_elements"`
	Sanitize       bool     `yaml:"sanitize"`

	// Events (NATS)
	NatsURL     string `yaml:"nats_url"`
	NatsSubject string `yaml:"nats_subject"`
	NatsStream  string `yaml:"nats_stream"`

	// Security
	RateLimitRequests int           `yaml:"rate_limit"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
	AllowedIPs        []string      `yaml:"allowed_ips"`

	// Flags
	ConfigFile  string `yaml:"-"`
	ShowVersion bool   `yaml:"-"`
	ShowHelp    bool   `yaml:"-"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Transport:         TransportStdio,
		Host:              "127.0.0.1",
		Port:              8000,
		Headless:          true,
		Stealth:           true,
		LoadWait:          2 * time.Second,
		SearchWait:        3 * time.Second,
		RecheckWait:       2 * time.Second,
		DownloadDir:       "./downloads",
		ReaderURL:         "https://r.jina.ai/",
		SearchURL:         "https://www.google.com/search?q=",
		HeadingStyle:      markdown.HeadingATX,
		CodeBlockStyle:    markdown.CodeBlockFenced,
		NatsSubject:       "browsemd.events",
		RateLimitRequests: 60,
		RateLimitWindow:   time.Minute,
	}
}

// listValue is a comma separated flag bound to a string slice
type listValue struct {
	p *[]string
}

func (v listValue) String() string {
	if v.p == nil {
		return ""
	}
	return strings.Join(*v.p, ",")
}

func (v listValue) Set(s string) error {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*v.p = out
	return nil
}

func bind(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Path to a YAML config file")

	// Transport flags
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Tool transport: stdio, http or both")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Host address to bind the HTTP server")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port number for the HTTP server")

	// Chrome flags
	fs.StringVar(&cfg.ChromeBin, "chrome-bin", cfg.ChromeBin, "Path to the Chrome binary (empty lets rod find or fetch one)")
	fs.IntVar(&cfg.ChromeRevision, "chrome-revision", cfg.ChromeRevision, "Chromium revision to download (0 uses default)")
	fs.BoolVar(&cfg.InstallChrome, "install-chrome", cfg.InstallChrome, "Download Chromium at startup")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run Chrome headless")
	fs.BoolVar(&cfg.Stealth, "stealth", cfg.Stealth, "Open pages with stealth evasions")
	fs.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "Override the browser user agent")

	// Pause flags
	fs.DurationVar(&cfg.LoadWait, "load-wait", cfg.LoadWait, "Pause after navigation before reading the page")
	fs.DurationVar(&cfg.SearchWait, "search-wait", cfg.SearchWait, "Pause after opening search results")
	fs.DurationVar(&cfg.RecheckWait, "recheck-wait", cfg.RecheckWait, "Pause before re-checking for a verification challenge")

	// Tool flags
	fs.StringVar(&cfg.DownloadDir, "download-dir", cfg.DownloadDir, "Directory for download_page")
	fs.StringVar(&cfg.ReaderURL, "reader-url", cfg.ReaderURL, "Reader service prefix for visit_markdown_url")
	fs.StringVar(&cfg.SearchURL, "search-url", cfg.SearchURL, "Search URL prefix for google_search_to_markdown")

	// Markdown flags
	fs.StringVar(&cfg.HeadingStyle, "heading-style", cfg.HeadingStyle, "Markdown heading style: atx or setext")
	fs.StringVar(&cfg.CodeBlockStyle, "code-block-style", cfg.CodeBlockStyle, "Markdown code block style: fenced or tilde")
	fs.Var(listValue{&cfg.IgnoreElements}, "ignore", "Extra comma separated tags to drop from Markdown")
	fs.BoolVar(&cfg.Sanitize, "sanitize", cfg.Sanitize, "Sanitize HTML before conversion")

	// NATS flags
	fs.StringVar(&cfg.NatsURL, "nats-url", cfg.NatsURL, "NATS server URL for lifecycle events (empty disables)")
	fs.StringVar(&cfg.NatsSubject, "nats-subject", cfg.NatsSubject, "Subject prefix for lifecycle events")
	fs.StringVar(&cfg.NatsStream, "nats-stream", cfg.NatsStream, "JetStream stream retaining events (empty disables)")

	// Security flags
	fs.IntVar(&cfg.RateLimitRequests, "rate-limit", cfg.RateLimitRequests, "Rate limit tool calls per window")
	fs.DurationVar(&cfg.RateLimitWindow, "rate-limit-window", cfg.RateLimitWindow, "Rate limit window")
	fs.Var(listValue{&cfg.AllowedIPs}, "allow-ip", "Comma separated client IPs allowed over HTTP (empty allows all)")

	// Other flags
	fs.BoolVar(&cfg.ShowVersion, "version", cfg.ShowVersion, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", cfg.ShowHelp, "Show help message")
}

func parse(args []string, cfg *Config) error {
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	bind(fs, cfg)
	return fs.Parse(args)
}

// ParseArgs builds a config from defaults, the optional YAML file and args.
// Explicit flags override the file.
func ParseArgs(args []string) (*Config, error) {
	cfg := DefaultConfig()
	if err := parse(args, cfg); err != nil {
		return nil, err
	}

	if cfg.ConfigFile != "" {
		fileCfg := DefaultConfig()
		if err := LoadFile(cfg.ConfigFile, fileCfg); err != nil {
			return nil, err
		}
		// Re-apply flags on top of the file values
		if err := parse(args, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML file into cfg. Unknown keys are rejected.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks values and clamps the rate limit
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP, TransportBoth:
	default:
		return fmt.Errorf("invalid transport %q: must be stdio, http or both", c.Transport)
	}

	if c.ServesHTTP() && (c.Port < 1 || c.Port > 65535) {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	if c.LoadWait < 0 || c.SearchWait < 0 || c.RecheckWait < 0 {
		return fmt.Errorf("pause durations must not be negative")
	}

	if err := markdown.ValidateOptions(c.MarkdownOptions()); err != nil {
		return fmt.Errorf("invalid markdown options: %w", err)
	}

	if c.NatsStream != "" && c.NatsURL == "" {
		return fmt.Errorf("nats-stream requires nats-url")
	}

	if c.RateLimitRequests < 1 {
		c.RateLimitRequests = 60
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = time.Minute
	}
	return nil
}

// ServesStdio reports whether the MCP stdio transport runs
func (c *Config) ServesStdio() bool {
	return c.Transport == TransportStdio || c.Transport == TransportBoth
}

// ServesHTTP reports whether the HTTP transport runs
func (c *Config) ServesHTTP() bool {
	return c.Transport == TransportHTTP || c.Transport == TransportBoth
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MarkdownOptions returns the converter settings
func (c *Config) MarkdownOptions() markdown.Options {
	return markdown.Options{
		HeadingStyle:   c.HeadingStyle,
		CodeBlockStyle: c.CodeBlockStyle,
		IgnoreElements: c.IgnoreElements,
		Sanitize:       c.Sanitize,
	}
}

// ToolOptions returns the tool service settings
func (c *Config) ToolOptions() tools.Options {
	return tools.Options{
		DownloadDir: c.DownloadDir,
		ReaderURL:   c.ReaderURL,
		SearchURL:   c.SearchURL,
		LoadWait:    c.LoadWait,
		SearchWait:  c.SearchWait,
		RecheckWait: c.RecheckWait,
	}
}

// ChromeOptions returns the browser launch settings
func (c *Config) ChromeOptions() browser.ChromeOptions {
	return browser.ChromeOptions{
		Bin:       c.ChromeBin,
		Headless:  c.Headless,
		Stealth:   c.Stealth,
		UserAgent: c.UserAgent,
		Headers:   c.Headers,
	}
}

// ParseFlags parses os.Args and exits on invalid input
func ParseFlags() *Config {
	cfg, err := ParseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		PrintHelp()
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		PrintHelp()
		os.Exit(2)
	}
	return cfg
}

// PrintVersion prints version information
func PrintVersion() {
	fmt.Fprintf(os.Stderr, "%s v%s\n", AppName, Version)
}

// PrintHelp prints help information
func PrintHelp() {
	d := DefaultConfig()
	fmt.Fprintf(os.Stderr, `%s v%s (Browser tools over MCP and HTTP)

Usage:
  ./server [flags]

Config:
  --config            YAML file (flags override its values)

Transport:
  --transport         %s (stdio, http, both)
  --host              %s
  --port              %d

Chrome:
  --chrome-bin        path (empty lets rod find or fetch one)
  --chrome-revision   %d
  --install-chrome    %v
  --headless          %v
  --stealth           %v
  --user-agent        override

Pauses:
  --load-wait         %s
  --search-wait       %s
  --recheck-wait      %s

Tools:
  --download-dir      %s
  --reader-url        %s
  --search-url        %s

Markdown:
  --heading-style     %s (atx, setext)
  --code-block-style  %s (fenced, tilde)
  --ignore            extra tags, comma separated
  --sanitize          %v

Events (NATS):
  --nats-url          empty disables
  --nats-subject      %s
  --nats-stream       empty disables JetStream

Security:
  --rate-limit        %d (tool calls per window)
  --rate-limit-window %s
  --allow-ip          comma separated, empty allows all

Other:
  --version           show version
  --help              show this help

`, AppName, Version,
		d.Transport, d.Host, d.Port,
		d.ChromeRevision, d.InstallChrome, d.Headless, d.Stealth,
		d.LoadWait, d.SearchWait, d.RecheckWait,
		d.DownloadDir, d.ReaderURL, d.SearchURL,
		d.HeadingStyle, d.CodeBlockStyle, d.Sanitize,
		d.NatsSubject,
		d.RateLimitRequests, d.RateLimitWindow)
}

// HandleFlags handles version and help flags, exits if needed
func HandleFlags(cfg *Config) {
	if cfg.ShowVersion {
		PrintVersion()
		os.Exit(0)
	}

	if cfg.ShowHelp {
		PrintHelp()
		os.Exit(0)
	}
}
