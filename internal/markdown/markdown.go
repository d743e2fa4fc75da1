// Package markdown converts page markup to Markdown with a fixed baseline of
// suppressed elements.
package markdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ahrdadan/browsemd/internal/toolerr"
)

// BaselineIgnore is always suppressed, in addition to Options.IgnoreElements.
var BaselineIgnore = []string{"script", "style", "noscript"}

const (
	HeadingATX    = "atx"
	HeadingSetext = "setext"

	CodeBlockFenced = "fenced"
	CodeBlockTilde  = "tilde"
)

// Options controls conversion output.
type Options struct {
	HeadingStyle   string   `yaml:"heading_style" json:"heading_style"`
	CodeBlockStyle string   `yaml:"code_block_style" json:"code_block_style"`
	IgnoreElements []string `yaml:"ignore_elements" json:"ignore_elements"`
	// Sanitize runs markup through a UGC policy before conversion.
	Sanitize bool `yaml:"sanitize" json:"sanitize"`
}

// DefaultOptions returns ATX headings and backtick fences.
func DefaultOptions() Options {
	return Options{
		HeadingStyle:   HeadingATX,
		CodeBlockStyle: CodeBlockFenced,
	}
}

// Converter is safe for concurrent use.
type Converter struct {
	conv   *converter.Converter
	policy *bluemonday.Policy
	ignore []string
}

// New builds a Converter. Unknown styles fail with conversion_failure.
func New(opts Options) (*Converter, error) {
	setext, err := setextHeadings(opts.HeadingStyle)
	if err != nil {
		return nil, err
	}
	fence, err := codeFence(opts.CodeBlockStyle)
	if err != nil {
		return nil, err
	}

	var cm converter.Plugin
	if setext {
		cm = commonmark.NewCommonmarkPlugin(
			commonmark.WithHeadingStyle(commonmark.HeadingStyleSetext),
			commonmark.WithCodeBlockFence(fence),
		)
	} else {
		cm = commonmark.NewCommonmarkPlugin(
			commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
			commonmark.WithCodeBlockFence(fence),
		)
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			cm,
			table.NewTablePlugin(),
		),
	)

	ignore := IgnoreSet(opts.IgnoreElements)
	for _, tag := range ignore {
		conv.Register.TagType(tag, converter.TagTypeRemove, converter.PriorityStandard)
	}

	c := &Converter{conv: conv, ignore: ignore}
	if opts.Sanitize {
		c.policy = bluemonday.UGCPolicy()
	}
	return c, nil
}

// Ignored returns the effective suppression set.
func (c *Converter) Ignored() []string {
	out := make([]string, len(c.ignore))
	copy(out, c.ignore)
	return out
}

// Convert renders markup as Markdown.
func (c *Converter) Convert(markup string) (string, error) {
	if c.policy != nil {
		markup = c.policy.Sanitize(markup)
	}

	md, err := c.conv.ConvertString(markup)
	if err != nil {
		return "", toolerr.Wrap(toolerr.KindConversionFailure, "failed to convert html to markdown", err)
	}
	return md, nil
}

// IgnoreSet merges the baseline with extra tags, lowercased and deduplicated.
func IgnoreSet(extra []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tag := range append(append([]string{}, BaselineIgnore...), extra...) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func setextHeadings(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", HeadingATX:
		return false, nil
	case HeadingSetext:
		return true, nil
	}
	return false, toolerr.Newf(toolerr.KindConversionFailure, "unsupported heading style %q", s)
}

func codeFence(s string) (string, error) {
	switch strings.ToLower(s) {
	case "", CodeBlockFenced:
		return "```", nil
	case CodeBlockTilde:
		return "~~~", nil
	}
	return "", toolerr.Newf(toolerr.KindConversionFailure, "unsupported code block style %q", s)
}

// ValidateOptions checks styles without building a converter.
func ValidateOptions(opts Options) error {
	if _, err := setextHeadings(opts.HeadingStyle); err != nil {
		return err
	}
	_, err := codeFence(opts.CodeBlockStyle)
	return err
}
