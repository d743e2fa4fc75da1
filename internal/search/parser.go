// Package search turns converted search-result Markdown into structured
// entries and composes the summary report.
package search

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DescriptionLimit is the accumulated description length, in characters,
// after which further lines are skipped.
const DescriptionLimit = 200

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// Entry is one search result.
type Entry struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (e *Entry) complete() bool {
	return e != nil && e.Title != "" && e.URL != ""
}

// Parse walks markdown line by line. A "# " or "## " line opens a new entry,
// the first line holding a link supplies the URL and other non-blank lines
// build the description. Once the URL is set, lines that open with a link are
// skipped; links inside other lines stay in the description. Entries without
// both title and URL are dropped.
func Parse(markdown string) []Entry {
	var (
		entries []Entry
		open    *Entry
	)

	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if title, ok := headingTitle(line); ok {
			if open.complete() {
				entries = append(entries, *open)
			}
			open = &Entry{Title: title}
			continue
		}

		if open == nil {
			continue
		}

		if open.URL == "" {
			if m := linkPattern.FindStringSubmatch(line); m != nil {
				open.URL = m[2]
				continue
			}
		} else if isLinkLine(line) {
			continue
		}

		text := strings.TrimSpace(line)
		if text == "" || utf8.RuneCountInString(open.Description) >= DescriptionLimit {
			continue
		}
		if open.Description == "" {
			open.Description = text
		} else {
			open.Description += " " + text
		}
	}

	if open.complete() {
		entries = append(entries, *open)
	}
	return entries
}

func isLinkLine(line string) bool {
	return strings.HasPrefix(line, "[") && linkPattern.MatchString(line)
}

func headingTitle(line string) (string, bool) {
	for _, marker := range []string{"# ", "## "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimPrefix(line, marker), true
		}
	}
	return "", false
}
