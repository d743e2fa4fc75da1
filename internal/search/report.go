package search

import "strings"

const (
	SummaryHeading = "# Search Results Summary"
	FullHeading    = "# Full Search Results"
)

// Compose renders a summary section with one subsection per entry followed
// by the unmodified markdown.
func Compose(entries []Entry, markdown string) string {
	var b strings.Builder
	b.WriteString(SummaryHeading)
	b.WriteString("\n\n")

	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## " + e.Title + "\n")
		b.WriteString("- URL: " + e.URL + "\n")
		b.WriteString("- Summary: " + e.Description + "\n")
	}

	b.WriteString("\n\n")
	b.WriteString(FullHeading)
	b.WriteString("\n\n")
	b.WriteString(markdown)
	return b.String()
}

// Structure parses markdown and composes the report in one step.
func Structure(markdown string) (string, []Entry) {
	entries := Parse(markdown)
	return Compose(entries, markdown), entries
}
