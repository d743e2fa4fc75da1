package search_test

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ahrdadan/browsemd/internal/search"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []search.Entry
	}{
		{
			name:  "two entries",
			input: "# A\n[A](http://a)\nDesc A\n\n## B\n[B](http://b)\nDesc B",
			want: []search.Entry{
				{Title: "A", URL: "http://a", Description: "Desc A"},
				{Title: "B", URL: "http://b", Description: "Desc B"},
			},
		},
		{
			name:  "entry without link is dropped",
			input: "# A\nno link here\n## B\n[B](http://b)",
			want: []search.Entry{
				{Title: "B", URL: "http://b"},
			},
		},
		{
			name:  "last entry without link is dropped",
			input: "# A\n[A](http://a)\n# B\nDesc B",
			want: []search.Entry{
				{Title: "A", URL: "http://a"},
			},
		},
		{
			name:  "first link wins and later links are skipped",
			input: "# A\n[A](http://a)\n[Other](http://other)\ntext",
			want: []search.Entry{
				{Title: "A", URL: "http://a", Description: "text"},
			},
		},
		{
			name:  "link inside a line",
			input: "## A\nsee [A](http://a) here",
			want: []search.Entry{
				{Title: "A", URL: "http://a"},
			},
		},
		{
			name:  "inline link after url stays in description",
			input: "# A\n[A](http://a)\nsee [x](http://x) here\nmore",
			want: []search.Entry{
				{Title: "A", URL: "http://a", Description: "see [x](http://x) here more"},
			},
		},
		{
			name:  "link line after url is skipped",
			input: "# A\n[A](http://a)\nintro\n[B](http://b) trailing",
			want: []search.Entry{
				{Title: "A", URL: "http://a", Description: "intro"},
			},
		},
		{
			name:  "deeper headings are description",
			input: "# A\n### detail\n[A](http://a)",
			want: []search.Entry{
				{Title: "A", URL: "http://a", Description: "### detail"},
			},
		},
		{
			name:  "lines before any heading are ignored",
			input: "[X](http://x)\nintro\n# A\n[A](http://a)",
			want: []search.Entry{
				{Title: "A", URL: "http://a"},
			},
		},
		{
			name:  "empty title is never emitted",
			input: "# \n[X](http://x)",
			want:  nil,
		},
		{
			name:  "crlf line endings",
			input: "# A\r\n[A](http://a)\r\n  Desc A  \r\n",
			want: []search.Entry{
				{Title: "A", URL: "http://a", Description: "Desc A"},
			},
		},
		{
			name:  "no headings",
			input: "just text\n[X](http://x)",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := search.Parse(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseDescriptionCap(t *testing.T) {
	line := strings.Repeat("x", 90)
	input := "# A\n[A](http://a)\n" + strings.Repeat(line+"\n", 5)

	entries := search.Parse(input)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	want := line + " " + line + " " + line
	if entries[0].Description != want {
		t.Fatalf("Expected three whole lines, got %d characters", len(entries[0].Description))
	}
}

func TestParseDescriptionCapCountsCharacters(t *testing.T) {
	line := strings.Repeat("é", 150)
	input := "# A\n[A](http://a)\n" + line + "\n" + line + "\n" + line + "\n"

	entries := search.Parse(input)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if n := utf8.RuneCountInString(entries[0].Description); n != 301 {
		t.Fatalf("Expected two lines totalling 301 characters, got %d", n)
	}
}

func TestComposeEmpty(t *testing.T) {
	out := search.Compose(nil, "hello")

	if !strings.HasPrefix(out, search.SummaryHeading+"\n\n") {
		t.Fatalf("Expected summary heading first, got %q", out)
	}

	idx := strings.Index(out, search.FullHeading)
	if idx < 0 {
		t.Fatalf("Expected full heading, got %q", out)
	}
	if strings.Contains(out[:idx], "## ") {
		t.Fatalf("Expected no subsections, got %q", out[:idx])
	}
	if full := out[idx+len(search.FullHeading)+2:]; full != "hello" {
		t.Fatalf("Expected full content %q, got %q", "hello", full)
	}
}

func TestComposeEntries(t *testing.T) {
	entries := []search.Entry{
		{Title: "A", URL: "http://a", Description: "Desc A"},
		{Title: "B", URL: "http://b", Description: "Desc B"},
	}
	out := search.Compose(entries, "raw")

	want := "# Search Results Summary\n\n" +
		"## A\n- URL: http://a\n- Summary: Desc A\n" +
		"\n" +
		"## B\n- URL: http://b\n- Summary: Desc B\n" +
		"\n\n# Full Search Results\n\nraw"
	if out != want {
		t.Fatalf("Expected:\n%s\ngot:\n%s", want, out)
	}
}

func TestStructure(t *testing.T) {
	md := "# A\n[A](http://a)\nDesc A"
	out, entries := search.Structure(md)

	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if !strings.HasSuffix(out, "\n\n"+md) {
		t.Fatalf("Expected raw markdown at the end, got %q", out)
	}
}
