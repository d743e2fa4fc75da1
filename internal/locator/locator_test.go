package locator_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/ahrdadan/browsemd/internal/browser"
	"github.com/ahrdadan/browsemd/internal/browser/browsertest"
	"github.com/ahrdadan/browsemd/internal/locator"
	"github.com/ahrdadan/browsemd/internal/toolerr"
)

func synthesize(t *testing.T, fragment string) []locator.Candidate {
	t.Helper()
	s, err := locator.ParseSnippet(fragment)
	if err != nil {
		t.Fatalf("ParseSnippet(%q) failed: %v", fragment, err)
	}
	return locator.Synthesize(s)
}

func selectors(cands []locator.Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Selector)
	}
	return out
}

func TestSynthesizeAllStrategies(t *testing.T) {
	cands := synthesize(t, `<input id="q" name="search" class="box">`)

	want := []string{"#q", `[name="search"]`, "/html/body/input", ".box", "input"}
	if got := selectors(cands); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}

	for i, c := range cands {
		if c.Priority != i {
			t.Errorf("Expected candidate %d to have priority %d, got %d", i, i, c.Priority)
		}
	}
	if cands[2].By() != browser.ByXPath {
		t.Errorf("Expected structural path to use xpath, got %s", cands[2].By())
	}
	if cands[0].By() != browser.ByCSS {
		t.Errorf("Expected id to use css, got %s", cands[0].By())
	}
}

func TestSynthesizeSiblingPosition(t *testing.T) {
	cands := synthesize(t, `<form><input type="text" name="a"><input type="text" name="b"></form>`)

	want := []string{`[name="a"]`, "/html/body/form/input[1]", `input[type="text"]`}
	if got := selectors(cands); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	if cands[2].Kind != locator.KindTagType {
		t.Errorf("Expected tag-type kind, got %s", cands[2].Kind)
	}
}

func TestSynthesizeTextareaClassWhitespace(t *testing.T) {
	cands := synthesize(t, `<textarea class="  a   b "></textarea>`)

	want := []string{"/html/body/textarea", ".a.b", "textarea"}
	if got := selectors(cands); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
}

func TestSynthesizeSkipsEmptyAttributes(t *testing.T) {
	cands := synthesize(t, `<input id="" name="" class="" type="">`)

	want := []string{"/html/body/input", "input"}
	if got := selectors(cands); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
}

func TestParseSnippetPicksFirstInDocumentOrder(t *testing.T) {
	s, err := locator.ParseSnippet(`<div><span></span><textarea name="t"></textarea><input name="i"></div>`)
	if err != nil {
		t.Fatalf("ParseSnippet failed: %v", err)
	}
	if s.Focal().Data != "textarea" {
		t.Fatalf("Expected textarea focal element, got %s", s.Focal().Data)
	}
}

func TestParseSnippetWithoutInput(t *testing.T) {
	_, err := locator.ParseSnippet(`<div><p>nothing here</p></div>`)
	if !toolerr.Is(err, toolerr.KindSnippetInvalid) {
		t.Fatalf("Expected snippet_invalid, got %v", err)
	}
}

func TestSynthesizeLaterParentPosition(t *testing.T) {
	cands := synthesize(t, `<div><span></span></div><div><p></p><input></div>`)

	want := []string{"/html/body/div[2]/input", "input"}
	if got := selectors(cands); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
}

func TestStructuralPathLaterSibling(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<form><input><span></span><input><input></form>`))
	if err != nil {
		t.Fatalf("html.Parse failed: %v", err)
	}

	var inputs []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			inputs = append(inputs, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	want := []string{
		"/html/body/form/input[1]",
		"/html/body/form/input[2]",
		"/html/body/form/input[3]",
	}
	if len(inputs) != len(want) {
		t.Fatalf("Expected %d inputs, got %d", len(want), len(inputs))
	}
	for i, n := range inputs {
		if got := locator.StructuralPath(n); got != want[i] {
			t.Errorf("input %d: expected %s, got %s", i+1, want[i], got)
		}
	}
}

func TestStructuralPathDetachedElement(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "input"}
	if got := locator.StructuralPath(n); got != "/input" {
		t.Fatalf("Expected /input, got %s", got)
	}
}

func TestResolveStopsAtFirstHit(t *testing.T) {
	session := browsertest.NewSession()
	el := &browsertest.Element{Name: "box"}
	session.AddElement(browser.ByCSS, ".box", el)

	cands := synthesize(t, `<input id="q" name="search" class="box">`)
	got, used, err := locator.Resolve(context.Background(), session, cands)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != el {
		t.Fatalf("Expected the registered element")
	}
	if used.Kind != locator.KindClass {
		t.Fatalf("Expected class-list candidate, got %s", used.Kind)
	}

	wantLookups := []string{
		browsertest.Key(browser.ByCSS, "#q"),
		browsertest.Key(browser.ByCSS, `[name="search"]`),
		browsertest.Key(browser.ByXPath, "/html/body/input"),
		browsertest.Key(browser.ByCSS, ".box"),
	}
	if !reflect.DeepEqual(session.Lookups, wantLookups) {
		t.Fatalf("Expected lookups %v, got %v", wantLookups, session.Lookups)
	}
}

func TestResolveOrdersByPriority(t *testing.T) {
	session := browsertest.NewSession()
	session.AddElement(browser.ByCSS, "#late", &browsertest.Element{Name: "late"})
	session.AddElement(browser.ByCSS, "#early", &browsertest.Element{Name: "early"})

	cands := []locator.Candidate{
		{Kind: locator.KindID, Selector: "#late", Priority: 5},
		{Kind: locator.KindID, Selector: "#early", Priority: 1},
	}
	got, _, err := locator.Resolve(context.Background(), session, cands)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.(*browsertest.Element).Name != "early" {
		t.Fatalf("Expected the lower priority candidate to win")
	}
}

func TestResolveAllFail(t *testing.T) {
	session := browsertest.NewSession()
	cands := synthesize(t, `<input id="q">`)

	_, _, err := locator.Resolve(context.Background(), session, cands)
	if !toolerr.Is(err, toolerr.KindElementNotFound) {
		t.Fatalf("Expected element_not_found, got %v", err)
	}
	if !errors.Is(err, browsertest.ErrNoSuchElement) {
		t.Fatalf("Expected the last lookup error to be wrapped, got %v", err)
	}
	if len(session.Lookups) != len(cands) {
		t.Fatalf("Expected %d lookups, got %d", len(cands), len(session.Lookups))
	}
}

func TestResolveNoCandidates(t *testing.T) {
	_, _, err := locator.Resolve(context.Background(), browsertest.NewSession(), nil)
	if !toolerr.Is(err, toolerr.KindElementNotFound) {
		t.Fatalf("Expected element_not_found, got %v", err)
	}
}

func TestFillInputClearsThenTypes(t *testing.T) {
	session := browsertest.NewSession()
	el := &browsertest.Element{Text: "old value"}
	session.AddElement(browser.ByCSS, `[name="q"]`, el)

	used, err := locator.FillInput(context.Background(), session, `<input name="q" type="search">`, "golang")
	if err != nil {
		t.Fatalf("FillInput failed: %v", err)
	}
	if used.Kind != locator.KindName {
		t.Fatalf("Expected name candidate, got %s", used.Kind)
	}
	if !el.Cleared || el.Text != "golang" {
		t.Fatalf("Expected cleared input with new text, got cleared=%v text=%q", el.Cleared, el.Text)
	}
}

func TestFillInputInvalidSnippet(t *testing.T) {
	session := browsertest.NewSession()
	_, err := locator.FillInput(context.Background(), session, `<div></div>`, "x")
	if !toolerr.Is(err, toolerr.KindSnippetInvalid) {
		t.Fatalf("Expected snippet_invalid, got %v", err)
	}
	if len(session.Lookups) != 0 {
		t.Fatalf("Expected no lookups, got %v", session.Lookups)
	}
}

func TestFillInputTypeFailure(t *testing.T) {
	session := browsertest.NewSession()
	session.AddElement(browser.ByCSS, "#q", &browsertest.Element{SendErr: errors.New("detached")})

	_, err := locator.FillInput(context.Background(), session, `<input id="q">`, "x")
	if !toolerr.Is(err, toolerr.KindInternal) {
		t.Fatalf("Expected internal error, got %v", err)
	}
}

func TestSynthesizeEscapesAttributeValues(t *testing.T) {
	cands := synthesize(t, `<input id="a.b" name='x"y' class="ok w:1" type='t\x'>`)

	want := []string{
		`[id="a.b"]`,
		`[name="x\"y"]`,
		"/html/body/input",
		`.ok[class~="w:1"]`,
		`input[type="t\\x"]`,
	}
	if got := selectors(cands); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	if cands[0].Kind != locator.KindID {
		t.Errorf("Expected id kind, got %s", cands[0].Kind)
	}
}
