package locator

import (
	"regexp"
	"strings"
)

var identPattern = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

var attrEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `, "\r", `\d `)

// Synthesize returns the candidates for the snippet's focal element ordered
// by ascending priority: id, name, structural path, class list, then
// tag+type or, without a type attribute, the bare tag.
func Synthesize(s *Snippet) []Candidate {
	n := s.Focal()
	tag := strings.ToLower(n.Data)

	var out []Candidate
	add := func(kind Kind, selector string) {
		out = append(out, Candidate{Kind: kind, Selector: selector, Priority: len(out)})
	}

	if id, ok := attr(n, "id"); ok && id != "" {
		if identPattern.MatchString(id) {
			add(KindID, "#"+id)
		} else {
			add(KindID, attrSelector("id", "=", id))
		}
	}

	if name, ok := attr(n, "name"); ok && name != "" {
		add(KindName, attrSelector("name", "=", name))
	}

	add(KindPath, StructuralPath(n))

	if class, ok := attr(n, "class"); ok {
		if classes := strings.Fields(class); len(classes) > 0 {
			var b strings.Builder
			for _, c := range classes {
				if identPattern.MatchString(c) {
					b.WriteString("." + c)
				} else {
					b.WriteString(attrSelector("class", "~=", c))
				}
			}
			add(KindClass, b.String())
		}
	}

	if typ, ok := attr(n, "type"); ok && typ != "" {
		add(KindTagType, tag+attrSelector("type", "=", typ))
	} else {
		add(KindTag, tag)
	}

	return out
}

// attrSelector renders [name op "value"] with value quoted for CSS.
func attrSelector(name, op, value string) string {
	return "[" + name + op + `"` + attrEscaper.Replace(value) + `"]`
}
