package sfedit

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"oss.terrastruct.com/stockflow/sfview"
)

var folder = cases.Fold()

// CanonicalName is the identity of a variable name: case folded with runs of
// whitespace and underscores collapsed to one underscore.
func CanonicalName(name string) string {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return folder.String(strings.Join(fields, "_"))
}

// findVariable returns the named element whose canonical name matches. Aliases
// only mirror names and never match.
func findVariable(r sfview.Reader, name string) (sfview.Element, bool) {
	want := CanonicalName(name)
	for _, el := range r.Elements() {
		if el.Kind() == sfview.KindAlias || el.Kind() == sfview.KindGroup {
			continue
		}
		if named, ok := el.(sfview.Named); ok && CanonicalName(named.GetName()) == want {
			return el, true
		}
	}
	return nil, false
}

// uniqueName returns name, or name with the lowest numeric suffix not yet
// taken. An existing numeric suffix is replaced, not extended.
func uniqueName(r sfview.Reader, name string) string {
	if _, ok := findVariable(r, name); !ok {
		return name
	}
	base := name
	spaced := strings.Split(name, " ")
	if len(spaced) > 1 {
		if _, err := strconv.Atoi(spaced[len(spaced)-1]); err == nil {
			base = strings.Join(spaced[:len(spaced)-1], " ")
		}
	}
	for i := 2; ; i++ {
		candidate := base + " " + strconv.Itoa(i)
		if _, ok := findVariable(r, candidate); !ok {
			return candidate
		}
	}
}
