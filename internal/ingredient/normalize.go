// Package ingredient canonicalizes ingredient names and tracks the set of
// distinct ingredients discovered across the import sources.
//
// Two mentions refer to the same ingredient iff Normalize maps them to the
// same string. The rule is deliberately narrow: whitespace is trimmed and
// collapsed and the result is lowercased. Punctuation is kept, so
// "vitamin-e" and "vitamin e" stay distinct, and a list split on commas may
// leave a trailing ")" in a name such as "limonene)".
package ingredient

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize returns the canonical form of raw and true, or ("", false) when
// raw is empty or whitespace only.
func Normalize(raw string) (string, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", false
	}
	// A Caser keeps state between calls, so it is not shared.
	return cases.Lower(language.Und).String(strings.Join(fields, " ")), true
}

// NormalizePtr is Normalize for optional values; nil is absent.
func NormalizePtr(raw *string) (string, bool) {
	if raw == nil {
		return "", false
	}
	return Normalize(*raw)
}

// Split splits an ingredient list on the literal comma. Parentheses are not
// interpreted: "Fragrance (Parfum, Limonene)" yields two pieces.
func Split(list string) []string {
	return strings.Split(list, ",")
}

// Mention is one piece of a split ingredient list.
type Mention struct {
	// Sequence is the 1-based position of the piece in the list, counting
	// pieces that normalize to nothing.
	Sequence int
	Raw      string
	Name     string
	OK       bool
}

// Mentions splits list and normalizes every piece, preserving positions.
func Mentions(list string) []Mention {
	parts := Split(list)
	out := make([]Mention, len(parts))
	for i, p := range parts {
		name, ok := Normalize(p)
		out[i] = Mention{Sequence: i + 1, Raw: p, Name: name, OK: ok}
	}
	return out
}
