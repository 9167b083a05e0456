// Package parser converts localized free-text tokens into typed field values.
//
// Every parser declares the label aliases it answers to. Labels are compared
// after Normalize, so "Név", "nev" and "NÉV:" all select the same parser.
package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, strips diacritics, punctuation and symbols, and trims
// surrounding whitespace.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, Fold(s))
	return strings.TrimSpace(s)
}

// Fold lower-cases s and strips diacritics. Punctuation and whitespace are kept.
func Fold(s string) string {
	s = strings.ToLower(s)
	// Chained transformers keep state, so one is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return s
}

// aliases is embedded by every parser.
type aliases struct {
	names      []string
	normalized []string
}

func newAliases(names ...string) aliases {
	a := aliases{names: names, normalized: make([]string, len(names))}
	for i, n := range names {
		a.normalized[i] = Normalize(n)
	}
	return a
}

// Names returns the accepted labels. The first one is the canonical label.
func (a aliases) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

func (a aliases) matches(normalizedLabel string) bool {
	for _, n := range a.normalized {
		if n == normalizedLabel {
			return true
		}
	}
	return false
}
