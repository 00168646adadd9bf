package diaryfill

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// fullwidthDigits matches ０ through ９.
var fullwidthDigits = runes.Predicate(func(r rune) bool {
	return r >= '０' && r <= '９'
})

// NormalizeDigits converts full-width digits to their ASCII form and leaves
// every other rune untouched.
func NormalizeDigits(s string) string {
	if !strings.ContainsFunc(s, fullwidthDigits.Contains) {
		return s
	}
	t := runes.If(fullwidthDigits, width.Narrow, transform.Nop)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// IsBlank reports whether v is empty or a string made only of whitespace.
// Numbers and dates are never blank.
func IsBlank(v Value) bool {
	switch v.Kind() {
	case KindEmpty:
		return true
	case KindText:
		return strings.IndexFunc(v.Text(), func(r rune) bool { return !unicode.IsSpace(r) }) < 0
	default:
		return false
	}
}

// IsFifty reports whether v is the holiday sentinel: the number 50, or a
// string that reads "50" once digits are narrowed and whitespace trimmed.
func IsFifty(v Value) bool {
	switch v.Kind() {
	case KindNumber:
		return v.Number() == 50.0
	case KindText:
		return strings.TrimSpace(NormalizeDigits(v.Text())) == "50"
	default:
		return false
	}
}
