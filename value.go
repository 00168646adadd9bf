package diaryfill

import (
	"strconv"
	"time"
)

// ValueKind represents the type of data held by a cell.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindText
	KindNumber
	KindTemporal
)

// String returns a human-readable name for the ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	case KindTemporal:
		return "Temporal"
	default:
		return "Unknown"
	}
}

// Value is the content of a single cell. The zero Value is Empty.
type Value struct {
	kind ValueKind
	text string
	num  float64
	t    time.Time
}

// Empty returns a Value with no content.
func Empty() Value { return Value{} }

// Text returns a string Value. Formulas are carried as Text with a leading "=".
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Temporal returns a date/time Value.
func Temporal(t time.Time) Value { return Value{kind: KindTemporal, t: t} }

// Kind reports which variant the Value holds.
func (v Value) Kind() ValueKind { return v.kind }

// Text returns the string content, or "" for non-Text values.
func (v Value) Text() string { return v.text }

// Number returns the numeric content, or 0 for non-Number values.
func (v Value) Number() float64 { return v.num }

// Time returns the date/time content, or the zero time for non-Temporal values.
func (v Value) Time() time.Time { return v.t }

// IsFormula returns true if the value is a Text holding a formula.
func (v Value) IsFormula() bool {
	return v.kind == KindText && len(v.text) > 1 && v.text[0] == '='
}

// Any returns the value as a plain Go value (nil, string, float64 or time.Time).
func (v Value) Any() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindTemporal:
		return v.t
	default:
		return nil
	}
}

// Equal reports whether two values hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	case KindTemporal:
		return v.t.Equal(o.t)
	}
	return true
}

// String formats the value for logs and reports.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return strconv.Quote(v.text)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTemporal:
		return v.t.Format("2006-01-02")
	default:
		return "<empty>"
	}
}
