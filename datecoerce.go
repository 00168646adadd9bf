package diaryfill

import (
	"regexp"
	"strings"
	"time"
)

// JST is the fixed UTC+9 zone in which "today" and all row dates are compared.
var JST = time.FixedZone("JST", 9*60*60)

var (
	eraSeparators = strings.NewReplacer("年", "/", "月", "/", "日", "", "-", "/")
	repeatedSlash = regexp.MustCompile(`/+`)
)

// dateLayouts are tried in order. Year-less layouts take the reference year.
var dateLayouts = []struct {
	layout   string
	yearless bool
}{
	{"2006/1/2", false},
	{"1/2", true},
}

// civilDate truncates t to midnight of its own calendar day, expressed in JST.
// The wall-clock fields of t are kept as-is, whatever its location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, JST)
}

// Today returns the calendar date of ref as seen from JST.
func Today(ref time.Time) time.Time {
	return civilDate(ref.In(JST))
}

// CoerceDate resolves a cell value to a calendar date. Dates pass through with
// the time of day dropped; strings such as "2024/5/10", "2024-05-10",
// "2024年5月10日" and "5/10" are parsed, the last taking the year of ref.
// It returns false when the value is not recognisably a date.
func CoerceDate(v Value, ref time.Time) (time.Time, bool) {
	switch v.Kind() {
	case KindTemporal:
		return civilDate(v.Time()), true
	case KindText:
		return parseDateText(v.Text(), Today(ref).Year())
	default:
		return time.Time{}, false
	}
}

func parseDateText(raw string, year int) (time.Time, bool) {
	s := strings.TrimSpace(NormalizeDigits(raw))
	if s == "" {
		return time.Time{}, false
	}
	s = eraSeparators.Replace(s)
	s = repeatedSlash.ReplaceAllString(s, "/")

	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		if !l.yearless {
			return civilDate(t), true
		}
		d := time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, JST)
		// 2/29 in a non-leap year would roll over into March.
		if d.Month() != t.Month() || d.Day() != t.Day() {
			return time.Time{}, false
		}
		return d, true
	}
	return time.Time{}, false
}
