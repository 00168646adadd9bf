package diaryfill

import (
	"regexp"
	"strconv"
	"strings"
)

// Default title markers: a diary sheet for October is titled "日誌10月".
const (
	DefaultDiaryMarker = "日誌"
	DefaultMonthMarker = "月"
)

// SelectionReason records which rule picked the target sheet.
type SelectionReason string

const (
	SelectedPrimary  SelectionReason = "primary"  // title names the processing month
	SelectedFallback SelectionReason = "fallback" // highest-numbered diary sheet
	SelectedActive   SelectionReason = "active"   // workbook's active sheet
)

// Selection is the outcome of target-sheet selection.
type Selection struct {
	Sheet  string
	Reason SelectionReason
	Month  int // month read from the title, 0 when selected as active sheet
}

// SheetMatcher recognises month diary sheets by title.
type SheetMatcher struct {
	DiaryMarker string
	MonthMarker string

	monthNumber *regexp.Regexp
	monthTitles [13]*regexp.Regexp // indexed by month
}

// titleSpace matches ASCII and Unicode spaces, including the ideographic
// space U+3000 common in Japanese titles.
const titleSpace = `[\s\p{Zs}]*`

// NewSheetMatcher creates a matcher for the given markers. Empty markers fall
// back to the defaults.
func NewSheetMatcher(diaryMarker, monthMarker string) *SheetMatcher {
	if diaryMarker == "" {
		diaryMarker = DefaultDiaryMarker
	}
	if monthMarker == "" {
		monthMarker = DefaultMonthMarker
	}
	m := &SheetMatcher{
		DiaryMarker: diaryMarker,
		MonthMarker: monthMarker,
		monthNumber: regexp.MustCompile(`(\d{1,2})` + titleSpace + regexp.QuoteMeta(monthMarker)),
	}
	for month := 1; month <= 12; month++ {
		m.monthTitles[month] = regexp.MustCompile(regexp.QuoteMeta(diaryMarker) + titleSpace + `0?` +
			strconv.Itoa(month) + titleSpace + regexp.QuoteMeta(monthMarker) + titleSpace + `$`)
	}
	return m
}

// MatchesMonth reports whether title names the diary sheet for month, e.g.
// "日誌 5月", "日誌　5月", "日誌05月" or "日誌５月" for month 5.
func (m *SheetMatcher) MatchesMonth(title string, month int) bool {
	if month < 1 || month > 12 {
		return false
	}
	return m.monthTitles[month].MatchString(NormalizeDigits(title))
}

// ExtractMonth returns the month number written before the month marker, if
// it is between 1 and 12.
func (m *SheetMatcher) ExtractMonth(title string) (int, bool) {
	sub := m.monthNumber.FindStringSubmatch(NormalizeDigits(title))
	if sub == nil {
		return 0, false
	}
	v, err := strconv.Atoi(sub[1])
	if err != nil || v < 1 || v > 12 {
		return 0, false
	}
	return v, true
}

// isDiaryTitle reports whether the title carries both markers.
func (m *SheetMatcher) isDiaryTitle(title string) bool {
	t := NormalizeDigits(title)
	return strings.Contains(t, m.DiaryMarker) && strings.Contains(t, m.MonthMarker)
}

// Select picks the target sheet for month from names (in workbook order):
// the first title naming the month, else the diary sheet with the largest
// month number (first one wins ties), else the active sheet.
func (m *SheetMatcher) Select(names []string, active string, month int) (Selection, error) {
	if len(names) == 0 {
		return Selection{}, ErrNoWorksheets
	}

	for _, name := range names {
		if m.MatchesMonth(name, month) {
			return Selection{Sheet: name, Reason: SelectedPrimary, Month: month}, nil
		}
	}

	best, bestMonth := "", -1
	for _, name := range names {
		if !m.isDiaryTitle(name) {
			continue
		}
		if mv, ok := m.ExtractMonth(name); ok && mv > bestMonth {
			best, bestMonth = name, mv
		}
	}
	if best != "" {
		return Selection{Sheet: best, Reason: SelectedFallback, Month: bestMonth}, nil
	}

	for _, name := range names {
		if name == active {
			return Selection{Sheet: active, Reason: SelectedActive}, nil
		}
	}
	// An unknown or missing active sheet means the first one.
	return Selection{Sheet: names[0], Reason: SelectedActive}, nil
}
