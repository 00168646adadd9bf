package diaryfill

import "time"

// Default column layout of the diary sheet.
var (
	DefaultDateColumn    = "A"
	DefaultHolidayColumn = "U"
	DefaultTargetColumns = []string{"V", "X", "Y", "AA"}
)

// Options holds configuration for the Filler.
type Options struct {
	referenceDate time.Time
	diaryMarker   string
	monthMarker   string
	dateColumn    string
	holidayColumn string
	targetColumns []string
	holidayRule   string
	dryRun        bool
	listeners     []FillListener
}

func defaultOptions() *Options {
	return &Options{
		diaryMarker:   DefaultDiaryMarker,
		monthMarker:   DefaultMonthMarker,
		dateColumn:    DefaultDateColumn,
		holidayColumn: DefaultHolidayColumn,
		targetColumns: append([]string(nil), DefaultTargetColumns...),
	}
}

// Option configures the Filler.
type Option func(*Options)

// WithReferenceDate sets the instant treated as "now". Its JST calendar date
// is "today" and its month is the processing month. Defaults to time.Now().
func WithReferenceDate(t time.Time) Option {
	return func(o *Options) { o.referenceDate = t }
}

// WithDiaryMarker sets the title text that marks a diary sheet (default: "日誌").
func WithDiaryMarker(marker string) Option {
	return func(o *Options) { o.diaryMarker = marker }
}

// WithMonthMarker sets the title text that follows the month number (default: "月").
func WithMonthMarker(marker string) Option {
	return func(o *Options) { o.monthMarker = marker }
}

// WithDateColumn sets the column holding each row's date (default: "A").
func WithDateColumn(col string) Option {
	return func(o *Options) { o.dateColumn = col }
}

// WithHolidayColumn sets the column holding the holiday marker (default: "U").
func WithHolidayColumn(col string) Option {
	return func(o *Options) { o.holidayColumn = col }
}

// WithTargetColumns sets the columns eligible for auto-fill, in fill order
// (default: V, X, Y, AA).
func WithTargetColumns(cols ...string) Option {
	return func(o *Options) { o.targetColumns = append([]string(nil), cols...) }
}

// WithHolidayRule replaces the default holiday test with a boolean expression
// over the holiday cell, e.g. `text == "休" || number == 50`.
func WithHolidayRule(expression string) Option {
	return func(o *Options) { o.holidayRule = expression }
}

// WithDryRun evaluates every decision without writing cells or saving.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) { o.dryRun = dryRun }
}

// WithFillListener adds a listener notified around each cell fill.
func WithFillListener(listener FillListener) Option {
	return func(o *Options) { o.listeners = append(o.listeners, listener) }
}
