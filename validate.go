package diaryfill

import (
	"fmt"
	"strings"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // the engine refuses to run
	SeverityWarning                 // the run may not do what was intended
)

// ValidationIssue represents a single problem found during validation.
type ValidationIssue struct {
	Severity Severity
	Field    string // option or workbook element the issue is about
	Message  string
}

// String formats the issue as "[ERROR] targetColumns: message" or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, v.Field, v.Message)
}

// Validate checks the engine configuration without opening a workbook.
func Validate(opts ...Option) []ValidationIssue {
	return NewFiller(opts...).Validate()
}

// ValidateFile checks the configuration and then dry-runs it against the
// workbook at path, warning when the sheet was not found by title or no row
// falls in the processing window. A non-nil error means the file could not
// be read at all.
func ValidateFile(path string, opts ...Option) ([]ValidationIssue, error) {
	all := append(append([]Option{}, opts...), WithDryRun(true))
	f := NewFiller(all...)
	issues := f.Validate()
	if f.err != nil {
		return issues, nil
	}

	wb, err := OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sum, err := f.Run(wb)
	if err != nil {
		return nil, err
	}
	switch sum.SelectedBy {
	case SelectedFallback:
		issues = append(issues, ValidationIssue{
			Severity: SeverityWarning,
			Field:    "sheet",
			Message:  fmt.Sprintf("no sheet titled for month %d; using %q", sum.Month, sum.Sheet),
		})
	case SelectedActive:
		issues = append(issues, ValidationIssue{
			Severity: SeverityWarning,
			Field:    "sheet",
			Message:  fmt.Sprintf("no diary sheet found; using active sheet %q", sum.Sheet),
		})
	}
	if sum.RowsEvaluated == 0 {
		issues = append(issues, ValidationIssue{
			Severity: SeverityWarning,
			Field:    "dateColumn",
			Message:  fmt.Sprintf("no row of %q is dated in month %d up to %s", sum.Sheet, sum.Month, sum.Today),
		})
	}
	return issues, nil
}

// Validate returns every configuration issue, including holiday rule
// compilation errors.
func (f *Filler) Validate() []ValidationIssue {
	issues := validateOptions(f.opts)
	if _, err := NewHolidayRule(f.opts.holidayRule); err != nil {
		issues = append(issues, ValidationIssue{
			Severity: SeverityError,
			Field:    "holidayRule",
			Message:  err.Error(),
		})
	}
	return issues
}

// validateOptions checks column names and markers.
func validateOptions(o *Options) []ValidationIssue {
	var issues []ValidationIssue
	errorf := func(field, format string, args ...any) {
		issues = append(issues, ValidationIssue{Severity: SeverityError, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	used := make(map[int]string)
	checkColumn := func(field, name string) {
		col, err := NameToCol(name)
		if err != nil {
			errorf(field, "invalid column %q: %v", name, err)
			return
		}
		if prev, ok := used[col]; ok {
			errorf(field, "column %s is already used as %s", ColToName(col), prev)
			return
		}
		used[col] = field
	}

	checkColumn("dateColumn", o.dateColumn)
	checkColumn("holidayColumn", o.holidayColumn)
	if len(o.targetColumns) == 0 {
		errorf("targetColumns", "at least one target column is required")
	}
	for _, name := range o.targetColumns {
		checkColumn("targetColumns", name)
	}

	if strings.TrimSpace(o.diaryMarker) == "" {
		errorf("diaryMarker", "diary marker must not be blank")
	}
	if strings.TrimSpace(o.monthMarker) == "" {
		errorf("monthMarker", "month marker must not be blank")
	}
	if o.diaryMarker != "" && strings.ContainsAny(NormalizeDigits(o.diaryMarker), "0123456789") {
		issues = append(issues, ValidationIssue{
			Severity: SeverityWarning,
			Field:    "diaryMarker",
			Message:  fmt.Sprintf("diary marker %q contains digits and may be mistaken for a month", o.diaryMarker),
		})
	}
	return issues
}
