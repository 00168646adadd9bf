package diaryfill

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Filler runs the auto-fill pass over a diary workbook.
type Filler struct {
	opts    *Options
	matcher *SheetMatcher
	rule    HolidayRule
	cols    columns
	err     error // configuration error, reported by every run
}

// columns holds the resolved 0-based column indexes.
type columns struct {
	date    int
	holiday int
	targets []int
}

// NewFiller creates a Filler with the given options. Invalid options are
// reported by the first call that runs the engine.
func NewFiller(opts ...Option) *Filler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	f := &Filler{
		opts:    o,
		matcher: NewSheetMatcher(o.diaryMarker, o.monthMarker),
	}
	f.cols, f.rule, f.err = compileOptions(o)
	return f
}

func compileOptions(o *Options) (columns, HolidayRule, error) {
	for _, issue := range validateOptions(o) {
		if issue.Severity == SeverityError {
			return columns{}, nil, fmt.Errorf("%w: %s: %s", ErrInvalidOptions, issue.Field, issue.Message)
		}
	}
	var cols columns
	cols.date, _ = NameToCol(o.dateColumn)
	cols.holiday, _ = NameToCol(o.holidayColumn)
	for _, name := range o.targetColumns {
		c, _ := NameToCol(name)
		cols.targets = append(cols.targets, c)
	}
	rule, err := NewHolidayRule(o.holidayRule)
	if err != nil {
		return columns{}, nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return cols, rule, nil
}

// FillFile opens the workbook at path, fills it and saves it in place once.
func FillFile(path string, opts ...Option) (*Summary, error) {
	return NewFiller(opts...).FillFile(path)
}

// FillReader reads a workbook from r, fills it and writes the result to w.
func FillReader(r io.Reader, w io.Writer, opts ...Option) (*Summary, error) {
	return NewFiller(opts...).FillWriter(r, w)
}

// FillFile opens the workbook at path, runs the pass and saves the file in
// place. Nothing is written when the run fails or in dry-run mode.
func (f *Filler) FillFile(path string) (*Summary, error) {
	if f.err != nil {
		return nil, f.err
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
	if f.opts.dryRun {
		return sum, nil
	}
	if err := saveInPlace(wb, path); err != nil {
		return nil, err
	}
	return sum, nil
}

// FillWriter reads a workbook from r, runs the pass and writes the workbook
// to w. In dry-run mode w is left untouched.
func (f *Filler) FillWriter(r io.Reader, w io.Writer) (*Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	wb, err := OpenWorkbookReader(r)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sum, err := f.Run(wb)
	if err != nil {
		return nil, err
	}
	if f.opts.dryRun {
		return sum, nil
	}
	if err := wb.Write(w); err != nil {
		return nil, storageError("save", "", err)
	}
	return sum, nil
}

// saveInPlace writes next to path and renames over it so a failed save never
// leaves a truncated file behind.
func saveInPlace(wb Workbook, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".diaryfill-*.xlsx")
	if err != nil {
		return storageError("save", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := wb.Write(tmp); err != nil {
		tmp.Close()
		return storageError("save", path, err)
	}
	if err := tmp.Close(); err != nil {
		return storageError("save", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return storageError("save", path, err)
	}
	return nil
}

// Run performs the fill pass on wb in memory. It selects the target sheet,
// walks its rows top to bottom and fills blank target cells from the nearest
// non-blank value above. The workbook is not saved.
func (f *Filler) Run(wb Workbook) (*Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	ref := f.opts.referenceDate
	if ref.IsZero() {
		ref = time.Now()
	}
	today := Today(ref)
	month := int(today.Month())

	sel, err := f.matcher.Select(wb.GetSheetNames(), wb.GetActiveSheet(), month)
	if err != nil {
		return nil, err
	}
	sheet := sel.Sheet
	sum := &Summary{
		Sheet:           sheet,
		SelectedBy:      sel.Reason,
		Month:           month,
		Today:           today.Format(time.DateOnly),
		SheetProtection: wb.IsSheetProtected(sheet),
		DryRun:          f.opts.dryRun,
	}

	p := &pass{
		Filler: f,
		wb:     wb,
		sheet:  sheet,
		ref:    ref,
		today:  today,
		month:  month,
		sum:    sum,
		above:  make([]Value, len(f.cols.targets)),
	}
	maxRow := wb.GetMaxRow(sheet)
	for row := 0; row < maxRow; row++ {
		if err := p.row(row); err != nil {
			return nil, err
		}
	}
	return sum, nil
}

// pass is the state of a single run over one sheet.
type pass struct {
	*Filler
	wb    Workbook
	sheet string
	ref   time.Time
	today time.Time
	month int
	sum   *Summary

	// above holds, per target column, the nearest non-blank value seen so far.
	// It is updated on every row, gated or not, so it always equals what an
	// upward scan from the current row would find.
	above []Value
}

func (p *pass) row(row int) error {
	dec, err := p.gate(row)
	if err != nil {
		return err
	}

	for i, col := range p.cols.targets {
		ref := NewCellRef(p.sheet, row, col)
		v, err := p.wb.GetCellValue(ref)
		if err != nil {
			return err
		}
		if dec != nil && dec.Outcome == RowProcessed && IsBlank(v) {
			if v, err = p.fill(ref, v, p.above[i], dec); err != nil {
				return err
			}
		}
		if !IsBlank(v) {
			p.above[i] = v
		}
	}

	if dec != nil {
		for _, l := range p.opts.listeners {
			if rl, ok := l.(RowListener); ok {
				rl.RowDecided(row, *dec)
			}
		}
	}
	return nil
}

// gate decides whether the row takes part in the run. It returns nil for rows
// without a readable date.
func (p *pass) gate(row int) (*RowDecision, error) {
	dateVal, err := p.wb.GetCellValue(NewCellRef(p.sheet, row, p.cols.date))
	if err != nil {
		return nil, err
	}
	d, ok := CoerceDate(dateVal, p.ref)
	if !ok {
		return nil, nil
	}
	dec := &RowDecision{Date: d.Format(time.DateOnly)}
	if int(d.Month()) != p.month || d.After(p.today) {
		dec.Outcome = RowOutOfWindow
		return dec, nil
	}
	p.sum.RowsEvaluated++

	holidayVal, err := p.wb.GetCellValue(NewCellRef(p.sheet, row, p.cols.holiday))
	if err != nil {
		return nil, err
	}
	holiday, err := p.rule.IsHoliday(holidayVal)
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", row+1, err)
	}
	if holiday {
		p.sum.HolidaysSkipped++
		dec.Outcome = RowHoliday
		return dec, nil
	}
	dec.Outcome = RowProcessed
	return dec, nil
}

// fill handles one blank target cell and returns its value after the pass.
func (p *pass) fill(ref CellRef, current, candidate Value, dec *RowDecision) (Value, error) {
	p.sum.EmptyCellsSeen++

	if p.sum.SheetProtection {
		locked, err := p.wb.IsCellLocked(ref)
		if err != nil {
			return current, err
		}
		if locked {
			dec.Skipped = append(dec.Skipped, ref)
			return current, nil
		}
	}
	if IsBlank(candidate) {
		dec.Left = append(dec.Left, ref)
		return current, nil
	}
	for _, l := range p.opts.listeners {
		if !l.BeforeFill(ref, candidate) {
			dec.Skipped = append(dec.Skipped, ref)
			return current, nil
		}
	}

	if !p.opts.dryRun {
		if err := p.wb.SetCellValue(ref, candidate); err != nil {
			return current, err
		}
	}
	p.sum.ModifiedCount++
	dec.Filled = append(dec.Filled, ref)
	for _, l := range p.opts.listeners {
		l.AfterFill(ref, candidate)
	}
	return candidate, nil
}
