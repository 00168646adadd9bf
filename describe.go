package diaryfill

import (
	"fmt"
	"strings"
)

// Describe dry-runs the engine on the workbook at path and returns a
// human-readable account of the sheet it picked and what it would do with
// each dated row. Useful for debugging a diary that does not fill as expected.
func Describe(path string, opts ...Option) (string, error) {
	return NewFiller(opts...).Describe(path)
}

// Describe opens the workbook at path and describes a dry run over it.
// The file is never written, whatever the Filler's dry-run setting.
func (f *Filler) Describe(path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	wb, err := OpenWorkbook(path)
	if err != nil {
		return "", err
	}
	defer wb.Close()

	rec := &decisionRecorder{}
	dry := *f
	opts := *f.opts
	opts.dryRun = true
	opts.listeners = append(append([]FillListener{}, f.opts.listeners...), rec)
	dry.opts = &opts

	sum, err := dry.Run(wb)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Workbook: %s\n", path)
	protected := "no"
	if sum.SheetProtection {
		protected = "yes"
	}
	fmt.Fprintf(&b, "Sheet: %s (%s, month %d, today %s, protected: %s)\n",
		sum.Sheet, sum.SelectedBy, sum.Month, sum.Today, protected)

	if len(rec.rows) > 0 {
		b.WriteString("Rows:\n")
	}
	for _, r := range rec.rows {
		fmt.Fprintf(&b, "  %d %s %s\n", r.row+1, r.dec.Date, r.dec.Outcome)
		writeRefs(&b, "filled", r.dec.Filled, rec.values)
		writeRefs(&b, "left blank", r.dec.Left, nil)
		writeRefs(&b, "skipped", r.dec.Skipped, nil)
	}

	fmt.Fprintf(&b, "Summary: %d rows evaluated, %d holidays skipped, %d empty cells seen, %d cells to fill\n",
		sum.RowsEvaluated, sum.HolidaysSkipped, sum.EmptyCellsSeen, sum.ModifiedCount)
	return b.String(), nil
}

func writeRefs(b *strings.Builder, label string, refs []CellRef, values map[CellRef]Value) {
	if len(refs) == 0 {
		return
	}
	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		if v, ok := values[ref]; ok {
			parts = append(parts, ref.CellName()+"="+v.String())
			continue
		}
		parts = append(parts, ref.CellName())
	}
	fmt.Fprintf(b, "    %s: %s\n", label, strings.Join(parts, " "))
}

type recordedRow struct {
	row int
	dec RowDecision
}

// decisionRecorder collects row decisions and fill values for Describe.
type decisionRecorder struct {
	rows   []recordedRow
	values map[CellRef]Value
}

func (r *decisionRecorder) BeforeFill(CellRef, Value) bool { return true }

func (r *decisionRecorder) AfterFill(ref CellRef, v Value) {
	if r.values == nil {
		r.values = make(map[CellRef]Value)
	}
	r.values[ref] = v
}

func (r *decisionRecorder) RowDecided(row int, dec RowDecision) {
	r.rows = append(r.rows, recordedRow{row: row, dec: dec})
}
