package diaryfill

// FillListener is notified before and after each cell fill. Implement it to
// log, audit or veto individual writes.
type FillListener interface {
	// BeforeFill is called with the value about to be written.
	// Return false to leave the cell untouched.
	BeforeFill(ref CellRef, value Value) bool

	// AfterFill is called once the value has been written.
	AfterFill(ref CellRef, value Value)
}

// RowListener is an optional extension of FillListener that also sees the
// row gate decision for every row with a readable date.
type RowListener interface {
	RowDecided(row int, decision RowDecision)
}

// RowDecision describes what the row gate did with a row.
type RowDecision struct {
	Date    string     // the coerced date as YYYY-MM-DD
	Outcome RowOutcome // what happened to the row
	Filled  []CellRef  // cells written in this row
	Left    []CellRef  // blank cells with nothing above to copy
	Skipped []CellRef  // blank cells left alone because they are locked
}

// RowOutcome is the gate result for a row.
type RowOutcome string

const (
	RowOutOfWindow RowOutcome = "out_of_window"
	RowHoliday     RowOutcome = "holiday"
	RowProcessed   RowOutcome = "processed"
)
