package diaryfill

// Summary reports what a single run did. It is returned to the caller and
// never persisted by the engine.
type Summary struct {
	Sheet           string          `json:"sheet"`
	SelectedBy      SelectionReason `json:"selected_by"`
	Month           int             `json:"month"`
	Today           string          `json:"today"`
	RowsEvaluated   int             `json:"rows_evaluated"`
	HolidaysSkipped int             `json:"holidays_skipped"`
	EmptyCellsSeen  int             `json:"empty_cells_seen"`
	ModifiedCount   int             `json:"modified_count"`
	SheetProtection bool            `json:"sheet_protection"`
	DryRun          bool            `json:"dry_run"`
}

// NoOp reports the zero-update outcome: the run completed but changed nothing,
// which usually means the wrong sheet was picked or the diary is already full.
// Callers should report it differently from a run with changes.
func (s *Summary) NoOp() bool {
	return s.ModifiedCount == 0
}
