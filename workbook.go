package diaryfill

import "io"

// Workbook abstracts the spreadsheet document the engine works on. The engine
// borrows it for a single run; persistence stays with the caller.
type Workbook interface {
	// Sheet access
	GetSheetNames() []string
	GetActiveSheet() string
	GetMaxRow(sheet string) int
	IsSheetProtected(sheet string) bool

	// Cell access
	GetCellValue(ref CellRef) (Value, error)
	IsCellLocked(ref CellRef) (bool, error)
	SetCellValue(ref CellRef, v Value) error

	// I/O
	Write(w io.Writer) error
	Close() error
}

// SheetData holds the in-memory view of a single sheet.
type SheetData struct {
	Name      string
	MaxRow    int
	Protected bool
	Rows      map[int]*RowData
}

// RowData holds the cells of a single row that have been read or written.
type RowData struct {
	Cells map[int]*CellData
}

// CellData holds what is known about one cell.
type CellData struct {
	Ref     CellRef
	Value   Value
	StyleID int
}

func newSheetData(name string) *SheetData {
	return &SheetData{Name: name, Rows: make(map[int]*RowData)}
}

func (sd *SheetData) cell(ref CellRef) (*CellData, bool) {
	rd, ok := sd.Rows[ref.Row]
	if !ok {
		return nil, false
	}
	cd, ok := rd.Cells[ref.Col]
	return cd, ok
}

func (sd *SheetData) put(cd *CellData) {
	rd, ok := sd.Rows[cd.Ref.Row]
	if !ok {
		rd = &RowData{Cells: make(map[int]*CellData)}
		sd.Rows[cd.Ref.Row] = rd
	}
	rd.Cells[cd.Ref.Col] = cd
	if cd.Ref.Row+1 > sd.MaxRow {
		sd.MaxRow = cd.Ref.Row + 1
	}
}
