package diaryfill

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellRef addresses a single cell in a workbook.
type CellRef struct {
	Sheet string
	Row   int // 0-based
	Col   int // 0-based
}

// NewCellRef creates a CellRef with explicit sheet, row, col.
func NewCellRef(sheet string, row, col int) CellRef {
	return CellRef{Sheet: sheet, Row: row, Col: col}
}

// String formats the reference as "日誌5月!V3", or "V3" without a sheet.
func (c CellRef) String() string {
	if c.Sheet != "" {
		return c.Sheet + "!" + c.CellName()
	}
	return c.CellName()
}

// CellName returns the A1-style cell name without the sheet.
func (c CellRef) CellName() string {
	name, err := excelize.CoordinatesToCellName(c.Col+1, c.Row+1)
	if err != nil {
		return ""
	}
	return name
}

// ColToName converts a 0-based column index to a column name: 0→"A", 26→"AA".
func ColToName(col int) string {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return ""
	}
	return name
}

// NameToCol converts a column name to a 0-based column index. Names beyond
// XFD are rejected.
func NameToCol(name string) (int, error) {
	col, err := excelize.ColumnNameToNumber(strings.ToUpper(strings.TrimSpace(name)))
	if err != nil {
		return 0, err
	}
	return col - 1, nil
}
