package diaryfill

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// may20 is the reference instant used by most tests: processing month 5,
// today 2024-05-20.
var may20 = time.Date(2024, 5, 20, 9, 0, 0, 0, JST)

// testdataDir returns the path to testdata directory, creating it if needed.
func testdataDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join("testdata")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

// newDiaryFile creates a workbook whose first sheet is named sheet and holds
// the given cells.
func newDiaryFile(t *testing.T, sheet string, cells map[string]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	return f
}

// openDiary wraps an excelize file as a Workbook.
func openDiary(t *testing.T, f *excelize.File) *ExcelizeWorkbook {
	t.Helper()
	wb, err := NewExcelizeWorkbook(f)
	require.NoError(t, err)
	return wb
}

// saveDiary writes f under testdata and returns the path.
func saveDiary(t *testing.T, f *excelize.File, name string) string {
	t.Helper()
	path := filepath.Join(testdataDir(t), name)
	require.NoError(t, f.SaveAs(path))
	t.Cleanup(func() { os.Remove(path) })
	return path
}

// cellValue reads a typed cell value from wb.
func cellValue(t *testing.T, wb Workbook, sheet, cell string) Value {
	t.Helper()
	v, err := wb.GetCellValue(cellRef(sheet, cell))
	require.NoError(t, err)
	return v
}

// cellRef builds a reference from an A1 cell name such as "V3" or "$AA$3".
func cellRef(sheet, cell string) CellRef {
	col, row, err := excelize.CellNameToCoordinates(strings.ReplaceAll(cell, "$", ""))
	if err != nil {
		panic(err)
	}
	return NewCellRef(sheet, row-1, col-1)
}

// memWorkbook is a Workbook held entirely in memory.
type memWorkbook struct {
	names     []string
	active    string
	protected map[string]bool
	cells     map[CellRef]Value
	unlocked  map[CellRef]bool
	writes    int
}

func newMemWorkbook(names ...string) *memWorkbook {
	wb := &memWorkbook{
		names:     names,
		protected: make(map[string]bool),
		cells:     make(map[CellRef]Value),
		unlocked:  make(map[CellRef]bool),
	}
	if len(names) > 0 {
		wb.active = names[0]
	}
	return wb
}

func (m *memWorkbook) set(sheet, cell string, v Value) {
	m.cells[cellRef(sheet, cell)] = v
}

func (m *memWorkbook) get(sheet, cell string) Value {
	return m.cells[cellRef(sheet, cell)]
}

func (m *memWorkbook) GetSheetNames() []string { return m.names }
func (m *memWorkbook) GetActiveSheet() string  { return m.active }

func (m *memWorkbook) GetMaxRow(sheet string) int {
	maxRow := 0
	for ref := range m.cells {
		if ref.Sheet == sheet && ref.Row+1 > maxRow {
			maxRow = ref.Row + 1
		}
	}
	return maxRow
}

func (m *memWorkbook) IsSheetProtected(sheet string) bool { return m.protected[sheet] }

func (m *memWorkbook) GetCellValue(ref CellRef) (Value, error) { return m.cells[ref], nil }

func (m *memWorkbook) IsCellLocked(ref CellRef) (bool, error) { return !m.unlocked[ref], nil }

func (m *memWorkbook) SetCellValue(ref CellRef, v Value) error {
	m.cells[ref] = v
	m.writes++
	return nil
}

func (m *memWorkbook) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d cells", len(m.cells))
	return err
}

func (m *memWorkbook) Close() error { return nil }

// readBack opens written workbook bytes with excelize.
func readBack(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}
