package diaryfill

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelizeWorkbook implements Workbook using excelize. Cells are read from the
// file on first access and cached in memory; writes go to both.
type ExcelizeWorkbook struct {
	file      *excelize.File
	sheets    map[string]*SheetData
	date1904  bool
	dateStyle map[int]bool // styleID → number format is a date
	lockStyle map[int]bool // styleID → cell is locked

	mu sync.Mutex
}

// NewExcelizeWorkbook wraps an already open excelize file.
func NewExcelizeWorkbook(f *excelize.File) (*ExcelizeWorkbook, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return newExcelizeWorkbook(f, buf.Bytes())
}

// OpenWorkbook opens an xlsx file from disk.
func OpenWorkbook(path string) (*ExcelizeWorkbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, storageError("open", path, err)
	}
	wb, err := openWorkbookBytes(data)
	if err != nil {
		return nil, storageError("open", path, err)
	}
	return wb, nil
}

// OpenWorkbookReader opens an xlsx document from a reader.
func OpenWorkbookReader(r io.Reader) (*ExcelizeWorkbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, storageError("read", "", err)
	}
	wb, err := openWorkbookBytes(data)
	if err != nil {
		return nil, storageError("open", "", err)
	}
	return wb, nil
}

func openWorkbookBytes(data []byte) (*ExcelizeWorkbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	wb, err := newExcelizeWorkbook(f, data)
	if err != nil {
		f.Close()
		return nil, err
	}
	return wb, nil
}

func newExcelizeWorkbook(f *excelize.File, data []byte) (*ExcelizeWorkbook, error) {
	wb := &ExcelizeWorkbook{
		file:      f,
		sheets:    make(map[string]*SheetData),
		dateStyle: make(map[int]bool),
		lockStyle: make(map[int]bool),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}

	protected, err := readSheetProtection(data)
	if err != nil {
		return nil, fmt.Errorf("read sheet protection: %w", err)
	}
	for _, name := range f.GetSheetList() {
		sd := newSheetData(name)
		sd.Protected = protected[name]
		maxRow, err := wb.readMaxRow(name)
		if err != nil {
			return nil, fmt.Errorf("read rows from sheet %q: %w", name, err)
		}
		sd.MaxRow = maxRow
		wb.sheets[name] = sd
	}
	return wb, nil
}

// readMaxRow returns the last row in use, taking the larger of the row data
// and the declared sheet dimension.
func (wb *ExcelizeWorkbook) readMaxRow(sheet string) (int, error) {
	rows, err := wb.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, err
	}
	maxRow := len(rows)
	if dim, err := wb.file.GetSheetDimension(sheet); err == nil && dim != "" {
		parts := strings.Split(dim, ":")
		if _, row, err := excelize.SplitCellName(parts[len(parts)-1]); err == nil && row > maxRow {
			maxRow = row
		}
	}
	return maxRow, nil
}

// GetSheetNames returns all sheet names in workbook order.
func (wb *ExcelizeWorkbook) GetSheetNames() []string {
	return wb.file.GetSheetList()
}

// GetActiveSheet returns the name of the sheet that opens by default.
func (wb *ExcelizeWorkbook) GetActiveSheet() string {
	return wb.file.GetSheetName(wb.file.GetActiveSheetIndex())
}

// GetMaxRow returns the number of rows in use on a sheet.
func (wb *ExcelizeWorkbook) GetMaxRow(sheet string) int {
	sd, ok := wb.sheets[sheet]
	if !ok {
		return 0
	}
	return sd.MaxRow
}

// IsSheetProtected reports whether the sheet has protection switched on.
func (wb *ExcelizeWorkbook) IsSheetProtected(sheet string) bool {
	sd, ok := wb.sheets[sheet]
	return ok && sd.Protected
}

// GetCellValue returns the typed value of a cell.
func (wb *ExcelizeWorkbook) GetCellValue(ref CellRef) (Value, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	cd, err := wb.cellData(ref)
	if err != nil {
		return Empty(), err
	}
	return cd.Value, nil
}

// IsCellLocked reports whether the cell's style marks it locked. Cells without
// an explicit protection setting are locked, as in Excel.
func (wb *ExcelizeWorkbook) IsCellLocked(ref CellRef) (bool, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	cd, err := wb.cellData(ref)
	if err != nil {
		return true, err
	}
	if locked, ok := wb.lockStyle[cd.StyleID]; ok {
		return locked, nil
	}
	locked := true
	if style, err := wb.file.GetStyle(cd.StyleID); err == nil && style.Protection != nil {
		locked = style.Protection.Locked
	}
	wb.lockStyle[cd.StyleID] = locked
	return locked, nil
}

// SetCellValue writes a value to a cell, preserving its style.
func (wb *ExcelizeWorkbook) SetCellValue(ref CellRef, v Value) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	sd, ok := wb.sheets[ref.Sheet]
	if !ok {
		return fmt.Errorf("sheet %q not found", ref.Sheet)
	}
	cell := ref.CellName()
	styleID, err := wb.file.GetCellStyle(ref.Sheet, cell)
	if err != nil {
		return fmt.Errorf("style %s: %w", ref, err)
	}

	switch v.Kind() {
	case KindText:
		if v.IsFormula() {
			err = wb.file.SetCellFormula(ref.Sheet, cell, strings.TrimPrefix(v.Text(), "="))
		} else {
			err = wb.file.SetCellStr(ref.Sheet, cell, v.Text())
		}
	case KindNumber:
		err = wb.file.SetCellFloat(ref.Sheet, cell, v.Number(), -1, 64)
	case KindTemporal:
		err = wb.file.SetCellValue(ref.Sheet, cell, v.Time())
	default:
		err = wb.file.SetCellValue(ref.Sheet, cell, nil)
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", ref, err)
	}
	if styleID > 0 && v.Kind() != KindTemporal {
		if err := wb.file.SetCellStyle(ref.Sheet, cell, cell, styleID); err != nil {
			return fmt.Errorf("restore style %s: %w", ref, err)
		}
	}
	newStyle, err := wb.file.GetCellStyle(ref.Sheet, cell)
	if err != nil {
		return fmt.Errorf("style %s: %w", ref, err)
	}
	sd.put(&CellData{Ref: ref, Value: v, StyleID: newStyle})
	return nil
}

// Write writes the workbook to the given writer.
func (wb *ExcelizeWorkbook) Write(w io.Writer) error {
	return wb.file.Write(w)
}

// Close closes the underlying excelize file.
func (wb *ExcelizeWorkbook) Close() error {
	return wb.file.Close()
}

// File returns the underlying excelize file for advanced operations.
func (wb *ExcelizeWorkbook) File() *excelize.File {
	return wb.file
}

// cellData returns the cached cell, reading it from the file on first access.
func (wb *ExcelizeWorkbook) cellData(ref CellRef) (*CellData, error) {
	sd, ok := wb.sheets[ref.Sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", ref.Sheet)
	}
	if cd, ok := sd.cell(ref); ok {
		return cd, nil
	}

	cell := ref.CellName()
	styleID, err := wb.file.GetCellStyle(ref.Sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("read style of %s: %w", ref, err)
	}
	v, err := wb.readValue(ref.Sheet, cell, styleID)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	cd := &CellData{Ref: ref, Value: v, StyleID: styleID}
	rd, ok := sd.Rows[ref.Row]
	if !ok {
		rd = &RowData{Cells: make(map[int]*CellData)}
		sd.Rows[ref.Row] = rd
	}
	rd.Cells[ref.Col] = cd
	return cd, nil
}

// readValue maps the stored cell to a Value. Formulas come back as "=..."
// text; numbers formatted as dates come back as Temporal.
func (wb *ExcelizeWorkbook) readValue(sheet, cell string, styleID int) (Value, error) {
	formula, err := wb.file.GetCellFormula(sheet, cell)
	if err == nil && formula != "" {
		return Text("=" + formula), nil
	}

	raw, err := wb.file.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return Empty(), err
	}
	if raw == "" {
		return Empty(), nil
	}

	typ, err := wb.file.GetCellType(sheet, cell)
	if err != nil {
		return Empty(), err
	}
	switch typ {
	case excelize.CellTypeDate:
		if t, ok := parseISODate(raw); ok {
			return Temporal(t), nil
		}
		return Text(raw), nil
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return Text("TRUE"), nil
		}
		return Text("FALSE"), nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		num, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Text(raw), nil
		}
		if wb.isDateStyle(styleID) {
			if t, err := excelize.ExcelDateToTime(num, wb.date1904); err == nil {
				return Temporal(t), nil
			}
		}
		return Number(num), nil
	default:
		return Text(raw), nil
	}
}

func (wb *ExcelizeWorkbook) isDateStyle(styleID int) bool {
	if isDate, ok := wb.dateStyle[styleID]; ok {
		return isDate
	}
	isDate := false
	if style, err := wb.file.GetStyle(styleID); err == nil {
		isDate = isDateNumFmt(style.NumFmt, style.CustomNumFmt)
	}
	wb.dateStyle[styleID] = isDate
	return isDate
}

func parseISODate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isDateNumFmt reports whether a number format renders a date or time.
func isDateNumFmt(id int, custom *string) bool {
	if custom != nil && *custom != "" {
		return isDateFormatCode(*custom)
	}
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58,
		id >= 71 && id <= 81:
		return true
	}
	return false
}

// isDateFormatCode looks for date/time tokens outside quoted literals,
// escapes and bracketed sections such as colours.
func isDateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
		case inBracket:
			if c == ']' {
				inBracket = false
			}
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\' || c == '_':
			i++
		default:
			switch c | 0x20 {
			case 'y', 'm', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}
