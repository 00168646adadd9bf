package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/javajack/diaryfill"
)

func TestNew(t *testing.T) {
	logger, err := New("debug", "json")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New("warn", "console")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = New("loud", "json")
	assert.ErrorContains(t, err, "invalid log level")

	_, err = New("info", "xml")
	assert.ErrorContains(t, err, "invalid log format")
}

func TestSummaryFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("process_done", SummaryFields(&diaryfill.Summary{
		Sheet:         "日誌5月",
		SelectedBy:    diaryfill.SelectedPrimary,
		Month:         5,
		Today:         "2024-05-20",
		ModifiedCount: 3,
	})...)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "日誌5月", fields["sheet"])
	assert.Equal(t, "primary", fields["selected_by"])
	assert.Equal(t, int64(3), fields["modified_count"])
	assert.Equal(t, false, fields["dry_run"])
}

func TestFillLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFillLogger(zap.New(core))

	f := diaryfill.NewFiller(
		diaryfill.WithReferenceDate(time.Date(2024, 5, 20, 9, 0, 0, 0, diaryfill.JST)),
		diaryfill.WithTargetColumns("V"),
		diaryfill.WithFillListener(l),
	)
	wb := newDiary(t)
	sum, err := f.Run(wb)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.ModifiedCount)

	filled := logs.FilterMessage("cell_filled").All()
	require.Len(t, filled, 1)
	assert.Equal(t, "日誌5月!V3", filled[0].ContextMap()["cell"])
	assert.Equal(t, "10", filled[0].ContextMap()["value"])
	assert.Equal(t, 2, logs.FilterMessage("row_decided").Len())
}

func TestFillLogger_QuietAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewFillLogger(zap.New(core))
	l.AfterFill(diaryfill.NewCellRef("s", 0, 0), diaryfill.Number(1))
	l.RowDecided(0, diaryfill.RowDecision{})
	assert.Zero(t, logs.Len())
	assert.True(t, l.BeforeFill(diaryfill.CellRef{}, diaryfill.Empty()))
}

func newDiary(t *testing.T) diaryfill.Workbook {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "日誌5月"))
	require.NoError(t, f.SetCellValue("日誌5月", "A2", "2024/5/1"))
	require.NoError(t, f.SetCellValue("日誌5月", "V2", 10))
	require.NoError(t, f.SetCellValue("日誌5月", "A3", "2024/5/2"))
	wb, err := diaryfill.NewExcelizeWorkbook(f)
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })
	return wb
}
