// Package logging builds the zap loggers used by the CLI and the server.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/javajack/diaryfill"
)

// New builds a logger at the given level. Format "json" uses the zap
// production config; "console" uses the development config.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var config zap.Config
	switch strings.ToLower(format) {
	case "", "json":
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "ts"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console":
		config = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// SummaryFields returns the run summary as structured log fields.
func SummaryFields(sum *diaryfill.Summary) []zap.Field {
	return []zap.Field{
		zap.String("sheet", sum.Sheet),
		zap.String("selected_by", string(sum.SelectedBy)),
		zap.Int("month", sum.Month),
		zap.String("today", sum.Today),
		zap.Int("rows_evaluated", sum.RowsEvaluated),
		zap.Int("holidays_skipped", sum.HolidaysSkipped),
		zap.Int("empty_cells_seen", sum.EmptyCellsSeen),
		zap.Int("modified_count", sum.ModifiedCount),
		zap.Bool("sheet_protection", sum.SheetProtection),
		zap.Bool("dry_run", sum.DryRun),
	}
}

// FillLogger is a diaryfill.FillListener that logs every fill and row
// decision at debug level.
type FillLogger struct {
	log *zap.Logger
}

// NewFillLogger creates a FillLogger writing to log.
func NewFillLogger(log *zap.Logger) *FillLogger {
	return &FillLogger{log: log}
}

// BeforeFill never vetoes.
func (l *FillLogger) BeforeFill(diaryfill.CellRef, diaryfill.Value) bool { return true }

func (l *FillLogger) AfterFill(ref diaryfill.CellRef, v diaryfill.Value) {
	l.log.Debug("cell_filled",
		zap.String("cell", ref.String()),
		zap.Stringer("value", v),
	)
}

func (l *FillLogger) RowDecided(row int, dec diaryfill.RowDecision) {
	if ce := l.log.Check(zap.DebugLevel, "row_decided"); ce != nil {
		ce.Write(
			zap.Int("row", row+1),
			zap.String("date", dec.Date),
			zap.String("outcome", string(dec.Outcome)),
			zap.Int("filled", len(dec.Filled)),
			zap.Int("left_blank", len(dec.Left)),
			zap.Int("skipped", len(dec.Skipped)),
		)
	}
}
