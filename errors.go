package diaryfill

import (
	"errors"
	"fmt"
)

// ErrNoWorksheets indicates the workbook has no sheet to select from.
var ErrNoWorksheets = errors.New("workbook has no worksheets")

// ErrInvalidOptions indicates the engine was configured with unusable options.
var ErrInvalidOptions = errors.New("invalid options")

// StorageError represents a failure loading or saving the workbook.
type StorageError struct {
	Op   string // "open", "read", "save"
	Path string // empty when working on a reader/writer
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s workbook: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s workbook %q: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op, path string, err error) *StorageError {
	return &StorageError{Op: op, Path: path, Err: err}
}
