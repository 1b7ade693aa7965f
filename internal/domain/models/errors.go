package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by series stores when no persisted series exists for an instrument.
var ErrNotFound = errors.New("series not found")

// UnknownInstrumentError means the symbol is not in the configured set.
type UnknownInstrumentError struct {
	Symbol string
}

func (e *UnknownInstrumentError) Error() string {
	return fmt.Sprintf("instrument %q not found", e.Symbol)
}

// DatasetMissingError means the instrument is configured but has no persisted series.
type DatasetMissingError struct {
	Symbol string
	Err    error
}

func (e *DatasetMissingError) Error() string {
	return fmt.Sprintf("data file for %s not found", e.Symbol)
}

func (e *DatasetMissingError) Unwrap() error { return e.Err }

// InsufficientHistoryError means the series is shorter than the model window.
type InsufficientHistoryError struct {
	Required  int
	Available int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("not enough data for sequence prediction: need at least %d rows, have %d (short by %d)",
		e.Required, e.Available, e.Shortfall())
}

// Shortfall is the number of missing rows.
func (e *InsufficientHistoryError) Shortfall() int {
	return e.Required - e.Available
}

// ShapeMismatchError means a matrix does not match what a model or scaler was fitted on.
type ShapeMismatchError struct {
	What     string
	WantRows int
	WantCols int
	GotRows  int
	GotCols  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want (%d, %d), got (%d, %d)",
		e.What, e.WantRows, e.WantCols, e.GotRows, e.GotCols)
}

// StorageError wraps an I/O failure of a persistent store. It is never
// recovered locally.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err carries a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
