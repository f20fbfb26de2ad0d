package xlsxexport

import "errors"

var (
	// ErrAlreadyFinalized is returned when styling is applied twice to the same sheet.
	ErrAlreadyFinalized = errors.New("xlsxexport: sheet already finalized")
	// ErrNoHeader is returned when a sheet is closed before its header was written.
	ErrNoHeader = errors.New("xlsxexport: header was never written")
	// ErrColumnMismatch is returned when statistics and sheet disagree on the column count.
	ErrColumnMismatch = errors.New("xlsxexport: column count mismatch")
)
