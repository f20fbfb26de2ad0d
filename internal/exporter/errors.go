package exporter

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks failures caused by configuration rather than data.
	ErrConfig = errors.New("exporter: configuration error")
	// ErrNoColumns is returned when the query yields a result without columns.
	ErrNoColumns = fmt.Errorf("%w: query returned no columns", ErrConfig)
)

// StageError records the state an export was in when it failed.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("export failed while %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage recorded in err, if any.
func FailedStage(err error) (State, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return StateIdle, false
}
