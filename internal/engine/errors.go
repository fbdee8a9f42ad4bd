package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidFieldSelection is matched by every *InvalidFieldSelectionError.
var ErrInvalidFieldSelection = errors.New("invalid field selection")

// InvalidFieldSelectionError rejects a request before any computation runs.
// It is a caller mistake, not a property of the data.
type InvalidFieldSelectionError struct {
	Kind   Kind
	Got    int
	Min    int
	Max    int
	Reason string
}

func (e *InvalidFieldSelectionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid field selection for %s: %s", e.Kind, e.Reason)
	}
	if e.Min == e.Max {
		return fmt.Sprintf("invalid field selection for %s: got %d fields, need exactly %d", e.Kind, e.Got, e.Min)
	}
	return fmt.Sprintf("invalid field selection for %s: got %d fields, need %d to %d", e.Kind, e.Got, e.Min, e.Max)
}

func (e *InvalidFieldSelectionError) Is(target error) bool {
	return target == ErrInvalidFieldSelection
}
