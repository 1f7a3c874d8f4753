package bayes

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCategory is returned if a category is not present in the store
	ErrMissingCategory = errors.New("category is missing")
	// ErrNotVisible is returned if a category is present in the store but excluded by the view
	ErrNotVisible = errors.New("category does not exist in filtered categories")
)

// CategoryError reports a failed category lookup.
// Use errors.Is with ErrMissingCategory or ErrNotVisible to check the reason.
type CategoryError struct {
	Name string
	Err  error
}

func (e *CategoryError) Error() string {
	if errors.Is(e.Err, ErrNotVisible) {
		return fmt.Sprintf("%q does not exist in filtered categories", e.Name)
	}
	return fmt.Sprintf("%q category is missing", e.Name)
}

func (e *CategoryError) Unwrap() error {
	return e.Err
}
