// Package errors defines the sentinel error taxonomy shared across the
// registry layers. Callers match with errors.Is and wrap with fmt.Errorf.
package errors

import (
	"fmt"
)

var (
	// ErrValidation marks a missing/invalid required field or a bad
	// foreign-key reference. Prior state is untouched.
	ErrValidation = fmt.Errorf("validation failed")
	// ErrNotFound marks a lookup or delete by an unknown id.
	ErrNotFound = fmt.Errorf("not found")
	// ErrExtraction marks an unreadable PDF. Extraction is all or nothing.
	ErrExtraction = fmt.Errorf("extraction failed")
	// ErrStorage marks an underlying persistence failure.
	ErrStorage = fmt.Errorf("storage failure")
	// ErrConfirmationRequired marks a destructive request sent without the
	// explicit confirmation step. The target is left untouched.
	ErrConfirmationRequired = fmt.Errorf("confirmation required")
)
