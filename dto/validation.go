package dto

import "fmt"

// ValidationError reports a wire payload that cannot be normalized into a
// domain record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload field %q: %s", e.Field, e.Reason)
}
