package action

import "fmt"

// ValidationError indicates a malformed plan or a policy violation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid action plan: %s", e.Reason)
}
