package approval

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel error for unknown pending-action ids.
var ErrNotFound = errors.New("pending action not found")

// InvalidTransitionError indicates an illegal state-machine edge,
// e.g. approving an already-rejected action.
type InvalidTransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move action %s from %s to %s", e.ID, e.From, e.To)
}

// IsInvalidTransition returns true when err is (or wraps) an
// InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}
