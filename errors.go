package hotstate

import (
	"errors"
	"fmt"
)

// ErrMalformedSnapshot is returned when Revive is handed entries it cannot
// interpret: a missing root, a dangling index or an unknown tag.
var ErrMalformedSnapshot = errors.New("hotstate: malformed snapshot")

// ErrNilDestination is returned when Revive is called with a nil map.
var ErrNilDestination = errors.New("hotstate: destination is nil")

// SnapshotError captures where in the snapshot a failure happened.
type SnapshotError struct {
	Op    string
	Index int
	Err   error
}

func (e *SnapshotError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("hotstate: %s entry %d: %v", e.Op, e.Index, e.Err)
}

func (e *SnapshotError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func malformed(op string, index int, format string, args ...any) error {
	return &SnapshotError{
		Op:    op,
		Index: index,
		Err:   fmt.Errorf("%w: %s", ErrMalformedSnapshot, fmt.Sprintf(format, args...)),
	}
}
