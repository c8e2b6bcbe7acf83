package dom

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a lookup chain is exhausted with no match.
var ErrNotFound = errors.New("dom: element not found")

// ErrTimeout matches every *TimeoutError.
var ErrTimeout = errors.New("dom: wait timed out")

// TimeoutError is returned by WaitFor when the budget is exhausted.
type TimeoutError struct {
	What    string
	Timeout time.Duration
	// Last is the last predicate error, if any.
	Last error
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("dom: %s not satisfied within %s: %v", e.What, e.Timeout, e.Last)
	}
	return fmt.Sprintf("dom: %s not satisfied within %s", e.What, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

func (e *TimeoutError) Unwrap() error { return e.Last }

// DefaultPollInterval is the poll period used by WaitFor when interval <= 0.
const DefaultPollInterval = 100 * time.Millisecond

// WaitFor polls pred every interval until it returns true or timeout elapses.
// The predicate is always evaluated at least once. Predicate errors are kept
// and retried: a node may be detached while the framework re-renders.
// This is the only polling primitive of the module; a mutation-observer
// backed variant can replace it without touching callers.
func WaitFor(ctx context.Context, what string, timeout, interval time.Duration, pred func() (bool, error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)

	var last error
	for {
		ok, err := pred()
		if err == nil && ok {
			return nil
		}
		last = err

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &TimeoutError{What: what, Timeout: timeout, Last: last}
		}
		if err := Pause(ctx, min(interval, remaining)); err != nil {
			return fmt.Errorf("dom: wait for %s: %w", what, err)
		}
	}
}

// Pause sleeps for d, returning early with ctx.Err() if ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
