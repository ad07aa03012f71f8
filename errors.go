package bfs

import (
	"errors"
	"fmt"
)

// Errno classes named in spec.md §6/§7, modeled as sentinel errors rather
// than raw integers so callers can use [errors.Is].
var (
	// ErrInvalid corresponds to -EINVAL: bad policy, bad nice, empty
	// affinity mask, or any other malformed argument.
	ErrInvalid = errors.New("bfs: invalid argument")
	// ErrPermission corresponds to -EPERM: insufficient privilege (e.g.
	// lowering nice, or RT policy without the right capability).
	ErrPermission = errors.New("bfs: operation not permitted")
	// ErrNoSuchTask corresponds to -ESRCH: the given TaskID is unknown.
	ErrNoSuchTask = errors.New("bfs: no such task")
	// ErrFault corresponds to -EFAULT: a caller-supplied pointer/value was
	// unusable (kept for API completeness; this package does not do its
	// own user-memory access).
	ErrFault = errors.New("bfs: bad argument pointer")
)

// InvalidArgumentError wraps [ErrInvalid] with a message describing which
// argument was rejected and why, following eventloop/errors.go's
// Cause+Message+Unwrap shape.
type InvalidArgumentError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	if e.Message == "" {
		return "bfs: invalid argument"
	}
	return e.Message
}

// Unwrap returns [ErrInvalid] (and the wrapped cause, if any) for use with
// [errors.Is] and [errors.As].
func (e *InvalidArgumentError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrInvalid, e.Cause}
	}
	return []error{ErrInvalid}
}

// NewInvalidArgumentError builds an [InvalidArgumentError] with a
// formatted message.
func NewInvalidArgumentError(format string, args ...any) error {
	return &InvalidArgumentError{Message: fmt.Sprintf(format, args...)}
}

// PermissionError wraps [ErrPermission]: the caller asked for something
// that requires elevated privilege (lowering nice, or taking an RT
// policy) without having it.
type PermissionError struct {
	Message string
}

// Error implements the error interface.
func (e *PermissionError) Error() string {
	if e.Message == "" {
		return "bfs: operation not permitted"
	}
	return e.Message
}

// Unwrap returns [ErrPermission] for use with [errors.Is].
func (e *PermissionError) Unwrap() []error {
	return []error{ErrPermission}
}

// NewPermissionError builds a [PermissionError] with a formatted message.
func NewPermissionError(format string, args ...any) error {
	return &PermissionError{Message: fmt.Sprintf(format, args...)}
}

// NoSuchTaskError wraps [ErrNoSuchTask]: the given [TaskID] does not name
// a live task in the [GRQ]'s arena.
type NoSuchTaskError struct {
	ID TaskID
}

// Error implements the error interface.
func (e *NoSuchTaskError) Error() string {
	return fmt.Sprintf("bfs: no such task: %d", e.ID)
}

// Unwrap returns [ErrNoSuchTask] for use with [errors.Is].
func (e *NoSuchTaskError) Unwrap() []error {
	return []error{ErrNoSuchTask}
}

// NewNoSuchTaskError builds a [NoSuchTaskError] for id.
func NewNoSuchTaskError(id TaskID) error {
	return &NoSuchTaskError{ID: id}
}

// SchedulerBugError represents an invariant violation detected by
// [Scheduler.CheckInvariants] (spec.md §7: "surfaced as a diagnostic but
// does not abort", §8's quantified invariants). It is logged and returned
// to the caller; a scheduler built with [WithPanicOnInvariantViolation]
// instead panics with the first violation found, after logging.
type SchedulerBugError struct {
	Invariant string
	Detail    string
}

// Error implements the error interface.
func (e *SchedulerBugError) Error() string {
	return fmt.Sprintf("bfs: schedule_bug: %s: %s", e.Invariant, e.Detail)
}
