// Package kind implements the reactor's error-kind taxonomy: a small set of
// sentinel errors plus a typed wrapper carrying an operation name, grounded
// on original_source/src/error/mod.rs and on the teacher's typed-error
// pattern (errors.go's PanicError/TypeError/WrapError — Unwrap-based, so
// errors.Is/errors.As work across the boundary).
package kind

import "errors"

// Kind identifies one of the six error kinds the reactor's boundary
// produces, beyond the OS-numbered errors it also surfaces directly.
type Kind int

const (
	// Again is the non-fatal "try later" signal; always recovered locally
	// by the caller arranging a callback-based retry.
	Again Kind = iota
	// BadDescriptor means an operation targeted a dead or invalid handle:
	// a weak reference that failed to upgrade, or a handle already
	// consumed (e.g. conn.Progress.Take called twice).
	BadDescriptor
	// Invalid means a precondition was violated, e.g. Pacer constructed
	// with a non-positive byte rate.
	Invalid
	// Protocol means the naive decoder saw EOF before its terminator.
	Protocol
	// NoSpace means a Reservoir exceeded its capacity.
	NoSpace
	// TimeExceeded means Disk.Flush's deadline passed before the reactor
	// went idle.
	TimeExceeded
)

func (k Kind) String() string {
	switch k {
	case Again:
		return "again"
	case BadDescriptor:
		return "bad-descriptor"
	case Invalid:
		return "invalid"
	case Protocol:
		return "protocol"
	case NoSpace:
		return "no-space"
	case TimeExceeded:
		return "time-exceeded"
	default:
		return "unknown"
	}
}

// sentinel values, for errors.Is comparisons against a bare Kind.
var (
	ErrAgain        = &Error{K: Again}
	ErrBadDescrip   = &Error{K: BadDescriptor}
	ErrInvalid      = &Error{K: Invalid}
	ErrProtocol     = &Error{K: Protocol}
	ErrNoSpace      = &Error{K: NoSpace}
	ErrTimeExceeded = &Error{K: TimeExceeded}
)

// Error is the typed error every goaten component returns for its
// internally constructed (non-OS-numbered) failures.
type Error struct {
	K   Kind
	Op  string // the operation that failed, e.g. "pacer.new", "sub.read"
	Err error  // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Op == "" && e.Err == nil {
		return e.K.String()
	}
	s := e.K.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, kind.ErrAgain) (etc.) match any *Error sharing the
// same Kind, regardless of Op/wrapped cause.
func (e *Error) Is(target error) bool {
	var o *Error
	if errors.As(target, &o) {
		return o.K == e.K
	}
	return false
}

// New builds an *Error of kind k for operation op, optionally wrapping err.
func New(k Kind, op string, err error) *Error {
	return &Error{K: k, Op: op, Err: err}
}

// NewAgain builds an Again error for op — the reactor-wide "non-fatal,
// retry via callback" signal.
func NewAgain(op string) error { return New(Again, op, nil) }

// NewBadDescriptor builds a BadDescriptor error for op.
func NewBadDescriptor(op string) error { return New(BadDescriptor, op, nil) }

// NewInvalid builds an Invalid error for op, wrapping the precondition
// violation described by err.
func NewInvalid(op string, err error) error { return New(Invalid, op, err) }

// NewProtocol builds a Protocol error for op.
func NewProtocol(op string) error { return New(Protocol, op, nil) }

// NewNoSpace builds a NoSpace error for op.
func NewNoSpace(op string) error { return New(NoSpace, op, nil) }

// NewTimeExceeded builds a TimeExceeded error for op.
func NewTimeExceeded(op string) error { return New(TimeExceeded, op, nil) }

// IsAgain reports whether err is the Again kind.
func IsAgain(err error) bool { return Is(err, Again) }

// Is reports whether err is a *Error of kind k.
func Is(err error, k Kind) bool {
	var o *Error
	return errors.As(err, &o) && o.K == k
}
