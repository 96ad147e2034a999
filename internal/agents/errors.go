package agents

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error. Only KindCapacity is recoverable; every
// other kind means a broken invariant or caller misuse and aborts the step.
type Kind string

const (
	KindCollision    Kind = "identifier_collision"
	KindMembership   Kind = "membership_violation"
	KindDomain       Kind = "domain_value"
	KindCapacity     Kind = "capacity_exceeded"
	KindRelationship Kind = "relationship_precondition"
)

// Sentinel errors for errors.Is checks against a kind.
var (
	ErrIdentifierCollision   = &Error{Kind: KindCollision}
	ErrMembershipViolation   = &Error{Kind: KindMembership}
	ErrDomainValue           = &Error{Kind: KindDomain}
	ErrCapacityExceeded      = &Error{Kind: KindCapacity}
	ErrRelationshipViolation = &Error{Kind: KindRelationship}
)

// Error is the typed error returned by container, factory and lifecycle
// operations.
type Error struct {
	Kind    Kind
	Op      string
	ID      ID
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (agent %d): %s", e.Op, e.Kind, e.ID, e.Message)
}

// Is matches any *Error of the same kind, so callers can test against the
// sentinels above.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Fatal reports whether the error must abort the current timestep.
func (e *Error) Fatal() bool {
	return e.Kind != KindCapacity
}

func newError(kind Kind, op string, id ID, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Message: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err should stop the run. Errors that are not
// *Error are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Fatal()
	}
	return true
}
