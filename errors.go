// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package crhs

import (
	"fmt"

	"github.com/pkg/errors"
)

// MalformedInputError reports that an input BDD or an exchange-format
// file violates a structural invariant (reducedness, ordering, lhs
// distinctness, a dangling node reference, a variable-count mismatch, a
// missing terminator). It is always reported at the entry point; no
// partial state is retained by the System.
type MalformedInputError struct {
	Reason string
	Cause  error
}

func (e *MalformedInputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed input: %s: %s", e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed input: %s", e.Reason)
}

func (e *MalformedInputError) Unwrap() error { return e.Cause }

func malformed(format string, a ...interface{}) *MalformedInputError {
	return &MalformedInputError{Reason: fmt.Sprintf(format, a...)}
}

// InconsistencyError reports that a mutator proved the System has no
// solution: a join produced an empty diagram, or a fix or absorption
// forced a level to the unsatisfiable equation 0=1.
type InconsistencyError struct {
	BDDID  int
	Reason string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("inconsistent system (bdd %d): %s", e.BDDID, e.Reason)
}

func inconsistent(bddID int, format string, a ...interface{}) *InconsistencyError {
	return &InconsistencyError{BDDID: bddID, Reason: fmt.Sprintf(format, a...)}
}

// ProtectedDropError reports that a strategy attempted to drop a
// variable the caller requires in the final enumeration. It is fatal to
// the strategy that raised it and always surfaces to the caller.
type ProtectedDropError struct {
	Variable int
}

func (e *ProtectedDropError) Error() string {
	return fmt.Sprintf("refused to drop protected variable %d", e.Variable)
}

// BudgetExceededError reports that a memory ceiling was breached
// mid-operation. The System is left in a consistent, if not useful,
// state: the caller must retry with a different strategy or a larger
// budget.
type BudgetExceededError struct {
	Ceiling int
	Reached int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("memory budget exceeded: %d nodes reached, ceiling is %d", e.Reached, e.Ceiling)
}

// InvariantViolationError indicates a bug in a mutator: an operation is
// about to leave, or has left, the System with a violated structural
// invariant. Unlike the other error kinds this one is never meant to be
// handled by a strategy; panicInvariant wraps it and panics, to be
// recovered only at the top of Solve, logged at error level, and
// returned as Solve's error; the process is not terminated.
type InvariantViolationError struct {
	BDDID     int
	Level     int
	Operation string
	Reason    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation during %s (bdd %d, level %d): %s",
		e.Operation, e.BDDID, e.Level, e.Reason)
}

func panicInvariant(bddID, level int, operation, format string, a ...interface{}) {
	panic(&InvariantViolationError{
		BDDID:     bddID,
		Level:     level,
		Operation: operation,
		Reason:    fmt.Sprintf(format, a...),
	})
}

// wrap attaches a contextual message to cause without discarding it,
// using the same pkg/errors wrapping used throughout the solver and
// exchange-format layers.
func wrap(cause error, format string, a ...interface{}) error {
	return errors.Wrapf(cause, format, a...)
}
