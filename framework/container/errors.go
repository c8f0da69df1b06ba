package container

import (
	"errors"
	"strconv"
)

var (
	// ErrBindRejected is returned when a nil or destroyed value is bound.
	ErrBindRejected = errors.New("container: bind rejected")

	// ErrTemplateMaterialization marks a template whose instantiated object
	// held no component assignable to the requested key.
	ErrTemplateMaterialization = errors.New("container: template materialization failed")

	// ErrUnresolved is the sentinel behind every ResolutionError.
	ErrUnresolved = errors.New("container: unresolved dependency")
)

// BindError reports a rejected bind for a specific key.
type BindError struct {
	Key    Key
	Reason string
}

// Error implements the error interface.
func (e *BindError) Error() string {
	// Example: container: failed to bind *app.Clock: value is nil, use Unbind to remove a binding
	return "container: failed to bind " + e.Key.String() + ": " + e.Reason
}

func (e *BindError) Unwrap() error { return ErrBindRejected }

// MaterializationError reports a template that produced nothing usable.
type MaterializationError struct {
	Key Key

	// Cause is set when the host failed to instantiate at all.
	Cause error
}

// Error implements the error interface.
func (e *MaterializationError) Error() string {
	msg := "container: template for " + e.Key.String() + " yielded no matching component"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is matches ErrTemplateMaterialization as well as the wrapped cause.
func (e *MaterializationError) Is(target error) bool {
	return target == ErrTemplateMaterialization
}

func (e *MaterializationError) Unwrap() error { return e.Cause }

// ResolutionError is returned when a required dependency cannot be found in
// any scope of a chain.
type ResolutionError struct {
	Key Key

	// Requester names the entity the lookup was made for (may be empty).
	Requester string

	// Field names the injection point, when the lookup came from injection.
	Field string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	// Example: container: failed to resolve required *app.Clock with id "ui" for "Player".Clock
	msg := "container: failed to resolve required " + e.Key.Unqualified().String()
	if e.Key.Qualified() {
		msg += " with id " + strconv.Quote(e.Key.ID)
	}
	if e.Requester != "" {
		msg += " for " + strconv.Quote(e.Requester)
		if e.Field != "" {
			msg += "." + e.Field
		}
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return ErrUnresolved }
