package objdiff

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch means old and new values at the same path classify
	// differently, eg: a map on one side and a struct on the other
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrAccessorFailure means the field accessor couldn't describe a
	// composite type
	ErrAccessorFailure = errors.New("field accessor failure")
	// ErrNoFields is returned by a FieldAccessor for types that have no fields
	// to walk. Values of these types are compared as leaves
	ErrNoFields = errors.New("no fields")
	// ErrUnregistered is returned by a Registry without a fallback for struct
	// types that were never registered
	ErrUnregistered = errors.New("type not registered")
	// ErrMaxDepth is returned when traversal descends past the configured
	// maximum depth
	ErrMaxDepth = errors.New("maximum depth exceeded")
	// ErrInvalidPath is returned by Resolve for paths that can't be parsed or
	// don't point into the given value
	ErrInvalidPath = errors.New("invalid path")
)

// PathError records an error and the path it occured at
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s at root", e.Err)
	}
	return fmt.Sprintf("%s at path %q", e.Err, e.Path)
}

// Unwrap exposes the underlying error to errors.Is & errors.As
func (e *PathError) Unwrap() error { return e.Err }
