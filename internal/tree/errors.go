package tree

import (
	"errors"
	"fmt"
)

// Errors returned by tree operations.
var (
	// ErrInvalidPath indicates a path that cannot address a node, such as
	// setting a non-mapping value at the root.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotAMapping indicates an operation that requires an interior node
	// resolved to a leaf value instead.
	ErrNotAMapping = errors.New("not a mapping")

	// ErrInvalidArgument indicates an argument shape the operation does not
	// accept, such as a multi-key mapping where a path/value pair is expected.
	ErrInvalidArgument = errors.New("invalid argument")
)

// PathError records an error and the operation and path that produced it.
type PathError struct {
	// Op is the failing operation ("set", "nodes", ...).
	Op string
	// Path is the slash-delimited path the operation was given.
	Path string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error {
	return e.Err
}
