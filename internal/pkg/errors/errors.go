package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrHashCollision signals that two different canonical names mapped to
	// the same truncated stable id within a project.
	ErrHashCollision = errors.New("stable id collision")
)
