package request

import "errors"

var (
	// ErrInternalServer is returned to clients when a handler panics.
	ErrInternalServer = errors.New("internal server error")
)
