package core

import "errors"

var (
	// ErrInvalidRequest is returned for malformed ticker/quarter/year input.
	// The pipeline rejects such requests before invoking any stage.
	ErrInvalidRequest = errors.New("invalid request")
)
