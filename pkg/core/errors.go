package core

import "errors"

// Common errors.
var (
	ErrNotFound        = errors.New("note not found")
	ErrEmptyContent    = errors.New("source content is empty")
	ErrSaveFailed      = errors.New("save failed")
	ErrChatUnavailable = errors.New("chat capability is not configured")
	ErrUnsupported     = errors.New("operation not supported by this storage")
)
