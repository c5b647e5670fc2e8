package shared

import "errors"

var (
	ErrNotFound     = errors.New("entity not found")
	ErrConflict     = errors.New("entity conflict")
	ErrInvalidState = errors.New("invalid state transition")
	ErrUnavailable  = errors.New("store unavailable")
)
