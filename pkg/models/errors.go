package models

import "errors"

// Errors returned by item store implementations.
var (
	ErrItemNotFound    = errors.New("item not found")
	ErrVersionConflict = errors.New("item was modified concurrently")
)
