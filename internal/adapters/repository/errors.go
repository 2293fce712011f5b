package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("product not found")
	ErrInvalidLimit = errors.New("invalid result limit")
	ErrClosed       = errors.New("store closed")
)
