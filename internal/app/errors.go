package service

import "errors"

// ErrInvalidChoice rejects a purchase whose choice is neither
// AI_SUGGESTED nor ORIGINAL.
var ErrInvalidChoice = errors.New("invalid purchase choice")
