package service

import "errors"

// Sentinel kinds for run failures.
var (
	ErrFetch           = errors.New("fetch donor stats")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
