package model

import "errors"

// Sentinel kinds for snapshot validation. Callers match with errors.Is.
var (
	ErrMissingField = errors.New("missing stats field")
	ErrNotIntegral  = errors.New("stats field is not an integer")
	ErrNegative     = errors.New("stats field is negative")
)
