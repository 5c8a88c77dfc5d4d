package statsapi

import (
	"errors"
	"fmt"
)

// Sentinel kinds for stats API errors.
var (
	ErrTransport  = errors.New("stats api transport failed")
	ErrHTTPStatus = errors.New("stats api returned an error status")
	ErrDecode     = errors.New("stats api response malformed")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d for %s", ErrHTTPStatus, e.Code, e.URL)
}

// Unwrap makes errors.Is(err, ErrHTTPStatus) hold.
func (e *StatusError) Unwrap() error { return ErrHTTPStatus }
