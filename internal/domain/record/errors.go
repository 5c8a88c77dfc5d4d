package record

import "errors"

// ErrMalformedRow reports a stored tabular line that cannot be read back.
var ErrMalformedRow = errors.New("malformed history row")
