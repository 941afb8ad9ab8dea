package adapters

import "errors"

// ErrUnavailable indicates the backing provider could not be reached.
// Pipeline stages treat this the same as any other provider error: the
// affected context degrades to empty rather than aborting the query.
var ErrUnavailable = errors.New("provider unavailable")

// ErrNotFound indicates the requested thread or event does not exist.
var ErrNotFound = errors.New("not found")
