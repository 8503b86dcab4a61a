package pagingcache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOffset is returned for range requests with a negative offset.
	ErrInvalidOffset = errors.New("pagingcache: invalid offset")

	// ErrInvalidLimit is returned for range requests with a negative limit.
	ErrInvalidLimit = errors.New("pagingcache: invalid limit")

	// ErrCanceled is delivered to requests dropped by Cancel, and to refresh
	// callers whose refresh was superseded.
	ErrCanceled = errors.New("pagingcache: request canceled")

	// ErrNilLoader is returned by New when no loader is supplied.
	ErrNilLoader = errors.New("pagingcache: loader is required")

	// ErrClosed is returned for requests made after Close.
	ErrClosed = errors.New("pagingcache: cache is closed")
)

// RangeError reports the failure of a range request. Offset and Limit
// describe the window that failed: the request's own window for validation
// and cancellation, the remote read window for loader failures.
type RangeError struct {
	Offset int
	Limit  int
	Err    error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range offset=%d limit=%d: %v", e.Offset, e.Limit, e.Err)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}
