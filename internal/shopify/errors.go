package shopify

import (
	"errors"
	"fmt"
)

// ErrFetch is the sentinel wrapped by every FetchError.
var ErrFetch = errors.New("platform fetch failed")

// FetchError reports a failed Admin API call. It carries the logical
// resource name (shop, policies, collections, products) and the HTTP status
// of the failing response, zero when the request never completed.
type FetchError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: status %d: %v", e.Resource, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching %s: %v", e.Resource, e.Err)
}

// Unwrap exposes the underlying cause; Is keeps every FetchError matching
// the ErrFetch sentinel.
func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

func fetchErr(resource string, status int, err error) *FetchError {
	return &FetchError{Resource: resource, StatusCode: status, Err: err}
}
