// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repository lookups that match nothing.
var ErrNotFound = errors.New("not found")

// ErrPreviewDisabled is returned by the preview route when previews are off.
var ErrPreviewDisabled = errors.New("preview disabled")

// InvalidConfigError reports a bad source URL or filter. It is raised when
// the source is loaded, before any network call.
type InvalidConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidConfigError) Error() string {
	msg := fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidConfigError) Unwrap() error { return e.Err }

// FetchError reports that the search listing could not be retrieved.
// Status is zero when no HTTP response was received. Run-fatal.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a listing body that is not the expected JSON shape.
// Run-fatal.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ClassificationError reports a remote record missing fields required to
// build its resources. It only fails that item.
type ClassificationError struct {
	RemoteID string
	Reason   string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classifying dataset %q: %s", e.RemoteID, e.Reason)
}

// StorageError reports a failed merge step. It only fails that item.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsRunFatal reports whether err stops a whole run rather than one item.
func IsRunFatal(err error) bool {
	var (
		cfgErr   *InvalidConfigError
		fetchErr *FetchError
		parseErr *ParseError
	)
	return errors.As(err, &cfgErr) || errors.As(err, &fetchErr) || errors.As(err, &parseErr)
}
