package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when no source knows a barcode
	ErrProductNotFound = errors.New("product not found")

	// ErrProviderFailure is matched by every *ProviderError
	ErrProviderFailure = errors.New("product provider request failed")

	// ErrStorage is matched by every *StorageError
	ErrStorage = errors.New("product cache storage failure")

	// ErrInvalidBarcode is returned when a barcode cannot be used as a lookup key
	ErrInvalidBarcode = errors.New("invalid barcode")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheDisabled is returned for cache operations when no cache is configured
	ErrCacheDisabled = errors.New("product cache not configured")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ProviderError describes a failed call to an external product provider.
// Body holds the raw response, when there was one, for diagnostics.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Provider, ErrProviderFailure)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Body != "" {
		msg += fmt.Sprintf(", body: %s", truncate(e.Body, 512))
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProviderFailure}
	}
	return []error{ErrProviderFailure, e.Err}
}

// StorageError describes a failed cache store operation
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s cache %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// NewStorageError wraps err as a *StorageError, or returns nil when err is nil
func NewStorageError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Backend: backend, Op: op, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
