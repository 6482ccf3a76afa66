// Package storage provides the persistent settings-store abstraction used
// by the memory engine. Backends are injected explicitly; nothing in this
// package holds process-wide state.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Store is the capability handed to the memory engine. Values are opaque
// serialized payloads; keys are flat strings namespaced by the caller.
type Store interface {
	// GetSetting returns the payload stored under key, or a NotFoundError.
	GetSetting(ctx context.Context, key string) ([]byte, error)

	// SaveSetting writes the payload under key, replacing any prior value.
	SaveSetting(ctx context.Context, key string, value []byte) error

	// RemoveSetting deletes the key. Removing an absent key is not an error.
	RemoveSetting(ctx context.Context, key string) error

	// Keys lists all stored keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// NotFoundError indicates that the requested key was not found.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("setting not found: %s", e.Key)
}

// StorageUnavailableError indicates that the storage backend is unavailable.
type StorageUnavailableError struct {
	Cause error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Cause)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
