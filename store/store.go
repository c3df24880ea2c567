// Package store defines the durable key-value storage interface and its backends.
package store

import (
	"errors"
	"fmt"
	"regexp"
)

// Store is a string-valued key-value store that survives restarts,
// the server-side counterpart of a browser's localStorage.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Put inserts or replaces the value under key.
	Put(key, value string) error

	// Delete removes a key. Returns true if it existed.
	Delete(key string) (bool, error)

	// Close releases any resources held by the backend.
	Close() error
}

// ErrInvalidKey is returned for keys that cannot be stored safely by every backend.
var ErrInvalidKey = errors.New("invalid key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
