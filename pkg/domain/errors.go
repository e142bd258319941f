package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionLost reports an unreachable store or a broken connection
	ErrConnectionLost = errors.New("store connection lost")
	// ErrWriteRejected reports an insert refused by the store
	ErrWriteRejected = errors.New("store rejected write")
	// ErrCursorFailure reports a failure while iterating a listing
	ErrCursorFailure = errors.New("store cursor failure")
)

// StoreError describes a failed gateway operation
type StoreError struct {
	Op         string
	Collection string
	Kind       error
	Err        error
}

// NewStoreError creates a StoreError of the given kind
func NewStoreError(op, collection string, kind, err error) *StoreError {
	return &StoreError{
		Op:         op,
		Collection: collection,
		Kind:       kind,
		Err:        err,
	}
}

func (e *StoreError) Error() string {
	prefix := e.Op
	if e.Collection != "" {
		prefix = fmt.Sprintf("%s %s", e.Op, e.Collection)
	}

	if e.Err == nil {
		return fmt.Sprintf("%s: %v", prefix, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", prefix, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is
func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
