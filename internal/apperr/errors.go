// Package apperr defines the sentinel errors shared across mdview packages.
package apperr

import "errors"

var (
	// ErrInvalidArgument is returned when a caller supplies a value outside
	// the accepted domain. The operation performs no mutation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when a document or registry entry does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoDocument is returned by operations that need a current document.
	ErrNoDocument = errors.New("no document open")
	// ErrAlreadyRegistered is returned when an observer id is registered twice.
	ErrAlreadyRegistered = errors.New("already registered")
)
