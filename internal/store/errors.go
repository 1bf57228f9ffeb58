package store

import "errors"

var (
	// ErrStoreMissing indicates the database file does not exist.
	ErrStoreMissing = errors.New("store not found")
	// ErrLocked indicates another process holds the store write lock.
	ErrLocked = errors.New("store is locked by another process")
	// ErrNotFound indicates a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrIntegrityViolation indicates a delete would break edge references.
	ErrIntegrityViolation = errors.New("store integrity violation")
	// ErrUnresolvableReference indicates an occurrence reference matched zero
	// or several rows.
	ErrUnresolvableReference = errors.New("unresolvable occurrence reference")
	// ErrInvalidTransition indicates a status change the transition table forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)
