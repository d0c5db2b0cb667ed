// Package repository contains the data access layer abstractions.
// Implementations live in subpackages (e.g. postgres) and hold no business
// logic, strictly persistence operations.
package repository

import (
	"errors"

	"creditdocs/internal/database"
)

var (
	// ErrNotFound reports that the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateHash reports a unique-constraint violation on the
	// document content hash. This is the canonical duplicate signal: the
	// pre-check query is only a fast path, the constraint closes the race
	// between concurrent uploads of identical content.
	ErrDuplicateHash = errors.New("document with identical content already exists")
)

// Provider builds repositories bound to a query handle. Passing a
// transaction from database.WithTx scopes every repository call to that
// transaction; passing the pool runs them standalone.
type Provider interface {
	Documents(q database.DBTX) DocumentRepository
	Activities(q database.DBTX) ActivityRepository
	Clients(q database.DBTX) ClientRepository
	Disputes(q database.DBTX) DisputeRepository
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
