// internal/catalog/store.go
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Store is the remote data store holding the authoritative books table.
// Implementations make the text of every returned error readable by a
// librarian; it is shown as is.
type Store interface {
	// List returns every book ordered by title using the store's own collation.
	List(ctx context.Context) ([]Book, error)
	// Insert creates a book and returns it with the ID the store assigned.
	Insert(ctx context.Context, in BookInput) (Book, error)
	// Update replaces every non-ID field of the book with the given ID.
	Update(ctx context.Context, id uuid.UUID, in BookInput) error
	// Delete removes the book with the given ID.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ErrNoHistory is returned by stores that do not keep a mutation journal.
var ErrNoHistory = errors.New("this store does not keep a change history")

// Historian is implemented by stores that keep a mutation journal.
type Historian interface {
	History(ctx context.Context, id uuid.UUID) ([]Event, error)
}

// Op names a store operation.
type Op string

const (
	OpList   Op = "list"
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// OperationError is the single failure kind surfaced to users: a store
// operation failed and Reason says why.
type OperationError struct {
	Op     Op
	Reason string
	Err    error
}

func newOperationError(op Op, err error) *OperationError {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr
	}
	return &OperationError{Op: op, Reason: err.Error(), Err: err}
}

func (e *OperationError) Error() string {
	return e.Reason
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
