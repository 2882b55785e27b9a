// Package document_store persists the per-document metadata record and
// enforces the forward-only status lifecycle.
package document_store

import (
	"context"
	"time"

	"github.com/serisow/metaminds/document"
)

// TransitionOpts carries the fields updated together with a status change.
// Nil fields are left untouched.
type TransitionOpts struct {
	Category      *string
	LastProcessed *time.Time
}

// Store is the metadata store contract. Implementations must be safe for
// concurrent use from multiple pipeline runs and readers.
type Store interface {
	// Register inserts a PENDING record and returns its id. Filepath is
	// unique; a duplicate is a storage error.
	Register(ctx context.Context, filename, filepath, fileType string) (int64, error)

	// Get returns the current record, document.ErrNotFound if id is unknown.
	Get(ctx context.Context, id int64) (document.Document, error)

	// Transition atomically moves the document to newStatus and applies
	// opts in the same write. Returns document.ErrNotFound for unknown ids
	// and document.ErrInvalidTransition for backward or terminal moves.
	Transition(ctx context.Context, id int64, newStatus document.Status, opts TransitionOpts) error
}
