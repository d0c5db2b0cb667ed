package repository

import (
	"context"

	"creditdocs/internal/model"
)

// DocumentFilter selects and pages the document list. Nil members are
// ignored. Results are always sorted most-recent-first.
type DocumentFilter struct {
	ClientID     *string
	DisputeID    *string
	DocumentType *model.DocumentType
	// Search matches original_name and description, case-insensitive substring.
	Search *string
	Limit  int
	Offset int
}

// DocumentUpdate is the partial-update set for document metadata. Nil
// members are left unchanged; an all-nil update is the caller's error.
type DocumentUpdate struct {
	Description    *string
	IsConfidential *bool
	DocumentType   *model.DocumentType
}

// DocumentRepository defines data access for documents using SQL queries only.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	// A unique-constraint violation on file_hash yields ErrDuplicateHash.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document joined with client/dispute/uploader
	// display names, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.DocumentDetail, error)

	// ExistsByHash reports whether any document stores content with the
	// given hash. Used as the cheap dedup fast path before insert.
	ExistsByHash(ctx context.Context, hash string) (bool, error)

	// List returns a filtered, paginated page of documents with joined
	// display names, newest first, and the total row count for the filter.
	List(ctx context.Context, f DocumentFilter) (*PageResult[model.DocumentDetail], error)

	// Update applies a partial metadata update and returns the updated row,
	// or ErrNotFound.
	Update(ctx context.Context, id string, u DocumentUpdate) (*model.Document, error)

	// Delete removes a document row. Returns ErrNotFound if no row matched.
	Delete(ctx context.Context, id string) error

	// Stats aggregates documents created in the last 30 days.
	Stats(ctx context.Context) (*model.DocumentStats, error)
}

// ActivityRepository appends audit records. The activities table is
// append-only; there are no update or delete operations.
type ActivityRepository interface {
	Insert(ctx context.Context, e *model.ActivityEntry) error
}

// ClientRepository exposes the existence check the upload pipeline needs.
type ClientRepository interface {
	// ExistsActive reports whether the client exists and is not soft-deleted.
	ExistsActive(ctx context.Context, id string) (bool, error)
}

// DisputeRepository exposes the existence check the upload pipeline needs.
type DisputeRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}
