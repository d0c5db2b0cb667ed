package postgres

import (
	"context"

	"creditdocs/internal/database"
	"creditdocs/internal/repository"
)

// ClientPostgres implements the client existence check.
type ClientPostgres struct {
	q database.DBTX
}

// NewClientPostgres creates a new ClientPostgres repository over q.
func NewClientPostgres(q database.DBTX) *ClientPostgres {
	return &ClientPostgres{q: q}
}

var _ repository.ClientRepository = (*ClientPostgres)(nil)

// ExistsActive reports whether the client exists and has not been soft-deleted.
func (r *ClientPostgres) ExistsActive(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1 AND status != 'deleted')`
	var exists bool
	if err := r.q.QueryRowContext(ctx, q, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// DisputePostgres implements the dispute existence check.
type DisputePostgres struct {
	q database.DBTX
}

// NewDisputePostgres creates a new DisputePostgres repository over q.
func NewDisputePostgres(q database.DBTX) *DisputePostgres {
	return &DisputePostgres{q: q}
}

var _ repository.DisputeRepository = (*DisputePostgres)(nil)

// Exists reports whether the dispute exists.
func (r *DisputePostgres) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM disputes WHERE id = $1)`
	var exists bool
	if err := r.q.QueryRowContext(ctx, q, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
