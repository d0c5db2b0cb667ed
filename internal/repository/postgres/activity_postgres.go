package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"creditdocs/internal/database"
	"creditdocs/internal/model"
	"creditdocs/internal/repository"
)

// ActivityPostgres appends audit rows to the activities table.
type ActivityPostgres struct {
	q database.DBTX
}

// NewActivityPostgres creates a new ActivityPostgres repository over q.
func NewActivityPostgres(q database.DBTX) *ActivityPostgres {
	return &ActivityPostgres{q: q}
}

var _ repository.ActivityRepository = (*ActivityPostgres)(nil)

// Insert appends one activity row. Metadata is stored as JSONB.
func (r *ActivityPostgres) Insert(ctx context.Context, e *model.ActivityEntry) error {
	var meta []byte
	if e.Metadata != nil {
		var err error
		meta, err = json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
	}

	const q = `
		INSERT INTO activities (client_id, user_id, activity_type, description, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, q, e.ClientID, e.UserID, e.ActivityType, e.Description, meta)
	return err
}
