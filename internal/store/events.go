package store

import (
	"context"
	"fmt"

	"github.com/matkukla/DonorCRM/internal/domain"
)

// CreateEvent appends a notification for e.UserID.
func (q *Queries) CreateEvent(ctx context.Context, e *domain.Event) error {
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	e.IsNew = true
	err := q.db.QueryRow(ctx, `
		INSERT INTO events (id, user_id, event_type, severity, title, message, contact_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		e.ID, e.UserID, e.Type, e.Severity, e.Title, e.Message, e.ContactID, e.Metadata,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("event insert failed: %w", translate(err))
	}
	return nil
}
