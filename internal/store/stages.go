package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/matkukla/DonorCRM/internal/domain"
)

// CreateStageEvent appends to a journal contact's activity log. A missing
// journal contact surfaces as domain.ErrNotFound.
func (q *Queries) CreateStageEvent(ctx context.Context, e *domain.StageEvent) error {
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	err := q.db.QueryRow(ctx, `
		INSERT INTO journal_stage_events (id, journal_contact_id, stage, event_type, notes, metadata, triggered_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		e.ID, e.JournalContactID, e.Stage, e.Type, e.Notes, e.Metadata, e.TriggeredBy,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("stage event insert failed: %w", translate(err))
	}
	return nil
}

// ListStageEvents returns one page of a journal contact's stage events, newest
// first, with the total count. An empty stage matches every stage.
func (q *Queries) ListStageEvents(ctx context.Context, journalContactID uuid.UUID, stage domain.PipelineStage, limit, offset int) ([]domain.StageEvent, int, error) {
	var total int
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM journal_stage_events
		WHERE journal_contact_id = $1 AND ($2::text = '' OR stage = $2::text)`,
		journalContactID, string(stage),
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := q.db.Query(ctx, `
		SELECT id, journal_contact_id, stage, event_type, notes, metadata, triggered_by, created_at
		FROM journal_stage_events
		WHERE journal_contact_id = $1 AND ($2::text = '' OR stage = $2::text)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`,
		journalContactID, string(stage), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []domain.StageEvent
	for rows.Next() {
		var e domain.StageEvent
		if err := rows.Scan(&e.ID, &e.JournalContactID, &e.Stage, &e.Type, &e.Notes, &e.Metadata, &e.TriggeredBy, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}
