package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/matkukla/DonorCRM/internal/domain"
)

const decisionColumns = "id, journal_contact_id, amount, cadence, status, created_at, updated_at"

func scanDecision(row scanner) (*domain.Decision, error) {
	var d domain.Decision
	if err := row.Scan(&d.ID, &d.JournalContactID, &d.Amount, &d.Cadence, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDecision inserts d. The unique constraint on journal_contact_id is
// the only guard against a second decision for the same membership; a
// violation is reported as domain.ErrDuplicateDecision.
func (q *Queries) CreateDecision(ctx context.Context, d *domain.Decision) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO journal_decisions (id, journal_contact_id, amount, cadence, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		d.ID, d.JournalContactID, d.Amount, d.Cadence, d.Status,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("decision insert failed: %w", translate(err))
	}
	return nil
}

func (q *Queries) GetDecision(ctx context.Context, id uuid.UUID) (*domain.Decision, error) {
	d, err := scanDecision(q.db.QueryRow(ctx, "SELECT "+decisionColumns+" FROM journal_decisions WHERE id = $1", id))
	if err != nil {
		return nil, translate(err)
	}
	return d, nil
}

// LockDecision reads the decision under a row lock, serializing concurrent
// updates to the same decision.
func (q *Queries) LockDecision(ctx context.Context, id uuid.UUID) (*domain.Decision, error) {
	d, err := scanDecision(q.db.QueryRow(ctx, "SELECT "+decisionColumns+" FROM journal_decisions WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, translate(err)
	}
	return d, nil
}

func (q *Queries) UpdateDecision(ctx context.Context, d *domain.Decision) error {
	err := q.db.QueryRow(ctx, `
		UPDATE journal_decisions SET amount = $2, cadence = $3, status = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.Amount, d.Cadence, d.Status,
	).Scan(&d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("decision update failed: %w", translate(err))
	}
	return nil
}

func (q *Queries) CreateDecisionHistory(ctx context.Context, h *domain.DecisionHistory) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO journal_decision_history (id, decision_id, changed_fields, changed_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		h.ID, h.DecisionID, h.ChangedFields, h.ChangedBy,
	).Scan(&h.CreatedAt)
	if err != nil {
		return fmt.Errorf("decision history insert failed: %w", translate(err))
	}
	return nil
}

// ListDecisionHistory returns one page of history rows, newest first, and the
// total number of rows for the decision.
func (q *Queries) ListDecisionHistory(ctx context.Context, decisionID uuid.UUID, limit, offset int) ([]domain.DecisionHistory, int, error) {
	var total int
	err := q.db.QueryRow(ctx, "SELECT COUNT(*) FROM journal_decision_history WHERE decision_id = $1", decisionID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := q.db.Query(ctx, `
		SELECT id, decision_id, changed_fields, changed_by, created_at
		FROM journal_decision_history
		WHERE decision_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`,
		decisionID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var history []domain.DecisionHistory
	for rows.Next() {
		var h domain.DecisionHistory
		if err := rows.Scan(&h.ID, &h.DecisionID, &h.ChangedFields, &h.ChangedBy, &h.CreatedAt); err != nil {
			return nil, 0, err
		}
		history = append(history, h)
	}
	return history, total, rows.Err()
}
