package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/matkukla/DonorCRM/internal/domain"
)

const pledgeColumns = `id, contact_id, amount, frequency, status, start_date, end_date,
	last_fulfilled_date, next_expected_date, total_expected, total_received,
	is_late, days_late, late_notified_at, notes, created_at, updated_at`

func scanPledge(row scanner) (*domain.Pledge, error) {
	var p domain.Pledge
	err := row.Scan(
		&p.ID, &p.ContactID, &p.Amount, &p.Cadence, &p.Status, &p.StartDate, &p.EndDate,
		&p.LastFulfilledDate, &p.NextExpectedDate, &p.TotalExpected, &p.TotalReceived,
		&p.IsLate, &p.DaysLate, &p.LateNotifiedAt, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePledge inserts p and fills in its timestamps.
func (q *Queries) CreatePledge(ctx context.Context, p *domain.Pledge) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO pledges (id, contact_id, amount, frequency, status, start_date, end_date,
			last_fulfilled_date, next_expected_date, total_expected, total_received,
			is_late, days_late, late_notified_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`,
		p.ID, p.ContactID, p.Amount, p.Cadence, p.Status, p.StartDate, p.EndDate,
		p.LastFulfilledDate, p.NextExpectedDate, p.TotalExpected, p.TotalReceived,
		p.IsLate, p.DaysLate, p.LateNotifiedAt, p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pledge insert failed: %w", translate(err))
	}
	return nil
}

// GetPledge retrieves a pledge without locking it.
func (q *Queries) GetPledge(ctx context.Context, id uuid.UUID) (*domain.Pledge, error) {
	p, err := scanPledge(q.db.QueryRow(ctx, "SELECT "+pledgeColumns+" FROM pledges WHERE id = $1", id))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// LockPledge retrieves a pledge and holds its row lock until the enclosing
// transaction ends.
func (q *Queries) LockPledge(ctx context.Context, id uuid.UUID) (*domain.Pledge, error) {
	p, err := scanPledge(q.db.QueryRow(ctx, "SELECT "+pledgeColumns+" FROM pledges WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// UpdatePledge writes every mutable field of p.
func (q *Queries) UpdatePledge(ctx context.Context, p *domain.Pledge) error {
	err := q.db.QueryRow(ctx, `
		UPDATE pledges SET
			amount = $2, frequency = $3, status = $4, start_date = $5, end_date = $6,
			last_fulfilled_date = $7, next_expected_date = $8,
			total_expected = $9, total_received = $10,
			is_late = $11, days_late = $12, late_notified_at = $13, notes = $14,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Amount, p.Cadence, p.Status, p.StartDate, p.EndDate,
		p.LastFulfilledDate, p.NextExpectedDate,
		p.TotalExpected, p.TotalReceived,
		p.IsLate, p.DaysLate, p.LateNotifiedAt, p.Notes,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pledge update failed: %w", translate(err))
	}
	return nil
}

func (q *Queries) ListActivePledgeIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, "SELECT id FROM pledges WHERE status = $1 ORDER BY next_expected_date, id", domain.PledgeActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *Queries) ListPledges(ctx context.Context, filter PledgeFilter) ([]domain.Pledge, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.LateOnly {
		where = append(where, "is_late")
	}
	if filter.ContactID != nil {
		args = append(args, *filter.ContactID)
		where = append(where, fmt.Sprintf("contact_id = $%d", len(args)))
	}

	sql := "SELECT " + pledgeColumns + " FROM pledges"
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY created_at DESC"

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pledges []domain.Pledge
	for rows.Next() {
		p, err := scanPledge(rows)
		if err != nil {
			return nil, err
		}
		pledges = append(pledges, *p)
	}
	return pledges, rows.Err()
}
