package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matkukla/DonorCRM/internal/domain"
)

const contactColumns = `id, owner_id, first_name, last_name, email, status,
	first_gift_date, last_gift_date, last_gift_amount, total_given, gift_count,
	needs_thank_you, created_at, updated_at`

func scanContact(row scanner) (*domain.Contact, error) {
	var (
		c          domain.Contact
		lastAmount decimal.NullDecimal
	)
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.Email, &c.Status,
		&c.FirstGiftDate, &c.LastGiftDate, &lastAmount, &c.TotalGiven, &c.GiftCount,
		&c.NeedsThankYou, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastAmount.Valid {
		c.LastGiftAmount = &lastAmount.Decimal
	}
	return &c, nil
}

func (q *Queries) CreateUser(ctx context.Context, u *domain.User) error {
	err := q.db.QueryRow(ctx,
		"INSERT INTO users (id, email, first_name, last_name, role) VALUES ($1, $2, $3, $4, $5) RETURNING created_at",
		u.ID, u.Email, u.FirstName, u.LastName, u.Role,
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("user insert failed: %w", translate(err))
	}
	return nil
}

func (q *Queries) CreateContact(ctx context.Context, c *domain.Contact) error {
	if c.Status == "" {
		c.Status = domain.ContactProspect
	}
	err := q.db.QueryRow(ctx, `
		INSERT INTO contacts (id, owner_id, first_name, last_name, email, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		c.ID, c.OwnerID, c.FirstName, c.LastName, c.Email, c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("contact insert failed: %w", translate(err))
	}
	return nil
}

func (q *Queries) GetContact(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	c, err := scanContact(q.db.QueryRow(ctx, "SELECT "+contactColumns+" FROM contacts WHERE id = $1", id))
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// RefreshGivingStats recomputes the contact's denormalized giving totals from
// its donations. A prospect with at least one gift becomes a donor.
func (q *Queries) RefreshGivingStats(ctx context.Context, contactID uuid.UUID, needsThankYou bool) (*domain.Contact, error) {
	c, err := scanContact(q.db.QueryRow(ctx, `
		UPDATE contacts c SET
			total_given = agg.total_amount,
			gift_count = agg.gift_total,
			first_gift_date = agg.first_date,
			last_gift_date = agg.last_date,
			last_gift_amount = (
				SELECT d.amount FROM donations d
				WHERE d.contact_id = c.id
				ORDER BY d.date DESC, d.created_at DESC
				LIMIT 1
			),
			status = CASE WHEN agg.gift_total > 0 AND c.status = 'prospect' THEN 'donor' ELSE c.status END,
			needs_thank_you = c.needs_thank_you OR $2,
			updated_at = now()
		FROM (
			SELECT COALESCE(SUM(amount), 0) AS total_amount, COUNT(*) AS gift_total,
				MIN(date) AS first_date, MAX(date) AS last_date
			FROM donations WHERE contact_id = $1
		) agg
		WHERE c.id = $1
		RETURNING `+contactColumns,
		contactID, needsThankYou,
	))
	if err != nil {
		return nil, fmt.Errorf("giving stats update failed: %w", translate(err))
	}
	return c, nil
}

func (q *Queries) CreateJournal(ctx context.Context, j *domain.Journal) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO journals (id, owner_id, name, goal_amount, deadline)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		j.ID, j.OwnerID, j.Name, j.GoalAmount, j.Deadline,
	).Scan(&j.CreatedAt)
	if err != nil {
		return fmt.Errorf("journal insert failed: %w", translate(err))
	}
	return nil
}

func (q *Queries) GetJournal(ctx context.Context, id uuid.UUID) (*domain.Journal, error) {
	var j domain.Journal
	err := q.db.QueryRow(ctx, `
		SELECT id, owner_id, name, goal_amount, deadline, is_archived, created_at
		FROM journals WHERE id = $1`, id,
	).Scan(&j.ID, &j.OwnerID, &j.Name, &j.GoalAmount, &j.Deadline, &j.IsArchived, &j.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &j, nil
}

// CreateJournalContact enrolls a contact in a journal. A second enrollment of
// the same pair fails with domain.ErrDuplicateMembership.
func (q *Queries) CreateJournalContact(ctx context.Context, jc *domain.JournalContact) error {
	err := q.db.QueryRow(ctx,
		"INSERT INTO journal_contacts (id, journal_id, contact_id) VALUES ($1, $2, $3) RETURNING created_at",
		jc.ID, jc.JournalID, jc.ContactID,
	).Scan(&jc.CreatedAt)
	if err != nil {
		return fmt.Errorf("journal contact insert failed: %w", translate(err))
	}
	return nil
}

func (q *Queries) GetJournalContact(ctx context.Context, id uuid.UUID) (*domain.JournalContact, error) {
	var jc domain.JournalContact
	err := q.db.QueryRow(ctx,
		"SELECT id, journal_id, contact_id, created_at FROM journal_contacts WHERE id = $1", id,
	).Scan(&jc.ID, &jc.JournalID, &jc.ContactID, &jc.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &jc, nil
}

// CreateDonation inserts a gift. A non-empty external id must be unique.
func (q *Queries) CreateDonation(ctx context.Context, d *domain.Donation) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO donations (id, contact_id, pledge_id, amount, date, donation_type,
			payment_method, external_id, thanked, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		d.ID, d.ContactID, d.PledgeID, d.Amount, d.Date, d.Type,
		d.PaymentMethod, d.ExternalID, d.Thanked, d.Notes,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("donation insert failed: %w", translate(err))
	}
	return nil
}
