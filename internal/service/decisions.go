package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/matkukla/DonorCRM/internal/domain"
	"github.com/matkukla/DonorCRM/internal/store"
)

const (
	DefaultHistoryPageSize = 25
	MaxHistoryPageSize     = 100
)

type DecisionService struct {
	repo Repository
}

func NewDecisionService(repo Repository) *DecisionService {
	return &DecisionService{repo: repo}
}

type CreateDecisionInput struct {
	JournalContactID uuid.UUID
	Amount           decimal.Decimal
	Cadence          domain.DecisionCadence
	Status           domain.DecisionStatus
}

// CreateDecision records the first decision for a journal membership. A
// second one for the same membership fails with domain.ErrDuplicateDecision;
// that is enforced by the database, not checked here.
func (s *DecisionService) CreateDecision(ctx context.Context, in CreateDecisionInput) (*domain.Decision, error) {
	d, err := domain.NewDecision(in.JournalContactID, in.Amount, in.Cadence, in.Status)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(q store.Querier) error {
		if _, err := q.GetJournalContact(ctx, d.JournalContactID); err != nil {
			return fmt.Errorf("journal contact lookup failed: %w", err)
		}
		return q.CreateDecision(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DecisionService) GetDecision(ctx context.Context, id uuid.UUID) (*domain.Decision, error) {
	return s.repo.GetDecision(ctx, id)
}

type UpdateDecisionResult struct {
	Decision *domain.Decision
	// HistoryID is nil when the update changed nothing.
	HistoryID *uuid.UUID
}

// UpdateDecision applies u under the decision's row lock. When any tracked
// field changes, a history row holding the previous values is written in the
// same transaction; if either write fails, neither is kept.
func (s *DecisionService) UpdateDecision(ctx context.Context, id uuid.UUID, u domain.DecisionUpdate, actor *uuid.UUID) (*UpdateDecisionResult, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	res := &UpdateDecisionResult{}
	err := s.repo.WithTx(ctx, func(q store.Querier) error {
		d, err := q.LockDecision(ctx, id)
		if err != nil {
			return err
		}
		res.Decision = d

		changed := d.Diff(u)
		if len(changed) == 0 {
			return nil
		}

		h := &domain.DecisionHistory{
			ID:            uuid.New(),
			DecisionID:    d.ID,
			ChangedFields: changed,
			ChangedBy:     actor,
		}
		if err := q.CreateDecisionHistory(ctx, h); err != nil {
			return err
		}
		d.Apply(u)
		if err := q.UpdateDecision(ctx, d); err != nil {
			return err
		}
		res.HistoryID = &h.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.HistoryID != nil {
		decisionHistoryRows.Inc()
		log.WithFields(log.Fields{
			"decision_id": id,
			"history_id":  *res.HistoryID,
		}).Debug("decision updated")
	}
	return res, nil
}

type HistoryPage struct {
	Items    []domain.DecisionHistory
	Total    int
	Page     int
	PageSize int
}

// ListHistory pages through a decision's history, newest first. Page numbers
// start at 1; out of range sizes are clamped.
func (s *DecisionService) ListHistory(ctx context.Context, decisionID uuid.UUID, page, pageSize int) (*HistoryPage, error) {
	page, pageSize = clampPage(page, pageSize)
	if _, err := s.repo.GetDecision(ctx, decisionID); err != nil {
		return nil, err
	}
	items, total, err := s.repo.ListDecisionHistory(ctx, decisionID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("history listing failed: %w", err)
	}
	if items == nil {
		items = []domain.DecisionHistory{}
	}
	return &HistoryPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultHistoryPageSize
	}
	if pageSize > MaxHistoryPageSize {
		pageSize = MaxHistoryPageSize
	}
	return page, pageSize
}

type CreateJournalInput struct {
	OwnerID    uuid.UUID
	Name       string
	GoalAmount decimal.Decimal
	Deadline   *time.Time
}

func (s *DecisionService) CreateJournal(ctx context.Context, in CreateJournalInput) (*domain.Journal, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: journal name is required", domain.ErrValidation)
	}
	if err := domain.ValidateAmount("goal amount", in.GoalAmount); err != nil {
		return nil, err
	}
	j := &domain.Journal{
		ID:         uuid.New(),
		OwnerID:    in.OwnerID,
		Name:       in.Name,
		GoalAmount: in.GoalAmount,
	}
	if in.Deadline != nil {
		dl := domain.DateOf(*in.Deadline)
		j.Deadline = &dl
	}
	if err := s.repo.CreateJournal(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// AddJournalContact enrolls a contact in a journal. Enrolling the same
// contact twice fails with domain.ErrDuplicateMembership.
func (s *DecisionService) AddJournalContact(ctx context.Context, journalID, contactID uuid.UUID) (*domain.JournalContact, error) {
	jc := &domain.JournalContact{ID: uuid.New(), JournalID: journalID, ContactID: contactID}
	err := s.repo.WithTx(ctx, func(q store.Querier) error {
		if _, err := q.GetContact(ctx, contactID); err != nil {
			return fmt.Errorf("contact lookup failed: %w", err)
		}
		return q.CreateJournalContact(ctx, jc)
	})
	if err != nil {
		return nil, err
	}
	return jc, nil
}
