package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/matkukla/DonorCRM/internal/domain"
)

// Querier is the set of persistence operations the services run, either
// directly on the pool or inside WithTx.
type Querier interface {
	CreateUser(ctx context.Context, u *domain.User) error
	CreateContact(ctx context.Context, c *domain.Contact) error
	GetContact(ctx context.Context, id uuid.UUID) (*domain.Contact, error)
	RefreshGivingStats(ctx context.Context, contactID uuid.UUID, needsThankYou bool) (*domain.Contact, error)

	CreateJournal(ctx context.Context, j *domain.Journal) error
	CreateJournalContact(ctx context.Context, jc *domain.JournalContact) error
	GetJournal(ctx context.Context, id uuid.UUID) (*domain.Journal, error)
	GetJournalContact(ctx context.Context, id uuid.UUID) (*domain.JournalContact, error)
	CreateStageEvent(ctx context.Context, e *domain.StageEvent) error
	ListStageEvents(ctx context.Context, journalContactID uuid.UUID, stage domain.PipelineStage, limit, offset int) ([]domain.StageEvent, int, error)

	CreatePledge(ctx context.Context, p *domain.Pledge) error
	GetPledge(ctx context.Context, id uuid.UUID) (*domain.Pledge, error)
	LockPledge(ctx context.Context, id uuid.UUID) (*domain.Pledge, error)
	UpdatePledge(ctx context.Context, p *domain.Pledge) error
	ListActivePledgeIDs(ctx context.Context) ([]uuid.UUID, error)
	ListPledges(ctx context.Context, filter PledgeFilter) ([]domain.Pledge, error)

	CreateDonation(ctx context.Context, d *domain.Donation) error

	CreateDecision(ctx context.Context, d *domain.Decision) error
	GetDecision(ctx context.Context, id uuid.UUID) (*domain.Decision, error)
	LockDecision(ctx context.Context, id uuid.UUID) (*domain.Decision, error)
	UpdateDecision(ctx context.Context, d *domain.Decision) error
	CreateDecisionHistory(ctx context.Context, h *domain.DecisionHistory) error
	ListDecisionHistory(ctx context.Context, decisionID uuid.UUID, limit, offset int) ([]domain.DecisionHistory, int, error)

	CreateEvent(ctx context.Context, e *domain.Event) error
}

// PledgeFilter narrows ListPledges. Zero values match everything.
type PledgeFilter struct {
	Status    domain.PledgeStatus
	LateOnly  bool
	ContactID *uuid.UUID
}

var _ Querier = (*Queries)(nil)
