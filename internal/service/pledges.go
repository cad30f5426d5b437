package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/matkukla/DonorCRM/internal/domain"
	"github.com/matkukla/DonorCRM/internal/store"
)

type PledgeService struct {
	repo      Repository
	graceDays int
	now       func() time.Time
}

func NewPledgeService(repo Repository, graceDays int) *PledgeService {
	if graceDays < 0 {
		graceDays = domain.DefaultGraceDays
	}
	return &PledgeService{repo: repo, graceDays: graceDays, now: time.Now}
}

type CreatePledgeInput struct {
	ContactID uuid.UUID
	Amount    decimal.Decimal
	Cadence   domain.PledgeCadence
	StartDate time.Time
	EndDate   *time.Time
	Notes     string
}

// CreatePledge persists a new active pledge and notifies the contact's owner.
func (s *PledgeService) CreatePledge(ctx context.Context, in CreatePledgeInput) (*domain.Pledge, error) {
	p, err := domain.NewPledge(in.ContactID, in.Amount, in.Cadence, in.StartDate)
	if err != nil {
		return nil, err
	}
	if in.EndDate != nil {
		end := domain.DateOf(*in.EndDate)
		if end.Before(p.StartDate) {
			return nil, fmt.Errorf("%w: end date precedes start date", domain.ErrValidation)
		}
		p.EndDate = &end
	}
	p.Notes = in.Notes

	err = s.repo.WithTx(ctx, func(q store.Querier) error {
		contact, err := q.GetContact(ctx, p.ContactID)
		if err != nil {
			return fmt.Errorf("contact lookup failed: %w", err)
		}
		if err := q.CreatePledge(ctx, p); err != nil {
			return err
		}
		return q.CreateEvent(ctx, &domain.Event{
			ID:        uuid.New(),
			UserID:    contact.OwnerID,
			Type:      domain.EventPledgeCreated,
			Severity:  domain.SeverityInfo,
			Title:     fmt.Sprintf("New pledge from %s", contact.FullName()),
			Message:   fmt.Sprintf("$%s/%s pledge created", p.Amount.StringFixed(2), p.Cadence.Label()),
			ContactID: &contact.ID,
			Metadata: map[string]any{
				"pledge_id": p.ID.String(),
				"amount":    p.Amount.StringFixed(2),
				"frequency": string(p.Cadence),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PledgeService) GetPledge(ctx context.Context, id uuid.UUID) (*domain.Pledge, error) {
	return s.repo.GetPledge(ctx, id)
}

// Transition applies a pause, resume or cancel under the pledge's row lock.
func (s *PledgeService) Transition(ctx context.Context, id uuid.UUID, action domain.PledgeAction) (*domain.Pledge, error) {
	var p *domain.Pledge
	err := s.repo.WithTx(ctx, func(q store.Querier) error {
		var err error
		p, err = q.LockPledge(ctx, id)
		if err != nil {
			return err
		}
		from := p.Status
		if err := p.Apply(action, s.now()); err != nil {
			return err
		}
		if err := q.UpdatePledge(ctx, p); err != nil {
			return err
		}

		contact, err := q.GetContact(ctx, p.ContactID)
		if err != nil {
			return fmt.Errorf("contact lookup failed: %w", err)
		}
		evt := &domain.Event{
			ID:        uuid.New(),
			UserID:    contact.OwnerID,
			Type:      domain.EventPledgeUpdated,
			Severity:  domain.SeverityInfo,
			Title:     fmt.Sprintf("Pledge %s for %s", p.Status, contact.FullName()),
			Message:   fmt.Sprintf("Pledge moved from %s to %s", from, p.Status),
			ContactID: &contact.ID,
			Metadata: map[string]any{
				"pledge_id": p.ID.String(),
				"from":      string(from),
				"to":        string(p.Status),
			},
		}
		if action == domain.ActionCancel {
			evt.Type = domain.EventPledgeCancelled
			evt.Severity = domain.SeverityWarning
		}
		return q.CreateEvent(ctx, evt)
	})
	if err != nil {
		return nil, err
	}
	pledgeTransitions.WithLabelValues(string(action)).Inc()
	return p, nil
}

type RecordDonationInput struct {
	ContactID     uuid.UUID
	PledgeID      *uuid.UUID
	Amount        decimal.Decimal
	Date          time.Time
	Type          domain.DonationType
	PaymentMethod domain.PaymentMethod
	ExternalID    string
	Thanked       bool
	Notes         string
}

type DonationResult struct {
	Donation *domain.Donation
	Contact  *domain.Contact
	Pledge   *domain.Pledge
}

// RecordDonation stores a gift, refreshes the donor's giving totals and, when
// the gift is applied to a pledge, records it as a fulfillment. All of it
// commits or none of it does.
func (s *PledgeService) RecordDonation(ctx context.Context, in RecordDonationInput) (*DonationResult, error) {
	if err := domain.ValidateAmount("donation amount", in.Amount); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: donation date is required", domain.ErrValidation)
	}
	d := &domain.Donation{
		ID:            uuid.New(),
		ContactID:     in.ContactID,
		PledgeID:      in.PledgeID,
		Amount:        in.Amount,
		Date:          domain.DateOf(in.Date),
		Type:          in.Type,
		PaymentMethod: in.PaymentMethod,
		ExternalID:    in.ExternalID,
		Thanked:       in.Thanked,
		Notes:         in.Notes,
	}
	if d.Type == "" {
		d.Type = domain.DonationOneTime
	}
	if d.PaymentMethod == "" {
		d.PaymentMethod = domain.PaymentCheck
	}

	res := &DonationResult{Donation: d}
	err := s.repo.WithTx(ctx, func(q store.Querier) error {
		if _, err := q.GetContact(ctx, d.ContactID); err != nil {
			return fmt.Errorf("contact lookup failed: %w", err)
		}
		if err := q.CreateDonation(ctx, d); err != nil {
			return err
		}
		contact, err := q.RefreshGivingStats(ctx, d.ContactID, !d.Thanked)
		if err != nil {
			return err
		}
		res.Contact = contact

		if d.PledgeID != nil {
			p, err := q.LockPledge(ctx, *d.PledgeID)
			if err != nil {
				return fmt.Errorf("pledge lookup failed: %w", err)
			}
			if p.ContactID != d.ContactID {
				return fmt.Errorf("%w: pledge belongs to a different contact", domain.ErrValidation)
			}
			p.RecordFulfillment(d.Date, d.Amount)
			if err := q.UpdatePledge(ctx, p); err != nil {
				return err
			}
			res.Pledge = p
		}

		evt := &domain.Event{
			ID:        uuid.New(),
			UserID:    contact.OwnerID,
			Type:      domain.EventDonationReceived,
			Severity:  domain.SeveritySuccess,
			Title:     fmt.Sprintf("Donation from %s", contact.FullName()),
			Message:   fmt.Sprintf("$%s received on %s", d.Amount.StringFixed(2), d.Date.Format(time.DateOnly)),
			ContactID: &contact.ID,
			Metadata: map[string]any{
				"donation_id": d.ID.String(),
				"amount":      d.Amount.StringFixed(2),
			},
		}
		if contact.GiftCount == 1 {
			evt.Type = domain.EventFirstDonation
			evt.Title = fmt.Sprintf("First gift from %s", contact.FullName())
		}
		return q.CreateEvent(ctx, evt)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type SweepResult struct {
	Checked   int
	Updated   int
	NewlyLate int
	Failed    int
}

// SweepLatePledges re-evaluates every active pledge against today. Each
// pledge is handled in its own transaction, so one failure does not block
// the rest; failures are collected into the returned error. An alert is
// raised only when a pledge goes from on time to late.
func (s *PledgeService) SweepLatePledges(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	var res SweepResult

	ids, err := s.repo.ListActivePledgeIDs(ctx)
	if err != nil {
		sweepRuns.WithLabelValues("error").Inc()
		return res, fmt.Errorf("active pledge listing failed: %w", err)
	}

	today := domain.DateOf(s.now())
	var merr *multierror.Error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			merr = multierror.Append(merr, err)
			break
		}
		updated, newlyLate, err := s.sweepOne(ctx, id, today)
		if err != nil {
			res.Failed++
			merr = multierror.Append(merr, fmt.Errorf("pledge %s: %w", id, err))
			log.WithError(err).WithField("pledge_id", id).Error("late check failed")
			continue
		}
		res.Checked++
		if updated {
			res.Updated++
		}
		if newlyLate {
			res.NewlyLate++
		}
	}

	sweepDuration.Observe(time.Since(start).Seconds())
	pledgesNewlyLate.Add(float64(res.NewlyLate))
	outcome := "ok"
	if merr.ErrorOrNil() != nil {
		outcome = "partial"
	}
	sweepRuns.WithLabelValues(outcome).Inc()

	log.WithFields(log.Fields{
		"checked":    res.Checked,
		"updated":    res.Updated,
		"newly_late": res.NewlyLate,
		"failed":     res.Failed,
		"elapsed":    time.Since(start),
	}).Info("late pledge sweep finished")

	return res, merr.ErrorOrNil()
}

func (s *PledgeService) sweepOne(ctx context.Context, id uuid.UUID, today time.Time) (updated, newlyLate bool, err error) {
	err = s.repo.WithTx(ctx, func(q store.Querier) error {
		p, err := q.LockPledge(ctx, id)
		if err != nil {
			return err
		}
		// Paused or cancelled since the id listing.
		if p.Status != domain.PledgeActive {
			return nil
		}

		wasLate, prevDays := p.IsLate, p.DaysLate
		p.CheckLateStatus(today, s.graceDays)
		if p.IsLate == wasLate && p.DaysLate == prevDays {
			return nil
		}

		if p.IsLate && !wasLate {
			contact, err := q.GetContact(ctx, p.ContactID)
			if err != nil {
				return fmt.Errorf("contact lookup failed: %w", err)
			}
			notified := s.now()
			p.LateNotifiedAt = &notified
			err = q.CreateEvent(ctx, &domain.Event{
				ID:        uuid.New(),
				UserID:    contact.OwnerID,
				Type:      domain.EventPledgeLate,
				Severity:  domain.SeverityWarning,
				Title:     fmt.Sprintf("Late pledge from %s", contact.FullName()),
				Message:   fmt.Sprintf("$%s/%s pledge is %d days late", p.Amount.StringFixed(2), p.Cadence.Label(), p.DaysLate),
				ContactID: &contact.ID,
				Metadata: map[string]any{
					"pledge_id": p.ID.String(),
					"days_late": p.DaysLate,
				},
			})
			if err != nil {
				return err
			}
			newlyLate = true
		}

		if err := q.UpdatePledge(ctx, p); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, false, err
	}
	return updated, newlyLate, nil
}

// ListLatePledges returns active pledges currently flagged late, as of the
// last sweep.
func (s *PledgeService) ListLatePledges(ctx context.Context) ([]domain.Pledge, error) {
	return s.repo.ListPledges(ctx, store.PledgeFilter{Status: domain.PledgeActive, LateOnly: true})
}

type PledgeSummary struct {
	ActiveCount  int
	LateCount    int
	TotalMonthly decimal.Decimal
	TotalAnnual  decimal.Decimal
}

// Summary totals the monthly equivalent of all active pledges, optionally for
// a single contact.
func (s *PledgeService) Summary(ctx context.Context, contactID *uuid.UUID) (*PledgeSummary, error) {
	pledges, err := s.repo.ListPledges(ctx, store.PledgeFilter{Status: domain.PledgeActive, ContactID: contactID})
	if err != nil {
		return nil, err
	}
	sum := &PledgeSummary{TotalMonthly: decimal.Zero}
	for i := range pledges {
		sum.ActiveCount++
		if pledges[i].IsLate {
			sum.LateCount++
		}
		sum.TotalMonthly = sum.TotalMonthly.Add(pledges[i].MonthlyEquivalent())
	}
	sum.TotalAnnual = sum.TotalMonthly.Mul(decimal.NewFromInt(12))
	return sum, nil
}
