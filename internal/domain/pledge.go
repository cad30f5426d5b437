package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultGraceDays is how long past its expected date a pledge may go unpaid
// before it is reported late.
const DefaultGraceDays = 10

type PledgeCadence string

const (
	PledgeMonthly    PledgeCadence = "monthly"
	PledgeQuarterly  PledgeCadence = "quarterly"
	PledgeSemiAnnual PledgeCadence = "semi_annual"
	PledgeAnnual     PledgeCadence = "annual"
)

// Months is the calendar offset between two expected payments.
func (c PledgeCadence) Months() int {
	switch c {
	case PledgeQuarterly:
		return 3
	case PledgeSemiAnnual:
		return 6
	case PledgeAnnual:
		return 12
	default:
		return 1
	}
}

func (c PledgeCadence) Valid() bool {
	switch c {
	case PledgeMonthly, PledgeQuarterly, PledgeSemiAnnual, PledgeAnnual:
		return true
	}
	return false
}

func (c PledgeCadence) Label() string {
	switch c {
	case PledgeMonthly:
		return "Monthly"
	case PledgeQuarterly:
		return "Quarterly"
	case PledgeSemiAnnual:
		return "Semi-Annual"
	case PledgeAnnual:
		return "Annual"
	}
	return string(c)
}

type PledgeStatus string

const (
	PledgeActive    PledgeStatus = "active"
	PledgePaused    PledgeStatus = "paused"
	PledgeCompleted PledgeStatus = "completed"
	PledgeCancelled PledgeStatus = "cancelled"
)

// PledgeAction is an explicit lifecycle transition requested by a user.
type PledgeAction string

const (
	ActionPause  PledgeAction = "pause"
	ActionResume PledgeAction = "resume"
	ActionCancel PledgeAction = "cancel"
)

// Pledge is a recurring giving commitment. It tracks expected vs actual
// fulfillment and whether the current period is overdue.
type Pledge struct {
	ID                uuid.UUID
	ContactID         uuid.UUID
	Amount            decimal.Decimal
	Cadence           PledgeCadence
	Status            PledgeStatus
	StartDate         time.Time
	EndDate           *time.Time
	LastFulfilledDate *time.Time
	NextExpectedDate  *time.Time
	TotalExpected     decimal.Decimal
	TotalReceived     decimal.Decimal
	IsLate            bool
	DaysLate          int
	LateNotifiedAt    *time.Time
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewPledge builds an active pledge with its first expected payment date set.
func NewPledge(contactID uuid.UUID, amount decimal.Decimal, cadence PledgeCadence, start time.Time) (*Pledge, error) {
	if err := ValidateAmount("amount", amount); err != nil {
		return nil, err
	}
	if !cadence.Valid() {
		return nil, fmt.Errorf("%w: unknown cadence %q", ErrValidation, cadence)
	}
	if start.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrValidation)
	}
	p := &Pledge{
		ID:        uuid.New(),
		ContactID: contactID,
		Amount:    amount,
		Cadence:   cadence,
		Status:    PledgeActive,
		StartDate: DateOf(start),
	}
	p.NextExpectedDate = p.CalculateNextExpectedDate()
	return p, nil
}

// MonthlyEquivalent normalizes the pledge amount to a per-month figure.
func (p *Pledge) MonthlyEquivalent() decimal.Decimal {
	return p.Amount.Div(decimal.NewFromInt(int64(p.Cadence.Months()))).Round(2)
}

// FulfillmentPercentage is received over expected, in percent.
func (p *Pledge) FulfillmentPercentage() decimal.Decimal {
	if p.TotalExpected.IsZero() {
		return decimal.Zero
	}
	return p.TotalReceived.Div(p.TotalExpected).Mul(decimal.NewFromInt(100)).Round(2)
}

// CalculateNextExpectedDate returns nil unless the pledge is active.
func (p *Pledge) CalculateNextExpectedDate() *time.Time {
	if p.Status != PledgeActive {
		return nil
	}
	base := p.StartDate
	if p.LastFulfilledDate != nil {
		base = *p.LastFulfilledDate
	}
	next := AddMonths(base, p.Cadence.Months())
	return &next
}

// CheckLateStatus recomputes IsLate and DaysLate against today. DaysLate is
// counted from the expected date, not from the end of the grace period. The
// result is not persisted.
func (p *Pledge) CheckLateStatus(today time.Time, graceDays int) {
	if p.NextExpectedDate == nil || p.Status != PledgeActive {
		p.clearLate()
		return
	}
	today = DateOf(today)
	deadline := p.NextExpectedDate.AddDate(0, 0, graceDays)
	if today.After(deadline) {
		p.IsLate = true
		p.DaysLate = DaysBetween(*p.NextExpectedDate, today)
		return
	}
	p.clearLate()
}

// RecordFulfillment applies a payment received on date. It is accepted in any
// status and is not reconciled against outstanding periods. The late flags are
// cleared without re-checking the new expected date; a backdated payment can
// therefore leave an overdue pledge reported on time until the next sweep.
func (p *Pledge) RecordFulfillment(date time.Time, amount decimal.Decimal) {
	d := DateOf(date)
	p.LastFulfilledDate = &d
	p.TotalReceived = p.TotalReceived.Add(amount)
	p.NextExpectedDate = p.CalculateNextExpectedDate()
	p.clearLate()
}

func (p *Pledge) Pause() error {
	if p.Status != PledgeActive {
		return p.invalid(ActionPause, "only active pledges can be paused")
	}
	p.Status = PledgePaused
	p.NextExpectedDate = nil
	p.clearLate()
	return nil
}

func (p *Pledge) Resume() error {
	if p.Status != PledgePaused {
		return p.invalid(ActionResume, "only paused pledges can be resumed")
	}
	p.Status = PledgeActive
	p.NextExpectedDate = p.CalculateNextExpectedDate()
	return nil
}

func (p *Pledge) Cancel(today time.Time) error {
	if p.Status != PledgeActive && p.Status != PledgePaused {
		return p.invalid(ActionCancel, "pledge is already cancelled or completed")
	}
	end := DateOf(today)
	p.Status = PledgeCancelled
	p.EndDate = &end
	p.NextExpectedDate = nil
	p.clearLate()
	return nil
}

// Apply runs the named transition.
func (p *Pledge) Apply(action PledgeAction, today time.Time) error {
	switch action {
	case ActionPause:
		return p.Pause()
	case ActionResume:
		return p.Resume()
	case ActionCancel:
		return p.Cancel(today)
	}
	return fmt.Errorf("%w: unknown pledge action %q", ErrValidation, action)
}

func (p *Pledge) clearLate() {
	p.IsLate = false
	p.DaysLate = 0
}

func (p *Pledge) invalid(action PledgeAction, msg string) error {
	return fmt.Errorf("%w: cannot %s %s pledge: %s", ErrInvalidTransition, action, p.Status, msg)
}
