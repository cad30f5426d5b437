package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DecisionCadence string

const (
	DecisionOneTime   DecisionCadence = "one_time"
	DecisionMonthly   DecisionCadence = "monthly"
	DecisionQuarterly DecisionCadence = "quarterly"
	DecisionAnnual    DecisionCadence = "annual"
)

func (c DecisionCadence) Valid() bool {
	switch c {
	case DecisionOneTime, DecisionMonthly, DecisionQuarterly, DecisionAnnual:
		return true
	}
	return false
}

// MonthlyEquivalent normalizes amount to a monthly value. One-time gifts
// contribute nothing. Rounding to cents happens once, after the division.
func (c DecisionCadence) MonthlyEquivalent(amount decimal.Decimal) decimal.Decimal {
	switch c {
	case DecisionMonthly:
		return amount.Round(2)
	case DecisionQuarterly:
		return amount.Div(decimal.NewFromInt(3)).Round(2)
	case DecisionAnnual:
		return amount.Div(decimal.NewFromInt(12)).Round(2)
	}
	return decimal.Zero
}

type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "pending"
	DecisionActive   DecisionStatus = "active"
	DecisionPaused   DecisionStatus = "paused"
	DecisionDeclined DecisionStatus = "declined"
)

func (s DecisionStatus) Valid() bool {
	switch s {
	case DecisionPending, DecisionActive, DecisionPaused, DecisionDeclined:
		return true
	}
	return false
}

// Tracked decision fields, as recorded in history rows.
const (
	FieldAmount  = "amount"
	FieldCadence = "cadence"
	FieldStatus  = "status"
)

// Decision is the current, mutable commitment for one journal contact. At
// most one exists per membership.
type Decision struct {
	ID               uuid.UUID
	JournalContactID uuid.UUID
	Amount           decimal.Decimal
	Cadence          DecisionCadence
	Status           DecisionStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewDecision validates and builds a decision. Empty cadence and status fall
// back to monthly and pending.
func NewDecision(journalContactID uuid.UUID, amount decimal.Decimal, cadence DecisionCadence, status DecisionStatus) (*Decision, error) {
	if cadence == "" {
		cadence = DecisionMonthly
	}
	if status == "" {
		status = DecisionPending
	}
	u := DecisionUpdate{Amount: &amount, Cadence: &cadence, Status: &status}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return &Decision{
		ID:               uuid.New(),
		JournalContactID: journalContactID,
		Amount:           amount,
		Cadence:          cadence,
		Status:           status,
	}, nil
}

func (d *Decision) MonthlyEquivalent() decimal.Decimal {
	return d.Cadence.MonthlyEquivalent(d.Amount)
}

// DecisionUpdate carries the subset of tracked fields a caller wants to set.
// Nil fields are left untouched.
type DecisionUpdate struct {
	Amount  *decimal.Decimal
	Cadence *DecisionCadence
	Status  *DecisionStatus
}

func (u DecisionUpdate) Validate() error {
	if u.Amount != nil {
		if err := ValidateAmount("amount", *u.Amount); err != nil {
			return err
		}
	}
	if u.Cadence != nil && !u.Cadence.Valid() {
		return fmt.Errorf("%w: unknown cadence %q", ErrValidation, *u.Cadence)
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, *u.Status)
	}
	return nil
}

// Diff maps each field the update would change to its current value. Amounts
// compare numerically, so 100 and 100.00 are equal.
func (d *Decision) Diff(u DecisionUpdate) map[string]string {
	changed := map[string]string{}
	if u.Amount != nil && !u.Amount.Equal(d.Amount) {
		changed[FieldAmount] = d.Amount.StringFixed(2)
	}
	if u.Cadence != nil && *u.Cadence != d.Cadence {
		changed[FieldCadence] = string(d.Cadence)
	}
	if u.Status != nil && *u.Status != d.Status {
		changed[FieldStatus] = string(d.Status)
	}
	return changed
}

// Apply copies every present field of u onto d.
func (d *Decision) Apply(u DecisionUpdate) {
	if u.Amount != nil {
		d.Amount = *u.Amount
	}
	if u.Cadence != nil {
		d.Cadence = *u.Cadence
	}
	if u.Status != nil {
		d.Status = *u.Status
	}
}

// DecisionHistory is an immutable record of a decision's values before one
// update.
type DecisionHistory struct {
	ID            uuid.UUID
	DecisionID    uuid.UUID
	ChangedFields map[string]string
	ChangedBy     *uuid.UUID
	CreatedAt     time.Time
}
