package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matkukla/DonorCRM/internal/domain"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = time.DateOnly

// CreatePledgeRequest is the payload for opening a pledge.
type CreatePledgeRequest struct {
	ContactID uuid.UUID       `json:"contact_id"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency string          `json:"frequency"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// CreateDonationRequest records a gift, optionally against a pledge.
type CreateDonationRequest struct {
	ContactID     uuid.UUID       `json:"contact_id"`
	PledgeID      *uuid.UUID      `json:"pledge_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	DonationType  string          `json:"donation_type,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	ExternalID    string          `json:"external_id,omitempty"`
	Thanked       bool            `json:"thanked"`
	Notes         string          `json:"notes,omitempty"`
}

type CreateJournalRequest struct {
	Name       string          `json:"name"`
	GoalAmount decimal.Decimal `json:"goal_amount"`
	Deadline   string          `json:"deadline,omitempty"`
}

type CreateJournalContactRequest struct {
	JournalID uuid.UUID `json:"journal_id"`
	ContactID uuid.UUID `json:"contact_id"`
}

type CreateStageEventRequest struct {
	JournalContactID uuid.UUID      `json:"journal_contact_id"`
	Stage            string         `json:"stage"`
	EventType        string         `json:"event_type"`
	Notes            string         `json:"notes,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

type CreateDecisionRequest struct {
	JournalContactID uuid.UUID       `json:"journal_contact_id"`
	Amount           decimal.Decimal `json:"amount"`
	Cadence          string          `json:"cadence,omitempty"`
	Status           string          `json:"status,omitempty"`
}

// UpdateDecisionRequest is a partial update; absent fields are unchanged.
type UpdateDecisionRequest struct {
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Cadence *string          `json:"cadence,omitempty"`
	Status  *string          `json:"status,omitempty"`
}

func (r UpdateDecisionRequest) ToDomain() domain.DecisionUpdate {
	var u domain.DecisionUpdate
	u.Amount = r.Amount
	if r.Cadence != nil {
		c := domain.DecisionCadence(*r.Cadence)
		u.Cadence = &c
	}
	if r.Status != nil {
		s := domain.DecisionStatus(*r.Status)
		u.Status = &s
	}
	return u
}

type PledgeResponse struct {
	ID                    uuid.UUID `json:"id"`
	ContactID             uuid.UUID `json:"contact_id"`
	Amount                string    `json:"amount"`
	Frequency             string    `json:"frequency"`
	FrequencyLabel        string    `json:"frequency_display"`
	Status                string    `json:"status"`
	StartDate             string    `json:"start_date"`
	EndDate               *string   `json:"end_date"`
	LastFulfilledDate     *string   `json:"last_fulfilled_date"`
	NextExpectedDate      *string   `json:"next_expected_date"`
	TotalExpected         string    `json:"total_expected"`
	TotalReceived         string    `json:"total_received"`
	IsLate                bool      `json:"is_late"`
	DaysLate              int       `json:"days_late"`
	MonthlyEquivalent     string    `json:"monthly_equivalent"`
	FulfillmentPercentage string    `json:"fulfillment_percentage"`
	Notes                 string    `json:"notes"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func NewPledgeResponse(p *domain.Pledge) PledgeResponse {
	return PledgeResponse{
		ID:                    p.ID,
		ContactID:             p.ContactID,
		Amount:                p.Amount.StringFixed(2),
		Frequency:             string(p.Cadence),
		FrequencyLabel:        p.Cadence.Label(),
		Status:                string(p.Status),
		StartDate:             p.StartDate.Format(DateLayout),
		EndDate:               formatDate(p.EndDate),
		LastFulfilledDate:     formatDate(p.LastFulfilledDate),
		NextExpectedDate:      formatDate(p.NextExpectedDate),
		TotalExpected:         p.TotalExpected.StringFixed(2),
		TotalReceived:         p.TotalReceived.StringFixed(2),
		IsLate:                p.IsLate,
		DaysLate:              p.DaysLate,
		MonthlyEquivalent:     p.MonthlyEquivalent().StringFixed(2),
		FulfillmentPercentage: p.FulfillmentPercentage().StringFixed(2),
		Notes:                 p.Notes,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func NewPledgeList(pledges []domain.Pledge) []PledgeResponse {
	out := make([]PledgeResponse, 0, len(pledges))
	for i := range pledges {
		out = append(out, NewPledgeResponse(&pledges[i]))
	}
	return out
}

type PledgeSummaryResponse struct {
	ActiveCount  int    `json:"active_count"`
	LateCount    int    `json:"late_count"`
	TotalMonthly string `json:"total_monthly"`
	TotalAnnual  string `json:"total_annual"`
}

type DonationResponse struct {
	ID            uuid.UUID       `json:"id"`
	ContactID     uuid.UUID       `json:"contact_id"`
	PledgeID      *uuid.UUID      `json:"pledge_id"`
	Amount        string          `json:"amount"`
	Date          string          `json:"date"`
	DonationType  string          `json:"donation_type"`
	PaymentMethod string          `json:"payment_method"`
	ExternalID    string          `json:"external_id,omitempty"`
	Thanked       bool            `json:"thanked"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	Pledge        *PledgeResponse `json:"pledge,omitempty"`
}

func NewDonationResponse(d *domain.Donation, p *domain.Pledge) DonationResponse {
	resp := DonationResponse{
		ID:            d.ID,
		ContactID:     d.ContactID,
		PledgeID:      d.PledgeID,
		Amount:        d.Amount.StringFixed(2),
		Date:          d.Date.Format(DateLayout),
		DonationType:  string(d.Type),
		PaymentMethod: string(d.PaymentMethod),
		ExternalID:    d.ExternalID,
		Thanked:       d.Thanked,
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt,
	}
	if p != nil {
		pr := NewPledgeResponse(p)
		resp.Pledge = &pr
	}
	return resp
}

type JournalResponse struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Name       string    `json:"name"`
	GoalAmount string    `json:"goal_amount"`
	Deadline   *string   `json:"deadline"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewJournalResponse(j *domain.Journal) JournalResponse {
	return JournalResponse{
		ID:         j.ID,
		OwnerID:    j.OwnerID,
		Name:       j.Name,
		GoalAmount: j.GoalAmount.StringFixed(2),
		Deadline:   formatDate(j.Deadline),
		CreatedAt:  j.CreatedAt,
	}
}

type JournalContactResponse struct {
	ID        uuid.UUID `json:"id"`
	JournalID uuid.UUID `json:"journal_id"`
	ContactID uuid.UUID `json:"contact_id"`
	CreatedAt time.Time `json:"created_at"`
}

type DecisionResponse struct {
	ID                uuid.UUID  `json:"id"`
	JournalContactID  uuid.UUID  `json:"journal_contact_id"`
	Amount            string     `json:"amount"`
	Cadence           string     `json:"cadence"`
	Status            string     `json:"status"`
	MonthlyEquivalent string     `json:"monthly_equivalent"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	HistoryID         *uuid.UUID `json:"history_id,omitempty"`
}

func NewDecisionResponse(d *domain.Decision) DecisionResponse {
	return DecisionResponse{
		ID:                d.ID,
		JournalContactID:  d.JournalContactID,
		Amount:            d.Amount.StringFixed(2),
		Cadence:           string(d.Cadence),
		Status:            string(d.Status),
		MonthlyEquivalent: d.MonthlyEquivalent().StringFixed(2),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type DecisionHistoryResponse struct {
	ID            uuid.UUID         `json:"id"`
	DecisionID    uuid.UUID         `json:"decision_id"`
	ChangedFields map[string]string `json:"changed_fields"`
	ChangedBy     *uuid.UUID        `json:"changed_by"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Page is a paginated list envelope.
type Page[T any] struct {
	Count    int `json:"count"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Results  []T `json:"results"`
}

func NewHistoryPage(items []domain.DecisionHistory, total, page, pageSize int) Page[DecisionHistoryResponse] {
	out := Page[DecisionHistoryResponse]{
		Count:    total,
		Page:     page,
		PageSize: pageSize,
		Results:  make([]DecisionHistoryResponse, 0, len(items)),
	}
	for _, h := range items {
		out.Results = append(out.Results, DecisionHistoryResponse{
			ID:            h.ID,
			DecisionID:    h.DecisionID,
			ChangedFields: h.ChangedFields,
			ChangedBy:     h.ChangedBy,
			CreatedAt:     h.CreatedAt,
		})
	}
	return out
}

type StageEventResponse struct {
	ID               uuid.UUID      `json:"id"`
	JournalContactID uuid.UUID      `json:"journal_contact_id"`
	Stage            string         `json:"stage"`
	EventType        string         `json:"event_type"`
	Notes            string         `json:"notes"`
	Metadata         map[string]any `json:"metadata"`
	TriggeredBy      *uuid.UUID     `json:"triggered_by"`
	CreatedAt        time.Time      `json:"created_at"`
}

func NewStageEventResponse(e *domain.StageEvent) StageEventResponse {
	return StageEventResponse{
		ID:               e.ID,
		JournalContactID: e.JournalContactID,
		Stage:            string(e.Stage),
		EventType:        string(e.Type),
		Notes:            e.Notes,
		Metadata:         e.Metadata,
		TriggeredBy:      e.TriggeredBy,
		CreatedAt:        e.CreatedAt,
	}
}

func NewStageEventPage(items []domain.StageEvent, total, page, pageSize int) Page[StageEventResponse] {
	out := Page[StageEventResponse]{
		Count:    total,
		Page:     page,
		PageSize: pageSize,
		Results:  make([]StageEventResponse, 0, len(items)),
	}
	for i := range items {
		out.Results = append(out.Results, NewStageEventResponse(&items[i]))
	}
	return out
}

type SweepResponse struct {
	Checked   int `json:"checked"`
	Updated   int `json:"updated"`
	NewlyLate int `json:"newly_late"`
	Failed    int `json:"failed"`
}

// ParseDate reads a YYYY-MM-DD date. An empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
