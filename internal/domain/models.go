package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the permission level of a staff user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleFinance  Role = "finance"
	RoleReadOnly Role = "read_only"
)

// User is a staff member who owns contacts and journals.
type User struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Role      Role
	CreatedAt time.Time
}

type ContactStatus string

const (
	ContactProspect ContactStatus = "prospect"
	ContactAsked    ContactStatus = "asked"
	ContactDonor    ContactStatus = "donor"
	ContactLapsed   ContactStatus = "lapsed"
	ContactDeclined ContactStatus = "declined"
)

// Contact is a donor or prospect owned by one user. Giving statistics are
// denormalized and recomputed whenever a donation is recorded.
type Contact struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	Status         ContactStatus
	FirstGiftDate  *time.Time
	LastGiftDate   *time.Time
	LastGiftAmount *decimal.Decimal
	TotalGiven     decimal.Decimal
	GiftCount      int
	NeedsThankYou  bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Journal is a fundraising campaign that contacts are enrolled in.
type Journal struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Name       string
	GoalAmount decimal.Decimal
	Deadline   *time.Time
	IsArchived bool
	CreatedAt  time.Time
}

// JournalContact is one contact's membership in one journal.
type JournalContact struct {
	ID        uuid.UUID
	JournalID uuid.UUID
	ContactID uuid.UUID
	CreatedAt time.Time
}

type DonationType string

const (
	DonationOneTime   DonationType = "one_time"
	DonationRecurring DonationType = "recurring"
	DonationSpecial   DonationType = "special"
)

type PaymentMethod string

const (
	PaymentCheck        PaymentMethod = "check"
	PaymentCash         PaymentMethod = "cash"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOther        PaymentMethod = "other"
)

// Donation is a single gift, optionally applied to a pledge.
type Donation struct {
	ID            uuid.UUID
	ContactID     uuid.UUID
	PledgeID      *uuid.UUID
	Amount        decimal.Decimal
	Date          time.Time
	Type          DonationType
	PaymentMethod PaymentMethod
	ExternalID    string
	Thanked       bool
	Notes         string
	CreatedAt     time.Time
}

type EventType string

const (
	EventDonationReceived EventType = "donation_received"
	EventFirstDonation    EventType = "first_donation"
	EventPledgeCreated    EventType = "pledge_created"
	EventPledgeUpdated    EventType = "pledge_updated"
	EventPledgeLate       EventType = "pledge_late"
	EventPledgeCancelled  EventType = "pledge_cancelled"
	EventStageActivity    EventType = "journal_stage_event"
)

type EventSeverity string

const (
	SeverityInfo    EventSeverity = "info"
	SeveritySuccess EventSeverity = "success"
	SeverityWarning EventSeverity = "warning"
	SeverityAlert   EventSeverity = "alert"
)

// Event is a notification feed entry addressed to one user.
type Event struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      EventType
	Severity  EventSeverity
	Title     string
	Message   string
	ContactID *uuid.UUID
	Metadata  map[string]any
	IsNew     bool
	CreatedAt time.Time
}
