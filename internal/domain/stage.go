package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PipelineStage is one step of the six-stage engagement pipeline a journal
// contact moves through.
type PipelineStage string

const (
	StageContact   PipelineStage = "contact"
	StageMeet      PipelineStage = "meet"
	StageClose     PipelineStage = "close"
	StageDecision  PipelineStage = "decision"
	StageThank     PipelineStage = "thank"
	StageNextSteps PipelineStage = "next_steps"
)

func (s PipelineStage) Valid() bool {
	switch s {
	case StageContact, StageMeet, StageClose, StageDecision, StageThank, StageNextSteps:
		return true
	}
	return false
}

type StageEventType string

const (
	StageCallLogged        StageEventType = "call_logged"
	StageEmailSent         StageEventType = "email_sent"
	StageTextSent          StageEventType = "text_sent"
	StageLetterSent        StageEventType = "letter_sent"
	StageMeetingScheduled  StageEventType = "meeting_scheduled"
	StageMeetingCompleted  StageEventType = "meeting_completed"
	StageAskMade           StageEventType = "ask_made"
	StageFollowUpScheduled StageEventType = "follow_up_scheduled"
	StageFollowUpCompleted StageEventType = "follow_up_completed"
	StageDecisionReceived  StageEventType = "decision_received"
	StageThankYouSent      StageEventType = "thank_you_sent"
	StageNextStepCreated   StageEventType = "next_step_created"
	StageNoteAdded         StageEventType = "note_added"
	StageOther             StageEventType = "other"
)

func (t StageEventType) Valid() bool {
	switch t {
	case StageCallLogged, StageEmailSent, StageTextSent, StageLetterSent,
		StageMeetingScheduled, StageMeetingCompleted, StageAskMade,
		StageFollowUpScheduled, StageFollowUpCompleted, StageDecisionReceived,
		StageThankYouSent, StageNextStepCreated, StageNoteAdded, StageOther:
		return true
	}
	return false
}

// label turns "follow_up_scheduled" into "Follow Up Scheduled".
func label(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (s PipelineStage) Label() string  { return label(string(s)) }
func (t StageEventType) Label() string { return label(string(t)) }

// StageEvent is an append-only record of activity for a journal contact at
// one pipeline stage. Rows are never updated.
type StageEvent struct {
	ID               uuid.UUID
	JournalContactID uuid.UUID
	Stage            PipelineStage
	Type             StageEventType
	Notes            string
	Metadata         map[string]any
	TriggeredBy      *uuid.UUID
	CreatedAt        time.Time
}

func NewStageEvent(journalContactID uuid.UUID, stage PipelineStage, typ StageEventType, notes string, metadata map[string]any, triggeredBy *uuid.UUID) (*StageEvent, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: unknown stage %q", ErrValidation, stage)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown stage event type %q", ErrValidation, typ)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &StageEvent{
		ID:               uuid.New(),
		JournalContactID: journalContactID,
		Stage:            stage,
		Type:             typ,
		Notes:            notes,
		Metadata:         metadata,
		TriggeredBy:      triggeredBy,
	}, nil
}
