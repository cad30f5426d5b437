package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/matkukla/DonorCRM/internal/domain"
	"github.com/matkukla/DonorCRM/internal/store"
)

type LogStageEventInput struct {
	JournalContactID uuid.UUID
	Stage            domain.PipelineStage
	Type             domain.StageEventType
	Notes            string
	Metadata         map[string]any
	TriggeredBy      *uuid.UUID
}

// LogStageEvent appends a stage event for a journal contact and notifies the
// journal owner. Both rows commit together.
func (s *DecisionService) LogStageEvent(ctx context.Context, in LogStageEventInput) (*domain.StageEvent, error) {
	e, err := domain.NewStageEvent(in.JournalContactID, in.Stage, in.Type, in.Notes, in.Metadata, in.TriggeredBy)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(q store.Querier) error {
		jc, err := q.GetJournalContact(ctx, e.JournalContactID)
		if err != nil {
			return fmt.Errorf("journal contact lookup failed: %w", err)
		}
		j, err := q.GetJournal(ctx, jc.JournalID)
		if err != nil {
			return fmt.Errorf("journal lookup failed: %w", err)
		}
		if err := q.CreateStageEvent(ctx, e); err != nil {
			return err
		}

		message := e.Notes
		if r := []rune(message); len(r) > 200 {
			message = string(r[:200])
		}
		return q.CreateEvent(ctx, &domain.Event{
			ID:        uuid.New(),
			UserID:    j.OwnerID,
			Type:      domain.EventStageActivity,
			Severity:  domain.SeverityInfo,
			Title:     fmt.Sprintf("%s: %s", e.Stage.Label(), e.Type.Label()),
			Message:   message,
			ContactID: &jc.ContactID,
			Metadata: map[string]any{
				"journal_id":         j.ID.String(),
				"journal_contact_id": jc.ID.String(),
				"stage":              string(e.Stage),
				"event_type":         string(e.Type),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	stageEventsLogged.WithLabelValues(string(e.Stage)).Inc()
	log.WithFields(log.Fields{
		"journal_contact_id": e.JournalContactID,
		"stage":              e.Stage,
		"event_type":         e.Type,
	}).Debug("stage event logged")
	return e, nil
}

type StageEventPage struct {
	Items    []domain.StageEvent
	Total    int
	Page     int
	PageSize int
}

// ListStageEvents pages through a journal contact's stage events, newest
// first. An empty stage lists every stage.
func (s *DecisionService) ListStageEvents(ctx context.Context, journalContactID uuid.UUID, stage domain.PipelineStage, page, pageSize int) (*StageEventPage, error) {
	if stage != "" && !stage.Valid() {
		return nil, fmt.Errorf("%w: unknown stage %q", domain.ErrValidation, stage)
	}
	page, pageSize = clampPage(page, pageSize)
	if _, err := s.repo.GetJournalContact(ctx, journalContactID); err != nil {
		return nil, err
	}
	items, total, err := s.repo.ListStageEvents(ctx, journalContactID, stage, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("stage event listing failed: %w", err)
	}
	if items == nil {
		items = []domain.StageEvent{}
	}
	return &StageEventPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}
