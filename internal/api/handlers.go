package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/matkukla/DonorCRM/internal/domain"
	"github.com/matkukla/DonorCRM/internal/models"
	"github.com/matkukla/DonorCRM/internal/service"
)

// UserHeader carries the id of the staff user making the request.
const UserHeader = "X-User-ID"

type PledgeService interface {
	CreatePledge(ctx context.Context, in service.CreatePledgeInput) (*domain.Pledge, error)
	GetPledge(ctx context.Context, id uuid.UUID) (*domain.Pledge, error)
	Transition(ctx context.Context, id uuid.UUID, action domain.PledgeAction) (*domain.Pledge, error)
	RecordDonation(ctx context.Context, in service.RecordDonationInput) (*service.DonationResult, error)
	SweepLatePledges(ctx context.Context) (service.SweepResult, error)
	ListLatePledges(ctx context.Context) ([]domain.Pledge, error)
	Summary(ctx context.Context, contactID *uuid.UUID) (*service.PledgeSummary, error)
}

type DecisionService interface {
	CreateJournal(ctx context.Context, in service.CreateJournalInput) (*domain.Journal, error)
	AddJournalContact(ctx context.Context, journalID, contactID uuid.UUID) (*domain.JournalContact, error)
	CreateDecision(ctx context.Context, in service.CreateDecisionInput) (*domain.Decision, error)
	GetDecision(ctx context.Context, id uuid.UUID) (*domain.Decision, error)
	UpdateDecision(ctx context.Context, id uuid.UUID, u domain.DecisionUpdate, actor *uuid.UUID) (*service.UpdateDecisionResult, error)
	ListHistory(ctx context.Context, decisionID uuid.UUID, page, pageSize int) (*service.HistoryPage, error)
	LogStageEvent(ctx context.Context, in service.LogStageEventInput) (*domain.StageEvent, error)
	ListStageEvents(ctx context.Context, journalContactID uuid.UUID, stage domain.PipelineStage, page, pageSize int) (*service.StageEventPage, error)
}

type Handler struct {
	pledges   PledgeService
	decisions DecisionService
}

func NewHandler(pledges PledgeService, decisions DecisionService) *Handler {
	return &Handler{pledges: pledges, decisions: decisions}
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CreatePledgeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePledgeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil || start == nil {
		respondWithError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := models.ParseDate(req.EndDate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	p, err := h.pledges.CreatePledge(r.Context(), service.CreatePledgeInput{
		ContactID: req.ContactID,
		Amount:    req.Amount,
		Cadence:   domain.PledgeCadence(req.Frequency),
		StartDate: *start,
		EndDate:   end,
		Notes:     req.Notes,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/pledges/%s", p.ID))
	respondWithJSON(w, http.StatusCreated, models.NewPledgeResponse(p))
}

func (h *Handler) GetPledgeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.pledges.GetPledge(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewPledgeResponse(p))
}

func (h *Handler) PledgeActionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	action := domain.PledgeAction(mux.Vars(r)["action"])
	p, err := h.pledges.Transition(r.Context(), id, action)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewPledgeResponse(p))
}

func (h *Handler) ListLatePledgesHandler(w http.ResponseWriter, r *http.Request) {
	pledges, err := h.pledges.ListLatePledges(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewPledgeList(pledges))
}

func (h *Handler) PledgeSummaryHandler(w http.ResponseWriter, r *http.Request) {
	var contactID *uuid.UUID
	if raw := r.URL.Query().Get("contact_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid contact_id")
			return
		}
		contactID = &id
	}
	sum, err := h.pledges.Summary(r.Context(), contactID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.PledgeSummaryResponse{
		ActiveCount:  sum.ActiveCount,
		LateCount:    sum.LateCount,
		TotalMonthly: sum.TotalMonthly.StringFixed(2),
		TotalAnnual:  sum.TotalAnnual.StringFixed(2),
	})
}

func (h *Handler) CreateDonationHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDonationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil || date == nil {
		respondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	res, err := h.pledges.RecordDonation(r.Context(), service.RecordDonationInput{
		ContactID:     req.ContactID,
		PledgeID:      req.PledgeID,
		Amount:        req.Amount,
		Date:          *date,
		Type:          domain.DonationType(req.DonationType),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		ExternalID:    req.ExternalID,
		Thanked:       req.Thanked,
		Notes:         req.Notes,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, models.NewDonationResponse(res.Donation, res.Pledge))
}

func (h *Handler) RunLateSweepHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.pledges.SweepLatePledges(r.Context())
	if err != nil {
		if res.Checked == 0 && res.Failed == 0 {
			respondWithServiceError(w, r, err)
			return
		}
		log.WithError(err).Warn("late sweep finished with failures")
	}
	respondWithJSON(w, http.StatusOK, models.SweepResponse{
		Checked:   res.Checked,
		Updated:   res.Updated,
		NewlyLate: res.NewlyLate,
		Failed:    res.Failed,
	})
}

func (h *Handler) CreateJournalHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req models.CreateJournalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	deadline, err := models.ParseDate(req.Deadline)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "deadline must be YYYY-MM-DD")
		return
	}

	j, err := h.decisions.CreateJournal(r.Context(), service.CreateJournalInput{
		OwnerID:    owner,
		Name:       req.Name,
		GoalAmount: req.GoalAmount,
		Deadline:   deadline,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, models.NewJournalResponse(j))
}

func (h *Handler) AddJournalContactHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateJournalContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	jc, err := h.decisions.AddJournalContact(r.Context(), req.JournalID, req.ContactID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, models.JournalContactResponse{
		ID:        jc.ID,
		JournalID: jc.JournalID,
		ContactID: jc.ContactID,
		CreatedAt: jc.CreatedAt,
	})
}

func (h *Handler) CreateStageEventHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := userFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+UserHeader+" header")
		return
	}
	var req models.CreateStageEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	e, err := h.decisions.LogStageEvent(r.Context(), service.LogStageEventInput{
		JournalContactID: req.JournalContactID,
		Stage:            domain.PipelineStage(req.Stage),
		Type:             domain.StageEventType(req.EventType),
		Notes:            req.Notes,
		Metadata:         req.Metadata,
		TriggeredBy:      actor,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, models.NewStageEventResponse(e))
}

func (h *Handler) ListStageEventsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid page")
		return
	}
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid page_size")
		return
	}
	stage := domain.PipelineStage(r.URL.Query().Get("stage"))

	sp, err := h.decisions.ListStageEvents(r.Context(), id, stage, page, pageSize)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewStageEventPage(sp.Items, sp.Total, sp.Page, sp.PageSize))
}

func (h *Handler) CreateDecisionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := h.decisions.CreateDecision(r.Context(), service.CreateDecisionInput{
		JournalContactID: req.JournalContactID,
		Amount:           req.Amount,
		Cadence:          domain.DecisionCadence(req.Cadence),
		Status:           domain.DecisionStatus(req.Status),
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/decisions/%s", d.ID))
	respondWithJSON(w, http.StatusCreated, models.NewDecisionResponse(d))
}

func (h *Handler) GetDecisionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.decisions.GetDecision(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewDecisionResponse(d))
}

func (h *Handler) UpdateDecisionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor, err := userFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+UserHeader+" header")
		return
	}
	var req models.UpdateDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.decisions.UpdateDecision(r.Context(), id, req.ToDomain(), actor)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	resp := models.NewDecisionResponse(res.Decision)
	resp.HistoryID = res.HistoryID
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) DecisionHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid page")
		return
	}
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid page_size")
		return
	}

	hp, err := h.decisions.ListHistory(r.Context(), id, page, pageSize)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewHistoryPage(hp.Items, hp.Total, hp.Page, hp.PageSize))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// userFromRequest returns nil when the header is absent.
func userFromRequest(r *http.Request) (*uuid.UUID, error) {
	raw := r.Header.Get(UserHeader)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := userFromRequest(r)
	if err != nil || id == nil {
		respondWithError(w, http.StatusBadRequest, "Missing or invalid "+UserHeader+" header")
		return uuid.Nil, false
	}
	return *id, true
}

func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateDecision),
		errors.Is(err, domain.ErrDuplicateMembership),
		errors.Is(err, domain.ErrDuplicateDonation),
		errors.Is(err, domain.ErrInvalidTransition):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrValidation):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
