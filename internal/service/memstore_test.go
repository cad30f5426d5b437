package service

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matkukla/DonorCRM/internal/domain"
	"github.com/matkukla/DonorCRM/internal/store"
)

// memStore is an in-memory Repository. WithTx serializes transactions and
// restores a snapshot when fn fails, which is enough to observe atomicity.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users     map[uuid.UUID]domain.User
	contacts  map[uuid.UUID]domain.Contact
	journals  map[uuid.UUID]domain.Journal
	members   map[uuid.UUID]domain.JournalContact
	pledges   map[uuid.UUID]domain.Pledge
	donations map[uuid.UUID]domain.Donation
	decisions map[uuid.UUID]domain.Decision
	history   []domain.DecisionHistory
	stages    []domain.StageEvent
	events    []domain.Event

	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]domain.User{},
		contacts:  map[uuid.UUID]domain.Contact{},
		journals:  map[uuid.UUID]domain.Journal{},
		members:   map[uuid.UUID]domain.JournalContact{},
		pledges:   map[uuid.UUID]domain.Pledge{},
		donations: map[uuid.UUID]domain.Donation{},
		decisions: map[uuid.UUID]domain.Decision{},
		failOn:    map[string]error{},
	}
}

type memSnapshot struct {
	users     map[uuid.UUID]domain.User
	contacts  map[uuid.UUID]domain.Contact
	journals  map[uuid.UUID]domain.Journal
	members   map[uuid.UUID]domain.JournalContact
	pledges   map[uuid.UUID]domain.Pledge
	donations map[uuid.UUID]domain.Donation
	decisions map[uuid.UUID]domain.Decision
	history   []domain.DecisionHistory
	stages    []domain.StageEvent
	events    []domain.Event
}

func (m *memStore) WithTx(ctx context.Context, fn func(q store.Querier) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := memSnapshot{
		users:     maps.Clone(m.users),
		contacts:  maps.Clone(m.contacts),
		journals:  maps.Clone(m.journals),
		members:   maps.Clone(m.members),
		pledges:   maps.Clone(m.pledges),
		donations: maps.Clone(m.donations),
		decisions: maps.Clone(m.decisions),
		history:   slices.Clone(m.history),
		stages:    slices.Clone(m.stages),
		events:    slices.Clone(m.events),
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.users, m.contacts, m.journals, m.members = snap.users, snap.contacts, snap.journals, snap.members
		m.pledges, m.donations, m.decisions = snap.pledges, snap.donations, snap.decisions
		m.history, m.stages, m.events = snap.history, snap.stages, snap.events
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) fail(op string) error {
	return m.failOn[op]
}

func (m *memStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) CreateContact(_ context.Context, c *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Status == "" {
		c.Status = domain.ContactProspect
	}
	m.contacts[c.ID] = *c
	return nil
}

func (m *memStore) GetContact(_ context.Context, id uuid.UUID) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *memStore) RefreshGivingStats(_ context.Context, contactID uuid.UUID, needsThankYou bool) (*domain.Contact, error) {
	if err := m.fail("RefreshGivingStats"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[contactID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	var gifts []domain.Donation
	for _, d := range m.donations {
		if d.ContactID == contactID {
			gifts = append(gifts, d)
		}
	}
	sort.Slice(gifts, func(i, j int) bool { return gifts[i].Date.Before(gifts[j].Date) })

	c.TotalGiven = decimal.Zero
	c.GiftCount = len(gifts)
	for _, d := range gifts {
		c.TotalGiven = c.TotalGiven.Add(d.Amount)
	}
	if len(gifts) > 0 {
		first, last := gifts[0], gifts[len(gifts)-1]
		c.FirstGiftDate = &first.Date
		c.LastGiftDate = &last.Date
		c.LastGiftAmount = &last.Amount
		if c.Status == domain.ContactProspect {
			c.Status = domain.ContactDonor
		}
	}
	c.NeedsThankYou = c.NeedsThankYou || needsThankYou
	m.contacts[contactID] = c
	return &c, nil
}

func (m *memStore) CreateJournal(_ context.Context, j *domain.Journal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journals[j.ID] = *j
	return nil
}

func (m *memStore) CreateJournalContact(_ context.Context, jc *domain.JournalContact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.journals[jc.JournalID]; !ok {
		return domain.ErrNotFound
	}
	for _, existing := range m.members {
		if existing.JournalID == jc.JournalID && existing.ContactID == jc.ContactID {
			return domain.ErrDuplicateMembership
		}
	}
	m.members[jc.ID] = *jc
	return nil
}

func (m *memStore) GetJournal(_ context.Context, id uuid.UUID) (*domain.Journal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.journals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &j, nil
}

func (m *memStore) GetJournalContact(_ context.Context, id uuid.UUID) (*domain.JournalContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	jc, ok := m.members[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &jc, nil
}

func (m *memStore) CreatePledge(_ context.Context, p *domain.Pledge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[p.ContactID]; !ok {
		return domain.ErrNotFound
	}
	m.pledges[p.ID] = *p
	return nil
}

func (m *memStore) GetPledge(_ context.Context, id uuid.UUID) (*domain.Pledge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pledges[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) LockPledge(ctx context.Context, id uuid.UUID) (*domain.Pledge, error) {
	if err := m.fail("LockPledge:" + id.String()); err != nil {
		return nil, err
	}
	return m.GetPledge(ctx, id)
}

func (m *memStore) UpdatePledge(_ context.Context, p *domain.Pledge) error {
	if err := m.fail("UpdatePledge"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pledges[p.ID]; !ok {
		return domain.ErrNotFound
	}
	m.pledges[p.ID] = *p
	return nil
}

func (m *memStore) ListActivePledgeIDs(_ context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id, p := range m.pledges {
		if p.Status == domain.PledgeActive {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return ids, nil
}

func (m *memStore) ListPledges(_ context.Context, filter store.PledgeFilter) ([]domain.Pledge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Pledge
	for _, p := range m.pledges {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.LateOnly && !p.IsLate {
			continue
		}
		if filter.ContactID != nil && p.ContactID != *filter.ContactID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) CreateDonation(_ context.Context, d *domain.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ExternalID != "" {
		for _, existing := range m.donations {
			if existing.ExternalID == d.ExternalID {
				return domain.ErrDuplicateDonation
			}
		}
	}
	m.donations[d.ID] = *d
	return nil
}

func (m *memStore) CreateDecision(_ context.Context, d *domain.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.decisions {
		if existing.JournalContactID == d.JournalContactID {
			return domain.ErrDuplicateDecision
		}
	}
	m.decisions[d.ID] = *d
	return nil
}

func (m *memStore) GetDecision(_ context.Context, id uuid.UUID) (*domain.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.decisions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (m *memStore) LockDecision(ctx context.Context, id uuid.UUID) (*domain.Decision, error) {
	return m.GetDecision(ctx, id)
}

func (m *memStore) UpdateDecision(_ context.Context, d *domain.Decision) error {
	if err := m.fail("UpdateDecision"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[d.ID] = *d
	return nil
}

func (m *memStore) CreateDecisionHistory(_ context.Context, h *domain.DecisionHistory) error {
	if err := m.fail("CreateDecisionHistory"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, *h)
	return nil
}

func (m *memStore) ListDecisionHistory(_ context.Context, decisionID uuid.UUID, limit, offset int) ([]domain.DecisionHistory, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []domain.DecisionHistory
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].DecisionID == decisionID {
			rows = append(rows, m.history[i])
		}
	}
	total := len(rows)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return rows[offset:end], total, nil
}

func (m *memStore) CreateStageEvent(_ context.Context, e *domain.StageEvent) error {
	if err := m.fail("CreateStageEvent"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[e.JournalContactID]; !ok {
		return domain.ErrNotFound
	}
	m.stages = append(m.stages, *e)
	return nil
}

func (m *memStore) ListStageEvents(_ context.Context, journalContactID uuid.UUID, stage domain.PipelineStage, limit, offset int) ([]domain.StageEvent, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []domain.StageEvent
	for i := len(m.stages) - 1; i >= 0; i-- {
		e := m.stages[i]
		if e.JournalContactID == journalContactID && (stage == "" || e.Stage == stage) {
			rows = append(rows, e)
		}
	}
	total := len(rows)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return rows[offset:end], total, nil
}

func (m *memStore) CreateEvent(_ context.Context, e *domain.Event) error {
	if err := m.fail("CreateEvent"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *memStore) eventsOfType(t domain.EventType) []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) historyFor(decisionID uuid.UUID) []domain.DecisionHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DecisionHistory
	for _, h := range m.history {
		if h.DecisionID == decisionID {
			out = append(out, h)
		}
	}
	return out
}

var _ Repository = (*memStore)(nil)
