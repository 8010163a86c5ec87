package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

// Memory is a mutex-guarded in-memory Store. It backs tests and local
// development; production uses the JetStream store.
type Memory struct {
	mu sync.RWMutex

	conversations map[string]*model.Conversation
	messages      map[string][]model.Message

	users         map[string]*model.UserProfile
	ledger        []model.LedgerEntry
	maintenance   []model.MaintenanceRequest
	plans         []model.PaymentPlan
	properties    map[string]*model.Property
	notifications []model.Notification
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]model.Message),
		users:         make(map[string]*model.UserProfile),
		properties:    make(map[string]*model.Property),
	}
}

func (m *Memory) GetConversation(_ context.Context, id string) (*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *conv
	return &c, nil
}

func (m *Memory) PutConversation(_ context.Context, conv *model.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *conv
	m.conversations[conv.ID] = &c
	return nil
}

func (m *Memory) UpdateConversation(_ context.Context, id string, mutate func(*model.Conversation) error) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := mutate(conv); err != nil {
		return nil, err
	}
	c := *conv
	return &c, nil
}

func (m *Memory) AppendMessage(_ context.Context, conversationID string, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}

	// Message write and counter bump share the critical section, so a
	// reader never observes one without the other.
	stored := *msg
	stored.ConversationID = conversationID
	stored.Sequence = uint64(len(m.messages[conversationID]) + 1)
	m.messages[conversationID] = append(m.messages[conversationID], stored)

	conv.MessageCount++
	conv.UpdatedAt = stored.CreatedAt

	msg.Sequence = stored.Sequence
	return nil
}

func (m *Memory) Messages(_ context.Context, conversationID string, limit int) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}

	msgs := m.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *Memory) ConversationsForUser(_ context.Context, userID string, limit int) ([]model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Conversation
	for _, conv := range m.conversations {
		if conv.UserID == userID {
			out = append(out, *conv)
		}
	}
	sortByUpdatedDesc(out)
	return clip(out, limit), nil
}

func (m *Memory) EscalatedConversations(_ context.Context, limit int) ([]model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Conversation
	for _, conv := range m.conversations {
		if conv.Status == model.StatusEscalated {
			out = append(out, *conv)
		}
	}
	sortByUpdatedDesc(out)
	return clip(out, limit), nil
}

func (m *Memory) User(_ context.Context, id string) (*model.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *Memory) UsersByRole(_ context.Context, role model.UserRole) ([]model.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.UserProfile
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) LedgerForTenant(_ context.Context, tenantID string, since time.Time) ([]model.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.LedgerEntry
	for _, e := range m.ledger {
		if e.TenantID == tenantID && !e.Date.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *Memory) LedgerBetween(_ context.Context, from, to time.Time) ([]model.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.LedgerEntry
	for _, e := range m.ledger {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) OverdueLedger(_ context.Context) ([]model.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.LedgerEntry
	for _, e := range m.ledger {
		if e.Status == "overdue" {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) AppendLedgerEntry(_ context.Context, entry *model.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ledger = append(m.ledger, *entry)
	return nil
}

func (m *Memory) MaintenanceForTenant(_ context.Context, tenantID string, limit int) ([]model.MaintenanceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.MaintenanceRequest
	for _, r := range m.maintenance {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return clipReq(out, limit), nil
}

func (m *Memory) MaintenanceByStatus(_ context.Context, statuses []string, limit int) ([]model.MaintenanceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	var out []model.MaintenanceRequest
	for _, r := range m.maintenance {
		if len(want) == 0 || want[r.Status] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return clipReq(out, limit), nil
}

func (m *Memory) CreateMaintenanceRequest(_ context.Context, req *model.MaintenanceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maintenance = append(m.maintenance, *req)
	return nil
}

func (m *Memory) ActivePaymentPlan(_ context.Context, tenantID string) (*model.PaymentPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.plans {
		if m.plans[i].TenantID == tenantID && m.plans[i].Status == "active" {
			c := m.plans[i]
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Properties(_ context.Context) ([]model.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Property, 0, len(m.properties))
	for _, p := range m.properties {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Property(_ context.Context, id string) (*model.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.properties[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *Memory) CreateNotification(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifications = append(m.notifications, *n)
	return nil
}

// Seed helpers for tests and local fixtures.

func (m *Memory) SeedUser(u model.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = &u
}

func (m *Memory) SeedLedger(entries ...model.LedgerEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = append(m.ledger, entries...)
}

func (m *Memory) SeedMaintenance(reqs ...model.MaintenanceRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maintenance = append(m.maintenance, reqs...)
}

func (m *Memory) SeedPaymentPlan(p model.PaymentPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append(m.plans, p)
}

func (m *Memory) SeedProperty(p model.Property) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[p.ID] = &p
}

// Notifications returns a copy of all notifications, for assertions.
func (m *Memory) Notifications() []model.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// MaintenanceCount returns the total number of tickets, for assertions.
func (m *Memory) MaintenanceCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.maintenance)
}

// LedgerCount returns the total number of ledger entries, for assertions.
func (m *Memory) LedgerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ledger)
}

func sortByUpdatedDesc(convs []model.Conversation) {
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
}

func clip(convs []model.Conversation, limit int) []model.Conversation {
	if limit > 0 && len(convs) > limit {
		return convs[:limit]
	}
	return convs
}

func clipReq(reqs []model.MaintenanceRequest, limit int) []model.MaintenanceRequest {
	if limit > 0 && len(reqs) > limit {
		return reqs[:limit]
	}
	return reqs
}
