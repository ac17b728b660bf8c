package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/platform/apperr"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and local tooling.
type MemoryRepository struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]domain.ScoringRule
	now   func() time.Time
}

// NewMemory creates an empty in-memory rule repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		rules: make(map[uuid.UUID]domain.ScoringRule),
		now:   time.Now,
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) Get(_ context.Context, ownerID, id uuid.UUID) (domain.ScoringRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.rules[id]
	if !ok || rule.OwnerID != ownerID {
		return domain.ScoringRule{}, apperr.NotFound(ruleNotFoundMsg)
	}
	return rule, nil
}

func (m *MemoryRepository) List(_ context.Context, ownerID uuid.UUID) ([]domain.ScoringRule, error) {
	return m.filter(ownerID, false), nil
}

func (m *MemoryRepository) ListActive(_ context.Context, ownerID uuid.UUID) ([]domain.ScoringRule, error) {
	return m.filter(ownerID, true), nil
}

func (m *MemoryRepository) filter(ownerID uuid.UUID, activeOnly bool) []domain.ScoringRule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ScoringRule, 0)
	for _, r := range m.rules {
		if r.OwnerID != ownerID || (activeOnly && !r.IsActive) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (m *MemoryRepository) Count(_ context.Context, ownerID uuid.UUID) (int, error) {
	return len(m.filter(ownerID, false)), nil
}

func (m *MemoryRepository) Create(_ context.Context, rule domain.ScoringRule) (domain.ScoringRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(rule), nil
}

func (m *MemoryRepository) CreateMany(_ context.Context, rules []domain.ScoringRule) ([]domain.ScoringRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ScoringRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, m.insertLocked(r))
	}
	return out, nil
}

func (m *MemoryRepository) insertLocked(rule domain.ScoringRule) domain.ScoringRule {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	now := m.now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	m.rules[rule.ID] = rule
	return rule
}

func (m *MemoryRepository) Update(_ context.Context, rule domain.ScoringRule) (domain.ScoringRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rules[rule.ID]
	if !ok || existing.OwnerID != rule.OwnerID {
		return domain.ScoringRule{}, apperr.NotFound(ruleNotFoundMsg)
	}
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = m.now()
	m.rules[rule.ID] = rule
	return rule, nil
}

func (m *MemoryRepository) SetActive(_ context.Context, ownerID, id uuid.UUID, active bool) (domain.ScoringRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[id]
	if !ok || rule.OwnerID != ownerID {
		return domain.ScoringRule{}, apperr.NotFound(ruleNotFoundMsg)
	}
	rule.IsActive = active
	rule.UpdatedAt = m.now()
	m.rules[id] = rule
	return rule, nil
}

func (m *MemoryRepository) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[id]
	if !ok || rule.OwnerID != ownerID {
		return apperr.NotFound(ruleNotFoundMsg)
	}
	delete(m.rules, id)
	return nil
}
