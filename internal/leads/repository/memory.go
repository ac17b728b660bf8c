package repository

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/platform/apperr"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process LeadsRepository used by tests and local tooling.
type MemoryRepository struct {
	mu          sync.RWMutex
	submissions []domain.StepSubmission
	profiles    map[uuid.UUID]domain.LeadProfile
	scores      map[uuid.UUID]LeadScore
	now         func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		profiles: make(map[uuid.UUID]domain.LeadProfile),
		scores:   make(map[uuid.UUID]LeadScore),
		now:      time.Now,
	}
}

func (m *MemoryRepository) CreateSubmission(_ context.Context, sub domain.StepSubmission) (domain.StepSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = m.now()
	}
	sub.SubmissionData = copyMap(sub.SubmissionData)
	m.submissions = append(m.submissions, sub)
	return sub, nil
}

func (m *MemoryRepository) ListSessionSubmissions(_ context.Context, funnelID uuid.UUID, sessionID string) ([]domain.StepSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.StepSubmission, 0)
	for _, s := range m.submissions {
		if s.FunnelID == funnelID && s.SessionID == sessionID {
			s.SubmissionData = copyMap(s.SubmissionData)
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) GetProfile(_ context.Context, ownerID, leadID uuid.UUID) (domain.LeadProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[leadID]
	if !ok || p.OwnerID != ownerID {
		return domain.LeadProfile{}, apperr.NotFound(leadNotFoundMsg)
	}
	return cloneProfile(p), nil
}

func (m *MemoryRepository) FindProfileByEmail(_ context.Context, ownerID uuid.UUID, email string) (domain.LeadProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, p := range m.profiles {
		if p.OwnerID == ownerID && p.Email == email {
			return cloneProfile(p), nil
		}
	}
	return domain.LeadProfile{}, apperr.NotFound(leadNotFoundMsg)
}

func (m *MemoryRepository) UpsertProfile(_ context.Context, profile domain.LeadProfile) (domain.LeadProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile.Email = strings.ToLower(profile.Email)
	now := m.now()

	for id, existing := range m.profiles {
		if existing.OwnerID == profile.OwnerID && existing.Email == profile.Email {
			profile.ID = id
			profile.CreatedAt = existing.CreatedAt
			profile.UpdatedAt = now
			m.profiles[id] = cloneProfile(profile)
			return cloneProfile(profile), nil
		}
	}

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now
	m.profiles[profile.ID] = cloneProfile(profile)
	return cloneProfile(profile), nil
}

func (m *MemoryRepository) ListLeads(_ context.Context, params ListParams) ([]LeadWithScore, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(params.Search))
	matched := make([]LeadWithScore, 0)
	for _, p := range m.profiles {
		if p.OwnerID != params.OwnerID {
			continue
		}
		if params.CreatedAfter != nil && p.CreatedAt.Before(*params.CreatedAfter) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Email+" "+p.Name+" "+p.Company), search) {
			continue
		}
		item := LeadWithScore{Profile: cloneProfile(p)}
		if s, ok := m.scores[p.ID]; ok {
			s := s
			item.Score = &s
		}
		if params.Qualification != "" && (item.Score == nil || string(item.Score.Result.Qualification) != params.Qualification) {
			continue
		}
		matched = append(matched, item)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less, equal bool
		switch params.SortBy {
		case SortByScore:
			sa, sb := scoreOf(a), scoreOf(b)
			less, equal = sa < sb, sa == sb
		case SortByUpdatedAt:
			less, equal = a.Profile.UpdatedAt.Before(b.Profile.UpdatedAt), a.Profile.UpdatedAt.Equal(b.Profile.UpdatedAt)
		default:
			less, equal = a.Profile.CreatedAt.Before(b.Profile.CreatedAt), a.Profile.CreatedAt.Equal(b.Profile.CreatedAt)
		}
		if equal {
			return bytes.Compare(a.Profile.ID[:], b.Profile.ID[:]) < 0
		}
		if params.SortDesc {
			return !less
		}
		return less
	})

	total := len(matched)
	start := min(params.offset(), total)
	end := total
	if params.PageSize > 0 {
		end = min(start+params.PageSize, total)
	}
	return matched[start:end], total, nil
}

func (m *MemoryRepository) ListProfileIDs(_ context.Context, ownerID uuid.UUID, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uuid.UUID, 0)
	for id, p := range m.profiles {
		if p.OwnerID == ownerID && bytes.Compare(id[:], after[:]) > 0 {
			ids = append(ids, id)
		}
	}
	return firstSorted(ids, limit), nil
}

func (m *MemoryRepository) ListOwnerIDs(_ context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, p := range m.profiles {
		if _, ok := seen[p.OwnerID]; ok || bytes.Compare(p.OwnerID[:], after[:]) <= 0 {
			continue
		}
		seen[p.OwnerID] = struct{}{}
		ids = append(ids, p.OwnerID)
	}
	return firstSorted(ids, limit), nil
}

func (m *MemoryRepository) GetLatestScore(_ context.Context, leadID uuid.UUID) (LeadScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scores[leadID]
	if !ok {
		return LeadScore{}, apperr.NotFound("lead has not been scored yet")
	}
	return s, nil
}

func (m *MemoryRepository) SaveScore(_ context.Context, score LeadScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[score.Result.LeadID]; !ok {
		return apperr.NotFound(leadNotFoundMsg)
	}
	m.scores[score.Result.LeadID] = score
	return nil
}

func scoreOf(l LeadWithScore) int {
	if l.Score == nil {
		return 0
	}
	return l.Score.Result.TotalScore
}

func firstSorted(ids []uuid.UUID, limit int) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

func cloneProfile(p domain.LeadProfile) domain.LeadProfile {
	p.CombinedData = copyMap(p.CombinedData)
	return p
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var _ LeadsRepository = (*MemoryRepository)(nil)
