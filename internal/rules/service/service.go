package service

import (
	"context"
	"errors"
	"strings"

	"funnel_backend/internal/events"
	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/rules/repository"
	"funnel_backend/internal/rules/transport"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
)

// SnapshotCache stores each owner's active rule list. Set must refuse a
// snapshot when the owner's generation moved past the one it was loaded under.
type SnapshotCache interface {
	Get(ctx context.Context, ownerID uuid.UUID) ([]domain.ScoringRule, bool, error)
	Generation(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Set(ctx context.Context, ownerID uuid.UUID, generation int64, rules []domain.ScoringRule) error
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
}

// Service provides business logic for scoring rules.
type Service struct {
	repo     repository.Repository
	cache    SnapshotCache
	eventBus events.Bus
	log      *logger.Logger
	defaults []byte
}

// Option configures optional collaborators.
type Option func(*Service)

// WithCache serves ListActiveRules from a snapshot cache.
func WithCache(c SnapshotCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithDefaultRules replaces the embedded default rule set.
func WithDefaultRules(yamlDoc []byte) Option {
	return func(s *Service) { s.defaults = yamlDoc }
}

// New creates a new scoring rules service.
func New(repo repository.Repository, eventBus events.Bus, log *logger.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, eventBus: eventBus, log: log, defaults: defaultRulesYAML}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and stores a new rule.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req transport.CreateRuleRequest) (transport.RuleResponse, error) {
	rule := domain.ScoringRule{
		OwnerID:           ownerID,
		Name:              strings.TrimSpace(req.Name),
		RuleType:          domain.RuleType(req.RuleType),
		ConditionOperator: domain.Operator(req.ConditionOperator),
		ConditionValue:    strings.TrimSpace(req.ConditionValue),
		Points:            req.Points,
		IsActive:          true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := rule.Validate(); err != nil {
		return transport.RuleResponse{}, err
	}

	created, err := s.repo.Create(ctx, rule)
	if err != nil {
		return transport.RuleResponse{}, err
	}

	s.log.Info("scoring rule created", "id", created.ID, "ownerId", ownerID, "name", created.Name)
	s.changed(ctx, ownerID, &created.ID, events.RuleActionCreated)
	return toResponse(created), nil
}

// Update applies a partial update. The merged rule is validated as a whole.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, req transport.UpdateRuleRequest) (transport.RuleResponse, error) {
	rule, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return transport.RuleResponse{}, err
	}

	if req.Name != nil {
		rule.Name = strings.TrimSpace(*req.Name)
	}
	if req.RuleType != nil {
		rule.RuleType = domain.RuleType(*req.RuleType)
	}
	if req.ConditionOperator != nil {
		rule.ConditionOperator = domain.Operator(*req.ConditionOperator)
	}
	if req.ConditionValue != nil {
		rule.ConditionValue = strings.TrimSpace(*req.ConditionValue)
	}
	if req.Points != nil {
		rule.Points = *req.Points
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := rule.Validate(); err != nil {
		return transport.RuleResponse{}, err
	}

	updated, err := s.repo.Update(ctx, rule)
	if err != nil {
		return transport.RuleResponse{}, err
	}

	s.log.Info("scoring rule updated", "id", id, "ownerId", ownerID)
	s.changed(ctx, ownerID, &updated.ID, events.RuleActionUpdated)
	return toResponse(updated), nil
}

// Delete removes a rule permanently.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.log.Info("scoring rule deleted", "id", id, "ownerId", ownerID)
	s.changed(ctx, ownerID, &id, events.RuleActionDeleted)
	return nil
}

// Get returns one rule of the owner.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (transport.RuleResponse, error) {
	rule, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return transport.RuleResponse{}, err
	}
	return toResponse(rule), nil
}

// List returns all rules of the owner sorted by name.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) (transport.RuleListResponse, error) {
	rules, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return transport.RuleListResponse{}, err
	}
	return toListResponse(rules), nil
}

// ListActive returns the owner's active rules sorted by name.
func (s *Service) ListActive(ctx context.Context, ownerID uuid.UUID) (transport.RuleListResponse, error) {
	rules, err := s.ListActiveRules(ctx, ownerID)
	if err != nil {
		return transport.RuleListResponse{}, err
	}
	return toListResponse(rules), nil
}

// ListActiveRules returns a snapshot of the owner's active rules for scoring.
// Cache failures are logged and the database is used instead.
func (s *Service) ListActiveRules(ctx context.Context, ownerID uuid.UUID) ([]domain.ScoringRule, error) {
	log := s.log.WithContext(ctx)
	refill := false
	var generation int64
	if s.cache != nil {
		rules, ok, err := s.cache.Get(ctx, ownerID)
		if err != nil {
			log.Warn("rule cache read failed", "ownerId", ownerID, "error", err)
		} else if ok {
			return rules, nil
		}
		if generation, err = s.cache.Generation(ctx, ownerID); err != nil {
			log.Warn("rule cache generation read failed", "ownerId", ownerID, "error", err)
		} else {
			refill = true
		}
	}

	rules, err := s.repo.ListActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if refill {
		err := s.cache.Set(ctx, ownerID, generation, rules)
		switch {
		case errors.Is(err, repository.ErrStaleSnapshot):
			log.Debug("rule cache refill skipped, rules changed meanwhile", "ownerId", ownerID)
		case err != nil:
			log.Warn("rule cache write failed", "ownerId", ownerID, "error", err)
		}
	}
	return append([]domain.ScoringRule(nil), rules...), nil
}

// ToggleActive flips the is_active flag of a rule.
func (s *Service) ToggleActive(ctx context.Context, ownerID, id uuid.UUID) (transport.RuleResponse, error) {
	rule, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return transport.RuleResponse{}, err
	}

	updated, err := s.repo.SetActive(ctx, ownerID, id, !rule.IsActive)
	if err != nil {
		return transport.RuleResponse{}, err
	}

	s.log.Info("scoring rule active toggled", "id", id, "ownerId", ownerID, "isActive", updated.IsActive)
	s.changed(ctx, ownerID, &id, events.RuleActionToggled)
	return toResponse(updated), nil
}

// SeedDefaults installs the default rule set for an owner that has no rules yet.
func (s *Service) SeedDefaults(ctx context.Context, ownerID uuid.UUID) (transport.SeedDefaultsResponse, error) {
	count, err := s.repo.Count(ctx, ownerID)
	if err != nil {
		return transport.SeedDefaultsResponse{}, err
	}
	if count > 0 {
		return transport.SeedDefaultsResponse{}, apperr.Conflict("owner already has scoring rules")
	}

	defaults, err := parseDefaultRules(s.defaults)
	if err != nil {
		return transport.SeedDefaultsResponse{}, apperr.Wrap(apperr.KindInternal, "default rules unavailable", err)
	}
	for i := range defaults {
		defaults[i].OwnerID = ownerID
	}

	created, err := s.repo.CreateMany(ctx, defaults)
	if err != nil {
		return transport.SeedDefaultsResponse{}, err
	}

	s.log.Info("default scoring rules seeded", "ownerId", ownerID, "count", len(created))
	s.changed(ctx, ownerID, nil, events.RuleActionSeeded)

	list := toListResponse(created)
	return transport.SeedDefaultsResponse{Created: len(created), Items: list.Items}, nil
}

func (s *Service) changed(ctx context.Context, ownerID uuid.UUID, ruleID *uuid.UUID, action string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, ownerID); err != nil {
			s.log.WithContext(ctx).Warn("rule cache invalidation failed", "ownerId", ownerID, "error", err)
		}
	}
	s.eventBus.Publish(ctx, events.ScoringRulesChanged{
		BaseEvent: events.NewBaseEvent(),
		OwnerID:   ownerID,
		RuleID:    ruleID,
		Action:    action,
	})
}

func toResponse(r domain.ScoringRule) transport.RuleResponse {
	return transport.RuleResponse{
		ID:                r.ID,
		Name:              r.Name,
		RuleType:          string(r.RuleType),
		ConditionOperator: string(r.ConditionOperator),
		ConditionValue:    r.ConditionValue,
		Points:            r.Points,
		IsActive:          r.IsActive,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func toListResponse(rules []domain.ScoringRule) transport.RuleListResponse {
	items := make([]transport.RuleResponse, len(rules))
	for i, r := range rules {
		items[i] = toResponse(r)
	}
	return transport.RuleListResponse{Items: items, Total: len(items)}
}
