package repository

import (
	"context"

	"funnel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// RuleReader provides read operations for scoring rules. Every call is owner-scoped.
type RuleReader interface {
	Get(ctx context.Context, ownerID, id uuid.UUID) (domain.ScoringRule, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.ScoringRule, error)
	ListActive(ctx context.Context, ownerID uuid.UUID) ([]domain.ScoringRule, error)
	Count(ctx context.Context, ownerID uuid.UUID) (int, error)
}

// RuleWriter provides write operations for scoring rules.
type RuleWriter interface {
	Create(ctx context.Context, rule domain.ScoringRule) (domain.ScoringRule, error)
	CreateMany(ctx context.Context, rules []domain.ScoringRule) ([]domain.ScoringRule, error)
	Update(ctx context.Context, rule domain.ScoringRule) (domain.ScoringRule, error)
	SetActive(ctx context.Context, ownerID, id uuid.UUID, active bool) (domain.ScoringRule, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// Repository combines all scoring rule operations.
type Repository interface {
	RuleReader
	RuleWriter
}

const ruleNotFoundMsg = "scoring rule not found"
