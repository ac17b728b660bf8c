// Package ports defines the interfaces the leads module needs from other modules
// and external services. Adapters implementing them live in internal/adapters.
package ports

import (
	"context"

	"funnel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// RuleSource supplies an owner's scoring rules. The returned slice is a snapshot
// owned by the caller.
type RuleSource interface {
	ListActiveRules(ctx context.Context, ownerID uuid.UUID) ([]domain.ScoringRule, error)
}

// FunnelOwnerResolver returns the user owning a funnel.
type FunnelOwnerResolver interface {
	ResolveFunnelOwner(ctx context.Context, funnelID uuid.UUID) (uuid.UUID, error)
}

// ToneClassifier labels the tone of free text, e.g. "positive", "neutral", "negative".
type ToneClassifier interface {
	ClassifyTone(ctx context.Context, text string) (string, error)
}

// ScoreArchiver keeps superseded score results.
type ScoreArchiver interface {
	ArchiveScore(ctx context.Context, ownerID uuid.UUID, result domain.ScoreResult) error
	// ScoreHistory returns archived results of a lead, oldest first.
	ScoreHistory(ctx context.Context, ownerID, leadID uuid.UUID) ([]domain.ScoreResult, error)
}
