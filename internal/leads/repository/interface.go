package repository

import (
	"context"
	"time"

	"funnel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// SubmissionStore persists raw funnel step submissions.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub domain.StepSubmission) (domain.StepSubmission, error)
	ListSessionSubmissions(ctx context.Context, funnelID uuid.UUID, sessionID string) ([]domain.StepSubmission, error)
}

// ProfileReader provides read-only access to consolidated lead profiles.
type ProfileReader interface {
	GetProfile(ctx context.Context, ownerID, leadID uuid.UUID) (domain.LeadProfile, error)
	FindProfileByEmail(ctx context.Context, ownerID uuid.UUID, email string) (domain.LeadProfile, error)
	ListLeads(ctx context.Context, params ListParams) ([]LeadWithScore, int, error)
	ListProfileIDs(ctx context.Context, ownerID uuid.UUID, after uuid.UUID, limit int) ([]uuid.UUID, error)
	ListOwnerIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// ProfileWriter creates and updates profiles. Profiles are unique per (owner, email).
type ProfileWriter interface {
	UpsertProfile(ctx context.Context, profile domain.LeadProfile) (domain.LeadProfile, error)
}

// ScoreStore keeps the latest score of each lead.
type ScoreStore interface {
	GetLatestScore(ctx context.Context, leadID uuid.UUID) (LeadScore, error)
	SaveScore(ctx context.Context, score LeadScore) error
}

// LeadsRepository is the full persistence surface of the leads module.
type LeadsRepository interface {
	SubmissionStore
	ProfileReader
	ProfileWriter
	ScoreStore
}

// LeadScore is a persisted score with the follow-up recommendation computed alongside it.
type LeadScore struct {
	Result   domain.ScoreResult
	Strategy domain.FollowUpStrategy
}

// LeadWithScore pairs a profile with its latest score, if any.
type LeadWithScore struct {
	Profile domain.LeadProfile
	Score   *LeadScore
}

// Sort keys accepted by ListLeads.
const (
	SortByScore     = "score"
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
)

// ListParams filters and paginates lead listings. Page is 1-based.
type ListParams struct {
	OwnerID       uuid.UUID
	Qualification string
	Search        string
	CreatedAfter  *time.Time
	SortBy        string
	SortDesc      bool
	Page          int
	PageSize      int
}

func (p ListParams) offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}
