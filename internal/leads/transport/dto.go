package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// SubmitStepRequest is the public body posted by a funnel for each answered step.
type SubmitStepRequest struct {
	StepID         string         `json:"stepId" validate:"required,min=1,max=100"`
	SessionID      string         `json:"sessionId" validate:"required,min=1,max=128"`
	SubmissionData map[string]any `json:"submissionData" validate:"required"`
	UserEmail      *string        `json:"userEmail,omitempty" validate:"omitempty,max=254"`
	UserName       *string        `json:"userName,omitempty" validate:"omitempty,max=200"`
}

// ListLeadsRequest carries the query parameters of the lead listing.
type ListLeadsRequest struct {
	Qualification string `form:"qualification" validate:"omitempty,oneof=hot warm low cold"`
	Search        string `form:"search" validate:"max=100"`
	SortBy        string `form:"sortBy" validate:"omitempty,oneof=score createdAt updatedAt"`
	SortOrder     string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page          int    `form:"page" validate:"omitempty,min=1"`
	PageSize      int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// Response DTOs

type BreakdownEntryResponse struct {
	RuleID   uuid.UUID `json:"ruleId"`
	Applies  bool      `json:"applies"`
	Points   int       `json:"points"`
	RuleType string    `json:"ruleType"`
}

type FollowUpResponse struct {
	Approach           string    `json:"approach"`
	Channel            string    `json:"channel"`
	Priority           string    `json:"priority"`
	SuggestedContactAt time.Time `json:"suggestedContactAt"`
}

type ScoreResponse struct {
	LeadID             uuid.UUID                         `json:"leadId"`
	TotalScore         int                               `json:"totalScore"`
	Breakdown          map[string]BreakdownEntryResponse `json:"breakdown"`
	Qualification      string                            `json:"qualification"`
	QualificationLabel string                            `json:"qualificationLabel"`
	Version            string                            `json:"version"`
	RuleCount          int                               `json:"ruleCount"`
	CalculatedAt       time.Time                         `json:"calculatedAt"`
	FollowUp           FollowUpResponse                  `json:"followUp"`
}

// ArchivedScoreResponse is a superseded score without its follow-up.
type ArchivedScoreResponse struct {
	TotalScore         int                               `json:"totalScore"`
	Breakdown          map[string]BreakdownEntryResponse `json:"breakdown"`
	Qualification      string                            `json:"qualification"`
	QualificationLabel string                            `json:"qualificationLabel"`
	Version            string                            `json:"version"`
	RuleCount          int                               `json:"ruleCount"`
	CalculatedAt       time.Time                         `json:"calculatedAt"`
}

type ScoreHistoryResponse struct {
	Items []ArchivedScoreResponse `json:"items"`
	Total int                     `json:"total"`
}

type LeadResponse struct {
	ID             uuid.UUID      `json:"id"`
	Email          string         `json:"email"`
	Name           string         `json:"name,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Company        string         `json:"company,omitempty"`
	SourceFunnelID uuid.UUID      `json:"sourceFunnelId"`
	SessionID      string         `json:"sessionId"`
	CombinedData   map[string]any `json:"combinedData"`
	Score          *ScoreResponse `json:"score,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// SubmitStepResponse reports whether the submission produced a score.
// Scored is false while the session has no resolvable e-mail address.
type SubmitStepResponse struct {
	SubmissionID uuid.UUID      `json:"submissionId"`
	Scored       bool           `json:"scored"`
	LeadID       *uuid.UUID     `json:"leadId,omitempty"`
	Score        *ScoreResponse `json:"score,omitempty"`
	Message      string         `json:"message,omitempty"`
}
