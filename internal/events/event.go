// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"funnel_backend/platform/events"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the process-local bus shared by all modules.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Funnel Intake Events
// =============================================================================

// SubmissionReceived is published after a funnel step submission is stored.
type SubmissionReceived struct {
	BaseEvent
	SubmissionID uuid.UUID `json:"submissionId"`
	FunnelID     uuid.UUID `json:"funnelId"`
	OwnerID      uuid.UUID `json:"ownerId"`
	SessionID    string    `json:"sessionId"`
	StepID       string    `json:"stepId"`
}

func (e SubmissionReceived) EventName() string { return "funnels.submission.received" }

// =============================================================================
// Lead Scoring Events
// =============================================================================

// LeadScored is published after a score result has been persisted.
type LeadScored struct {
	BaseEvent
	LeadID                uuid.UUID `json:"leadId"`
	OwnerID               uuid.UUID `json:"ownerId"`
	Email                 string    `json:"email"`
	Name                  string    `json:"name"`
	Phone                 string    `json:"phone"`
	TotalScore            int       `json:"totalScore"`
	Qualification         string    `json:"qualification"`
	PreviousQualification string    `json:"previousQualification,omitempty"`
	Priority              string    `json:"priority"`
	Channel               string    `json:"channel"`
	Approach              string    `json:"approach"`
	SuggestedContactAt    time.Time `json:"suggestedContactAt"`
}

func (e LeadScored) EventName() string { return "leads.score.calculated" }

// BecameHot reports whether this calculation moved the lead into the hot tier.
func (e LeadScored) BecameHot() bool {
	return e.Qualification == "hot" && e.PreviousQualification != "hot"
}

// FollowUpDue is published by the worker when a scheduled follow-up reminder fires.
type FollowUpDue struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	OwnerID uuid.UUID `json:"ownerId"`
}

func (e FollowUpDue) EventName() string { return "leads.followup.due" }

// =============================================================================
// Scoring Rule Events
// =============================================================================

// Rule change actions.
const (
	RuleActionCreated = "created"
	RuleActionUpdated = "updated"
	RuleActionDeleted = "deleted"
	RuleActionToggled = "toggled"
	RuleActionSeeded  = "seeded"
)

// ScoringRulesChanged is published after any mutation of an owner's rule set.
type ScoringRulesChanged struct {
	BaseEvent
	OwnerID uuid.UUID  `json:"ownerId"`
	RuleID  *uuid.UUID `json:"ruleId,omitempty"`
	Action  string     `json:"action"`
}

func (e ScoringRulesChanged) EventName() string { return "scoring_rules.changed" }
