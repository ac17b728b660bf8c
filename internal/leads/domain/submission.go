package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepSubmission is one answered step of a funnel wizard.
type StepSubmission struct {
	ID             uuid.UUID
	FunnelID       uuid.UUID
	StepID         string
	SessionID      string
	SubmissionData map[string]any
	UserEmail      *string
	UserName       *string
	CreatedAt      time.Time
}
