package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeadProfile is the consolidated view of everything a lead submitted in one session.
// A profile is identified by (OwnerID, Email).
type LeadProfile struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Email          string
	Name           string
	Phone          string
	Company        string
	SourceFunnelID uuid.UUID
	SessionID      string
	CombinedData   map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScoreResult is one scoring pass over a profile. It replaces any earlier result.
type ScoreResult struct {
	LeadID        uuid.UUID
	TotalScore    int
	Breakdown     map[string]BreakdownEntry
	Qualification Qualification
	CalculatedAt  time.Time
	Version       string
	RuleCount     int
}

// BreakdownEntry records how one rule contributed to a score.
type BreakdownEntry struct {
	RuleID   uuid.UUID `json:"ruleId"`
	Applies  bool      `json:"applies"`
	Points   int       `json:"points"`
	RuleType RuleType  `json:"ruleType"`
}

// AppliedPoints sums the points of the entries that applied.
func (r ScoreResult) AppliedPoints() int {
	total := 0
	for _, entry := range r.Breakdown {
		if entry.Applies {
			total += entry.Points
		}
	}
	return total
}
