package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateStrategyPriorityAndTiming(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		tier     Qualification
		priority Priority
		delay    time.Duration
	}{
		{QualificationHot, PriorityImmediate, 2 * time.Hour},
		{QualificationWarm, PriorityHigh, 24 * time.Hour},
		{QualificationLow, PriorityNormal, 24 * time.Hour},
		{QualificationCold, PriorityLow, 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			s := GenerateStrategy(ScoreResult{Qualification: tt.tier}, LeadProfile{}, now)
			assert.Equal(t, tt.priority, s.Priority)
			assert.Equal(t, now.Add(tt.delay), s.SuggestedContactAt)
		})
	}
}

func TestGenerateStrategyChannel(t *testing.T) {
	now := time.Now()

	withPhone := GenerateStrategy(ScoreResult{Qualification: QualificationWarm}, LeadProfile{Phone: "+393123456789"}, now)
	assert.Equal(t, ChannelPhone, withPhone.Channel)
	assert.Contains(t, withPhone.Approach, "Call")

	phoneInData := GenerateStrategy(ScoreResult{Qualification: QualificationWarm},
		LeadProfile{CombinedData: map[string]any{"cellulare": "333 1234567"}}, now)
	assert.Equal(t, ChannelPhone, phoneInData.Channel)

	emailOnly := GenerateStrategy(ScoreResult{Qualification: QualificationWarm}, LeadProfile{Email: "a@example.com"}, now)
	assert.Equal(t, ChannelEmail, emailOnly.Channel)
	assert.Contains(t, emailOnly.Approach, "Email")
}

func TestGenerateStrategyApproachFraming(t *testing.T) {
	now := time.Now()

	consultative := GenerateStrategy(ScoreResult{Qualification: QualificationHot}, LeadProfile{
		Name:         "Mario",
		CombinedData: map[string]any{"principale_sfida": "Non riesco a trovare clienti"},
	}, now)
	assert.Contains(t, consultative.Approach, "consultative")
	assert.Contains(t, consultative.Approach, "Non riesco a trovare clienti")
	assert.Contains(t, consultative.Approach, "Mario")

	generic := GenerateStrategy(ScoreResult{Qualification: QualificationHot}, LeadProfile{}, now)
	assert.Contains(t, generic.Approach, "value demonstration")
	assert.Contains(t, generic.Approach, "the lead")
}

func TestExcerptTruncatesOnRunes(t *testing.T) {
	long := ""
	for range 200 {
		long += "è"
	}
	got := excerpt(long, 10)
	assert.Equal(t, "èèèèèèèèèè…", got)
}
