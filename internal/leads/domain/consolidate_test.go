package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestConsolidateMergesLaterKeysOverEarlier(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	subs := []StepSubmission{
		{SubmissionData: map[string]any{"a": 1}, CreatedAt: base, UserEmail: strPtr("lead@example.com")},
		{SubmissionData: map[string]any{"a": 2, "b": 3}, CreatedAt: base.Add(time.Minute)},
	}

	profile, err := Consolidate(subs, "IT")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 2, "b": 3}, profile.CombinedData)
	assert.Equal(t, "lead@example.com", profile.Email)
}

func TestConsolidateLaterKeyWinsAcrossCaseVariants(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	subs := []StepSubmission{
		{SubmissionData: map[string]any{"Source": "google", "email": "lead@example.com"}, CreatedAt: base},
		{SubmissionData: map[string]any{"source": "LinkedIn"}, CreatedAt: base.Add(time.Minute)},
	}

	profile, err := Consolidate(subs, "IT")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"source": "LinkedIn", "email": "lead@example.com"}, profile.CombinedData)
	assert.Equal(t, "LinkedIn", LookupText(profile.CombinedData, FieldKeys(RuleTypeSource)))
}

func TestMergeIntoCollapsesCaseVariants(t *testing.T) {
	existing := LeadProfile{Email: "a@example.com", CombinedData: map[string]any{"Utm-Source": "google"}}
	next := LeadProfile{Email: "a@example.com", CombinedData: map[string]any{"utm_source": "newsletter"}}

	merged := MergeInto(existing, next)
	assert.Equal(t, map[string]any{"utm_source": "newsletter"}, merged.CombinedData)
}

func TestConsolidateOrdersByCreatedAt(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	funnelID := uuid.New()
	subs := []StepSubmission{
		{FunnelID: funnelID, SessionID: "s1", SubmissionData: map[string]any{"a": "late"}, CreatedAt: base.Add(time.Hour)},
		{FunnelID: funnelID, SessionID: "s1", SubmissionData: map[string]any{"a": "early", "email": "x@example.com"}, CreatedAt: base},
	}

	profile, err := Consolidate(subs, "IT")
	require.NoError(t, err)
	assert.Equal(t, "late", profile.CombinedData["a"])
	assert.Equal(t, funnelID, profile.SourceFunnelID)
	assert.Equal(t, "s1", profile.SessionID)
}

func TestConsolidateDoesNotMutateInput(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	subs := []StepSubmission{
		{StepID: "second", SubmissionData: map[string]any{"email": "a@example.com"}, CreatedAt: base.Add(time.Minute)},
		{StepID: "first", SubmissionData: map[string]any{"x": 1}, CreatedAt: base},
	}
	_, err := Consolidate(subs, "IT")
	require.NoError(t, err)
	assert.Equal(t, "second", subs[0].StepID)
}

func TestConsolidateIdentity(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		subs    []StepSubmission
		email   string
		wantErr bool
	}{
		{
			name:    "no submissions",
			wantErr: true,
		},
		{
			name:    "no email anywhere",
			subs:    []StepSubmission{{SubmissionData: map[string]any{"nome": "Mario"}, CreatedAt: now}},
			wantErr: true,
		},
		{
			name:  "email from data label variant",
			subs:  []StepSubmission{{SubmissionData: map[string]any{"Indirizzo Email": " Mario.Rossi@Example.COM "}, CreatedAt: now}},
			email: "mario.rossi@example.com",
		},
		{
			name: "falls back to latest userEmail",
			subs: []StepSubmission{
				{SubmissionData: map[string]any{}, UserEmail: strPtr("old@example.com"), CreatedAt: now},
				{SubmissionData: map[string]any{}, UserEmail: strPtr("new@example.com"), CreatedAt: now.Add(time.Second)},
			},
			email: "new@example.com",
		},
		{
			name: "invalid data email falls back to userEmail",
			subs: []StepSubmission{
				{SubmissionData: map[string]any{"email": "not-an-email"}, UserEmail: strPtr("ok@example.com"), CreatedAt: now},
			},
			email: "ok@example.com",
		},
		{
			name:    "invalid everywhere",
			subs:    []StepSubmission{{SubmissionData: map[string]any{"email": "nope"}, UserEmail: strPtr("also nope"), CreatedAt: now}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := Consolidate(tt.subs, "IT")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingIdentity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, profile.Email)
		})
	}
}

func TestConsolidateExtractsContactFields(t *testing.T) {
	subs := []StepSubmission{{
		SubmissionData: map[string]any{
			"email":    "mario@example.com",
			"nome":     "<b>Mario</b>",
			"cognome":  "Rossi",
			"telefono": "312 345 6789",
			"azienda":  "Rossi Srl",
		},
		UserName:  strPtr("Fallback Name"),
		CreatedAt: time.Now(),
	}}

	profile, err := Consolidate(subs, "IT")
	require.NoError(t, err)
	assert.Equal(t, "Mario Rossi", profile.Name)
	assert.Equal(t, "+393123456789", profile.Phone)
	assert.Equal(t, "Rossi Srl", profile.Company)
}

func TestConsolidateUsesUserNameFallback(t *testing.T) {
	subs := []StepSubmission{{
		SubmissionData: map[string]any{"email": "anon@example.com"},
		UserName:       strPtr("Giulia Bianchi"),
		CreatedAt:      time.Now(),
	}}

	profile, err := Consolidate(subs, "IT")
	require.NoError(t, err)
	assert.Equal(t, "Giulia Bianchi", profile.Name)
	assert.Empty(t, profile.Phone)
}

func TestMergeIntoKeepsExistingWhenNextIsEmpty(t *testing.T) {
	existing := LeadProfile{
		Email:        "a@example.com",
		Name:         "Anna",
		Phone:        "+393123456789",
		CombinedData: map[string]any{"a": 1, "b": 1},
	}
	next := LeadProfile{
		Email:        "a@example.com",
		SessionID:    "s2",
		CombinedData: map[string]any{"b": 2},
	}

	merged := MergeInto(existing, next)
	assert.Equal(t, "Anna", merged.Name)
	assert.Equal(t, "+393123456789", merged.Phone)
	assert.Equal(t, "s2", merged.SessionID)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, merged.CombinedData)
	assert.Equal(t, map[string]any{"a": 1, "b": 1}, existing.CombinedData)
}

func TestLookupFieldIsCaseAndSeparatorInsensitive(t *testing.T) {
	data := map[string]any{"Response-Time Seconds": 45, "Sorgente": "LinkedIn"}

	v, ok := LookupField(data, FieldKeys(RuleTypeResponseTime))
	require.True(t, ok)
	assert.Equal(t, 45, v)
	assert.Equal(t, "LinkedIn", LookupText(data, FieldKeys(RuleTypeSource)))

	_, ok = LookupField(data, FieldKeys(RuleTypeTone))
	assert.False(t, ok)
}
