package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"funnel_backend/internal/email"
	"funnel_backend/internal/events"
	leadtransport "funnel_backend/internal/leads/transport"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNotificationConfig struct{}

func (testNotificationConfig) GetAppBaseURL() string { return "https://app.example.com/" }

type sentMail struct {
	kind string
	to   string
	lead email.LeadSummary
}

type testSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (s *testSender) record(kind, to string, lead email.LeadSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{kind: kind, to: to, lead: lead})
	return nil
}

func (s *testSender) SendHotLeadAlert(_ context.Context, to string, lead email.LeadSummary) error {
	return s.record("alert", to, lead)
}

func (s *testSender) SendFollowUpReminder(_ context.Context, to string, lead email.LeadSummary) error {
	return s.record("reminder", to, lead)
}

type testOwners struct {
	emails map[uuid.UUID]string
	calls  int
}

func (o *testOwners) OwnerEmail(_ context.Context, ownerID uuid.UUID) (string, error) {
	o.calls++
	addr, ok := o.emails[ownerID]
	if !ok {
		return "", apperr.NotFound("owner not found")
	}
	return addr, nil
}

type scheduledFollowUp struct {
	leadID, ownerID uuid.UUID
	runAt           time.Time
}

type testScheduler struct {
	scheduled []scheduledFollowUp
}

func (s *testScheduler) ScheduleFollowUp(_ context.Context, leadID, ownerID uuid.UUID, runAt time.Time) error {
	s.scheduled = append(s.scheduled, scheduledFollowUp{leadID: leadID, ownerID: ownerID, runAt: runAt})
	return nil
}

type testLeads map[uuid.UUID]leadtransport.LeadResponse

func (l testLeads) GetLead(_ context.Context, _ uuid.UUID, leadID uuid.UUID) (leadtransport.LeadResponse, error) {
	lead, ok := l[leadID]
	if !ok {
		return leadtransport.LeadResponse{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

type fixture struct {
	m         *Module
	sender    *testSender
	owners    *testOwners
	scheduler *testScheduler
	ownerID   uuid.UUID
}

func newFixture() fixture {
	ownerID := uuid.New()
	sender := &testSender{}
	owners := &testOwners{emails: map[uuid.UUID]string{ownerID: "owner@example.com"}}
	sched := &testScheduler{}
	m := New(sender, owners, testNotificationConfig{}, logger.NewNop())
	m.SetFollowUpScheduler(sched)
	return fixture{m: m, sender: sender, owners: owners, scheduler: sched, ownerID: ownerID}
}

func hotEvent(ownerID uuid.UUID, previous string) events.LeadScored {
	return events.LeadScored{
		BaseEvent:             events.NewBaseEvent(),
		LeadID:                uuid.New(),
		OwnerID:               ownerID,
		Email:                 "lead@example.com",
		Name:                  "Mario Rossi",
		TotalScore:            85,
		Qualification:         "hot",
		PreviousQualification: previous,
		Priority:              "immediate",
		Channel:               "email",
		Approach:              "Email Mario Rossi",
		SuggestedContactAt:    time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLeadScoredBecomingHotAlertsAndSchedules(t *testing.T) {
	f := newFixture()
	e := hotEvent(f.ownerID, "warm")

	require.NoError(t, f.m.Handle(context.Background(), e))

	require.Len(t, f.sender.sent, 1)
	mail := f.sender.sent[0]
	assert.Equal(t, "alert", mail.kind)
	assert.Equal(t, "owner@example.com", mail.to)
	assert.Equal(t, "Alto", mail.lead.QualificationLabel)
	assert.Equal(t, 85, mail.lead.Score)
	assert.Equal(t, "https://app.example.com/leads/"+e.LeadID.String(), mail.lead.LeadURL)

	require.Len(t, f.scheduler.scheduled, 1)
	assert.Equal(t, e.LeadID, f.scheduler.scheduled[0].leadID)
	assert.Equal(t, e.SuggestedContactAt, f.scheduler.scheduled[0].runAt)
}

func TestLeadScoredAlertsOnlyOnTransitionToHot(t *testing.T) {
	f := newFixture()

	stillHot := hotEvent(f.ownerID, "hot")
	require.NoError(t, f.m.Handle(context.Background(), stillHot))

	assert.Empty(t, f.sender.sent)
	require.Len(t, f.scheduler.scheduled, 1)
	assert.Equal(t, stillHot.LeadID, f.scheduler.scheduled[0].leadID)
}

func TestLeadScoredWarmSchedulesFollowUpWithoutAlert(t *testing.T) {
	f := newFixture()
	warm := hotEvent(f.ownerID, "")
	warm.TotalScore = 60
	warm.Qualification = "warm"
	warm.Priority = "high"
	warm.SuggestedContactAt = time.Date(2026, 7, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, f.m.Handle(context.Background(), warm))

	assert.Empty(t, f.sender.sent)
	require.Len(t, f.scheduler.scheduled, 1)
	assert.Equal(t, warm.LeadID, f.scheduler.scheduled[0].leadID)
	assert.Equal(t, f.ownerID, f.scheduler.scheduled[0].ownerID)
	assert.Equal(t, warm.SuggestedContactAt, f.scheduler.scheduled[0].runAt)
}

func TestLeadScoredLowOrColdIsIgnored(t *testing.T) {
	f := newFixture()
	for _, q := range []string{"low", "cold"} {
		e := hotEvent(f.ownerID, "warm")
		e.TotalScore = 10
		e.Qualification = q
		require.NoError(t, f.m.Handle(context.Background(), e))
	}

	assert.Empty(t, f.sender.sent)
	assert.Empty(t, f.scheduler.scheduled)
}

func TestOwnerEmailIsCached(t *testing.T) {
	f := newFixture()
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	f.m.now = func() time.Time { return now }

	for range 3 {
		require.NoError(t, f.m.Handle(context.Background(), hotEvent(f.ownerID, "")))
	}
	assert.Equal(t, 1, f.owners.calls)

	now = now.Add(ownerEmailCacheTTL + time.Second)
	require.NoError(t, f.m.Handle(context.Background(), hotEvent(f.ownerID, "")))
	assert.Equal(t, 2, f.owners.calls)
}

func TestAlertFailureStillSchedulesFollowUp(t *testing.T) {
	f := newFixture()
	f.sender.err = errors.New("smtp down")

	err := f.m.Handle(context.Background(), hotEvent(f.ownerID, "low"))
	assert.Error(t, err)
	assert.Len(t, f.scheduler.scheduled, 1)

	unknown := hotEvent(uuid.New(), "")
	err = f.m.Handle(context.Background(), unknown)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Len(t, f.scheduler.scheduled, 2)
}

func TestFollowUpDueSendsReminderForWarmOrHotLeads(t *testing.T) {
	f := newFixture()
	hotLead, coldLead, unscored := uuid.New(), uuid.New(), uuid.New()
	f.m.SetLeadReader(testLeads{
		hotLead: {ID: hotLead, Email: "hot@example.com", Name: "Giulia", Score: &leadtransport.ScoreResponse{
			TotalScore: 81, Qualification: "hot", QualificationLabel: "Alto",
			FollowUp: leadtransport.FollowUpResponse{Channel: "phone", Approach: "Call Giulia"},
		}},
		coldLead: {ID: coldLead, Email: "cold@example.com", Score: &leadtransport.ScoreResponse{
			TotalScore: 5, Qualification: "cold", QualificationLabel: "Molto Basso",
		}},
		unscored: {ID: unscored, Email: "new@example.com"},
	})
	ctx := context.Background()

	require.NoError(t, f.m.Handle(ctx, events.FollowUpDue{BaseEvent: events.NewBaseEvent(), LeadID: hotLead, OwnerID: f.ownerID}))
	require.NoError(t, f.m.Handle(ctx, events.FollowUpDue{BaseEvent: events.NewBaseEvent(), LeadID: coldLead, OwnerID: f.ownerID}))
	require.NoError(t, f.m.Handle(ctx, events.FollowUpDue{BaseEvent: events.NewBaseEvent(), LeadID: unscored, OwnerID: f.ownerID}))

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "reminder", f.sender.sent[0].kind)
	assert.Equal(t, "Giulia", f.sender.sent[0].lead.LeadName)
	assert.Equal(t, "phone", f.sender.sent[0].lead.Channel)

	err := f.m.Handle(ctx, events.FollowUpDue{BaseEvent: events.NewBaseEvent(), LeadID: uuid.New(), OwnerID: f.ownerID})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRegisterHandlersSubscribesToBus(t *testing.T) {
	f := newFixture()
	bus := events.NewInMemoryBus(logger.NewNop())
	f.m.RegisterHandlers(bus)

	require.NoError(t, bus.PublishSync(context.Background(), hotEvent(f.ownerID, "")))
	assert.Len(t, f.sender.sent, 1)
}
