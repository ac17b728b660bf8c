package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"funnel_backend/internal/events"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	got []events.Event
	err error
}

func (h *recordingHandler) Handle(_ context.Context, e events.Event) error {
	h.got = append(h.got, e)
	return h.err
}

type fakeRescorer struct {
	owners []uuid.UUID
	err    error
}

func (f *fakeRescorer) RescoreOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	f.owners = append(f.owners, ownerID)
	return 3, f.err
}

type fakeEnqueuer struct {
	owners []uuid.UUID
	err    error
}

func (f *fakeEnqueuer) EnqueueRescoreOwner(_ context.Context, ownerID uuid.UUID) error {
	f.owners = append(f.owners, ownerID)
	return f.err
}

func newTestWorker(rescorer OwnerRescorer, bus events.Bus) *Worker {
	w := &Worker{rescorer: rescorer, bus: bus, log: logger.NewNop()}
	w.mux = w.newMux()
	return w
}

func TestFollowUpPayloadRoundTrip(t *testing.T) {
	in := FollowUpPayload{LeadID: uuid.NewString(), OwnerID: uuid.NewString()}
	task, err := NewFollowUpTask(in)
	require.NoError(t, err)
	assert.Equal(t, TaskFollowUpDue, task.Type())

	out, err := ParseFollowUpPayload(task)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFollowUpTaskIDIsStablePerLeadAndTime(t *testing.T) {
	leadID := uuid.New()
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, followUpTaskID(leadID, at), followUpTaskID(leadID, at.In(time.FixedZone("CET", 3600))))
	assert.NotEqual(t, followUpTaskID(leadID, at), followUpTaskID(leadID, at.Add(time.Hour)))
	assert.NotEqual(t, followUpTaskID(leadID, at), followUpTaskID(uuid.New(), at))
}

func TestWorkerPublishesFollowUpDue(t *testing.T) {
	bus := events.NewInMemoryBus(logger.NewNop())
	rec := &recordingHandler{}
	bus.Subscribe(events.FollowUpDue{}.EventName(), rec)
	w := newTestWorker(&fakeRescorer{}, bus)

	leadID, ownerID := uuid.New(), uuid.New()
	task, err := NewFollowUpTask(FollowUpPayload{LeadID: leadID.String(), OwnerID: ownerID.String()})
	require.NoError(t, err)

	require.NoError(t, w.mux.ProcessTask(context.Background(), task))
	require.Len(t, rec.got, 1)
	due := rec.got[0].(events.FollowUpDue)
	assert.Equal(t, leadID, due.LeadID)
	assert.Equal(t, ownerID, due.OwnerID)
}

func TestWorkerReturnsHandlerErrorForRetry(t *testing.T) {
	bus := events.NewInMemoryBus(logger.NewNop())
	bus.Subscribe(events.FollowUpDue{}.EventName(), &recordingHandler{err: errors.New("smtp down")})
	w := newTestWorker(&fakeRescorer{}, bus)

	task, err := NewFollowUpTask(FollowUpPayload{LeadID: uuid.NewString(), OwnerID: uuid.NewString()})
	require.NoError(t, err)

	err = w.mux.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestWorkerSkipsRetryForMalformedPayload(t *testing.T) {
	w := newTestWorker(&fakeRescorer{}, events.NewInMemoryBus(logger.NewNop()))

	err := w.mux.ProcessTask(context.Background(), asynq.NewTask(TaskFollowUpDue, []byte(`{"leadId":"nope","ownerId":"nope"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = w.mux.ProcessTask(context.Background(), asynq.NewTask(TaskRescoreOwner, []byte(`not json`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWorkerRescoresOwner(t *testing.T) {
	rescorer := &fakeRescorer{}
	w := newTestWorker(rescorer, nil)
	ownerID := uuid.New()

	task, err := NewRescoreOwnerTask(RescoreOwnerPayload{OwnerID: ownerID.String()})
	require.NoError(t, err)
	require.NoError(t, w.mux.ProcessTask(context.Background(), task))
	assert.Equal(t, []uuid.UUID{ownerID}, rescorer.owners)

	rescorer.err = errors.New("db down")
	assert.Error(t, w.mux.ProcessTask(context.Background(), task))
}

func TestRescoreTriggerEnqueuesOnRuleChange(t *testing.T) {
	bus := events.NewInMemoryBus(logger.NewNop())
	enq := &fakeEnqueuer{}
	NewRescoreTrigger(enq, logger.NewNop()).RegisterHandlers(bus)

	ownerID := uuid.New()
	require.NoError(t, bus.PublishSync(context.Background(), events.ScoringRulesChanged{
		BaseEvent: events.NewBaseEvent(),
		OwnerID:   ownerID,
		Action:    events.RuleActionUpdated,
	}))
	assert.Equal(t, []uuid.UUID{ownerID}, enq.owners)

	enq.err = errors.New("redis down")
	assert.Error(t, bus.PublishSync(context.Background(), events.ScoringRulesChanged{OwnerID: ownerID}))
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6380/2", false)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)
	assert.Nil(t, opt.TLSConfig)

	opt, err = redisClientOpt("rediss://localhost:6380", true)
	require.NoError(t, err)
	require.NotNil(t, opt.TLSConfig)
	assert.True(t, opt.TLSConfig.InsecureSkipVerify)
}

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	assert.NoError(t, c.ScheduleFollowUp(context.Background(), uuid.New(), uuid.New(), time.Now()))
	assert.NoError(t, c.EnqueueRescoreOwner(context.Background(), uuid.New()))
	assert.NoError(t, c.Close())
}
