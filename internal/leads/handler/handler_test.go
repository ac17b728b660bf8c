package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"funnel_backend/internal/events"
	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/internal/leads/service"
	"funnel_backend/internal/leads/transport"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type oneFunnel struct {
	funnelID uuid.UUID
	ownerID  uuid.UUID
}

func (o oneFunnel) ResolveFunnelOwner(_ context.Context, funnelID uuid.UUID) (uuid.UUID, error) {
	if funnelID != o.funnelID {
		return uuid.Nil, apperr.NotFound("funnel not found")
	}
	return o.ownerID, nil
}

type fixedRules []domain.ScoringRule

func (r fixedRules) ListActiveRules(context.Context, uuid.UUID) ([]domain.ScoringRule, error) {
	return append([]domain.ScoringRule(nil), r...), nil
}

type testServer struct {
	engine   *gin.Engine
	funnelID uuid.UUID
	ownerID  uuid.UUID
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := oneFunnel{funnelID: uuid.New(), ownerID: uuid.New()}
	rules := fixedRules{{
		ID: uuid.New(), Name: "LinkedIn", RuleType: domain.RuleTypeSource,
		ConditionOperator: domain.OperatorEquals, ConditionValue: "LinkedIn", Points: 85, IsActive: true,
	}}
	svc := service.New(repository.NewMemory(), rules, f, events.NewInMemoryBus(logger.NewNop()), logger.NewNop())
	val := validator.New()

	engine := gin.New()
	v1 := engine.Group("/api/v1")
	NewPublicHandler(svc, val).RegisterRoutes(v1.Group("/funnels"))

	protected := v1.Group("")
	protected.Use(func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-User"); raw != "" {
			httpkit.WithIdentity(c, uuid.MustParse(raw))
		}
		c.Next()
	})
	New(svc, val).RegisterRoutes(protected.Group("/leads"))

	return testServer{engine: engine, funnelID: f.funnelID, ownerID: f.ownerID}
}

func (s testServer) do(t *testing.T, method, path string, body any, user *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-Test-User", user.String())
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s testServer) submissionPath() string {
	return "/api/v1/funnels/" + s.funnelID.String() + "/submissions"
}

func TestSubmitStepStatusCodes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, s.submissionPath(), map[string]any{
		"stepId": "1", "sessionId": "sess", "submissionData": map[string]any{"source": "linkedin"},
	}, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	var pending transport.SubmitStepResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	assert.False(t, pending.Scored)

	rec = s.do(t, http.MethodPost, s.submissionPath(), map[string]any{
		"stepId": "2", "sessionId": "sess", "submissionData": map[string]any{"email": "lead@example.com"},
	}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var scored transport.SubmitStepResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scored))
	require.True(t, scored.Scored)
	assert.Equal(t, 85, scored.Score.TotalScore)
	assert.Equal(t, "hot", scored.Score.Qualification)
	assert.Equal(t, "Alto", scored.Score.QualificationLabel)
}

func TestSubmitStepRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{name: "bad funnel id", path: "/api/v1/funnels/nope/submissions", body: map[string]any{}, status: http.StatusBadRequest},
		{name: "missing session", path: s.submissionPath(), body: map[string]any{"stepId": "1", "submissionData": map[string]any{}}, status: http.StatusBadRequest},
		{name: "missing data", path: s.submissionPath(), body: map[string]any{"stepId": "1", "sessionId": "s"}, status: http.StatusBadRequest},
		{name: "unknown funnel", path: "/api/v1/funnels/" + uuid.NewString() + "/submissions",
			body: map[string]any{"stepId": "1", "sessionId": "s", "submissionData": map[string]any{"a": 1}}, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestProtectedLeadRoutes(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, s.submissionPath(), map[string]any{
		"stepId": "1", "sessionId": "sess", "submissionData": map[string]any{"email": "lead@example.com", "source": "LinkedIn"},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var scored transport.SubmitStepResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scored))
	leadPath := "/api/v1/leads/" + scored.LeadID.String()

	owner := s.ownerID
	stranger := uuid.New()

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/leads", nil, nil).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/leads?qualification=hot", nil, &owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var list transport.LeadListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/leads?qualification=lukewarm", nil, &owner).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, leadPath, nil, &owner).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, leadPath, nil, &stranger).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/leads/not-a-uuid", nil, &owner).Code)

	rec = s.do(t, http.MethodGet, leadPath+"/score", nil, &owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var score transport.ScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, 85, score.TotalScore)
	assert.True(t, score.Breakdown["LinkedIn"].Applies)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, leadPath+"/score/recalculate", nil, &owner).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, leadPath+"/score/recalculate", nil, &stranger).Code)
}
