package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"funnel_backend/platform/apperr"
	"funnel_backend/platform/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthRequired(&config.Config{JWTAccessSecret: testSecret}))
	r.GET("/me", func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		OK(c, gin.H{"userId": id.UserID().String()})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	userID := uuid.New()
	valid := signToken(t, jwt.MapClaims{
		"sub":  userID.String(),
		"type": "access",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	refresh := signToken(t, jwt.MapClaims{
		"sub":  userID.String(),
		"type": "refresh",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "malformed token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "wrong token type", header: "Bearer " + refresh, status: http.StatusUnauthorized},
		{name: "valid access token", header: "Bearer " + valid, status: http.StatusOK},
	}

	router := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, rec.Body.String(), userID.String())
			}
		})
	}
}

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(0.001), 2, nil)
	r := gin.New()
	r.Use(limiter.RateLimit())
	r.POST("/submit", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterDropsIdleClients(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1, nil)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.allow("10.0.0.1"))
	assert.True(t, limiter.allow("10.0.0.2"))
	assert.False(t, limiter.allow("10.0.0.2"))
	assert.Equal(t, 2, limiter.tracked())

	now = now.Add(limiterIdleTTL + time.Minute)
	assert.True(t, limiter.allow("10.0.0.3"))
	assert.Equal(t, 1, limiter.tracked())
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: apperr.NotFound("lead not found"), status: http.StatusNotFound},
		{name: "validation", err: apperr.Validation("bad input"), status: http.StatusBadRequest},
		{name: "untyped", err: assert.AnError, status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			assert.True(t, HandleError(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequestIDPropagatesHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
