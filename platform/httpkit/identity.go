package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the authenticated funnel owner. Funnels, scoring rules and
// leads are all scoped to UserID.
type Identity interface {
	UserID() uuid.UUID
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	authenticated bool
}

func (i *identity) UserID() uuid.UUID     { return i.userID }
func (i *identity) IsAuthenticated() bool { return i.authenticated }

// GetIdentity reads the identity stored by AuthRequired. The result is
// unauthenticated when no owner is present.
func GetIdentity(c *gin.Context) Identity {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return &identity{}
	}
	uid, ok := raw.(uuid.UUID)
	if !ok || uid == uuid.Nil {
		return &identity{}
	}
	return &identity{userID: uid, authenticated: true}
}

// MustGetIdentity aborts with 401 and returns nil when no owner is present.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil
	}
	return id
}

// WithIdentity stores the owner on the context. Used by AuthRequired and tests.
func WithIdentity(c *gin.Context, userID uuid.UUID) {
	c.Set(ContextUserIDKey, userID)
}
