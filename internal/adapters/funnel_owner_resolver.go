// Package adapters implements the leads module ports on top of PostgreSQL,
// object storage and the Gemini API.
package adapters

import (
	"context"
	"errors"
	"fmt"

	"funnel_backend/internal/leads/ports"
	"funnel_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FunnelOwnerResolver looks up the owning user of a published funnel.
type FunnelOwnerResolver struct {
	pool *pgxpool.Pool
}

func NewFunnelOwnerResolver(pool *pgxpool.Pool) *FunnelOwnerResolver {
	return &FunnelOwnerResolver{pool: pool}
}

var _ ports.FunnelOwnerResolver = (*FunnelOwnerResolver)(nil)

// ResolveFunnelOwner returns NotFound for unknown or unpublished funnels.
func (r *FunnelOwnerResolver) ResolveFunnelOwner(ctx context.Context, funnelID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT owner_id FROM funnels
		WHERE id = $1 AND is_published = true
	`, funnelID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, apperr.NotFound("funnel not found")
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve funnel owner: %w", err)
	}
	return ownerID, nil
}
