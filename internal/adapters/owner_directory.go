package adapters

import (
	"context"
	"errors"
	"fmt"

	"funnel_backend/internal/notification"
	"funnel_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OwnerDirectory reads funnel owner contact details from the users table.
type OwnerDirectory struct {
	pool *pgxpool.Pool
}

func NewOwnerDirectory(pool *pgxpool.Pool) *OwnerDirectory {
	return &OwnerDirectory{pool: pool}
}

var _ notification.OwnerDirectory = (*OwnerDirectory)(nil)

func (d *OwnerDirectory) OwnerEmail(ctx context.Context, ownerID uuid.UUID) (string, error) {
	var email string
	err := d.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, ownerID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NotFound("owner not found")
	}
	if err != nil {
		return "", fmt.Errorf("load owner email: %w", err)
	}
	return email, nil
}
