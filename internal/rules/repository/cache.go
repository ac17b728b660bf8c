package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/platform/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix  = "scoring_rules:active:"
	genKeyPrefix    = "scoring_rules:gen:"
	cacheMetricType = "scoring_rules"
	defaultCacheTTL = 10 * time.Minute
)

// cachedRule is the JSON shape stored in Redis.
type cachedRule struct {
	ID                uuid.UUID `json:"id"`
	OwnerID           uuid.UUID `json:"ownerId"`
	Name              string    `json:"name"`
	RuleType          string    `json:"ruleType"`
	ConditionOperator string    `json:"conditionOperator"`
	ConditionValue    string    `json:"conditionValue"`
	Points            int       `json:"points"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ErrStaleSnapshot is returned by Set when the owner's rules changed after the
// generation passed to it was read.
var ErrStaleSnapshot = errors.New("rule snapshot is stale")

// SnapshotCache keeps each owner's active rule list in Redis. Every invalidation
// bumps a per-owner generation counter; a snapshot is only stored when the
// counter still matches the value read before the rules were loaded.
type SnapshotCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewSnapshotCache creates a cache; a non-positive ttl falls back to ten minutes.
func NewSnapshotCache(client *redis.Client, ttl time.Duration, m *metrics.Metrics) *SnapshotCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &SnapshotCache{client: client, ttl: ttl, metrics: m}
}

func cacheKey(ownerID uuid.UUID) string {
	return cacheKeyPrefix + ownerID.String()
}

func generationKey(ownerID uuid.UUID) string {
	return genKeyPrefix + ownerID.String()
}

// Generation returns the owner's current invalidation counter.
func (c *SnapshotCache) Generation(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return readGeneration(ctx, c.client, ownerID)
}

func readGeneration(ctx context.Context, cmd redis.Cmdable, ownerID uuid.UUID) (int64, error) {
	gen, err := cmd.Get(ctx, generationKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read rule cache generation: %w", err)
	}
	return gen, nil
}

// Get returns the cached snapshot. ok is false on a miss.
func (c *SnapshotCache) Get(ctx context.Context, ownerID uuid.UUID) ([]domain.ScoringRule, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.RecordCache(cacheMetricType, false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read rule cache: %w", err)
	}

	var items []cachedRule
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode rule cache: %w", err)
	}
	c.metrics.RecordCache(cacheMetricType, true)

	rules := make([]domain.ScoringRule, len(items))
	for i, it := range items {
		rules[i] = domain.ScoringRule{
			ID:                it.ID,
			OwnerID:           it.OwnerID,
			Name:              it.Name,
			RuleType:          domain.RuleType(it.RuleType),
			ConditionOperator: domain.Operator(it.ConditionOperator),
			ConditionValue:    it.ConditionValue,
			Points:            it.Points,
			IsActive:          it.IsActive,
			CreatedAt:         it.CreatedAt,
			UpdatedAt:         it.UpdatedAt,
		}
	}
	return rules, true, nil
}

// Set stores the snapshot with the configured TTL if the owner's generation is
// still generation. Otherwise it stores nothing and returns ErrStaleSnapshot.
func (c *SnapshotCache) Set(ctx context.Context, ownerID uuid.UUID, generation int64, rules []domain.ScoringRule) error {
	items := make([]cachedRule, len(rules))
	for i, r := range rules {
		items[i] = cachedRule{
			ID:                r.ID,
			OwnerID:           r.OwnerID,
			Name:              r.Name,
			RuleType:          string(r.RuleType),
			ConditionOperator: string(r.ConditionOperator),
			ConditionValue:    r.ConditionValue,
			Points:            r.Points,
			IsActive:          r.IsActive,
			CreatedAt:         r.CreatedAt,
			UpdatedAt:         r.UpdatedAt,
		}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode rule cache: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if current != generation {
			return ErrStaleSnapshot
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(ownerID), data, c.ttl)
			return nil
		})
		return err
	}, generationKey(ownerID))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleSnapshot), errors.Is(err, redis.TxFailedErr):
		return ErrStaleSnapshot
	default:
		return fmt.Errorf("write rule cache: %w", err)
	}
}

// Invalidate bumps the owner's generation and drops the snapshot.
func (c *SnapshotCache) Invalidate(ctx context.Context, ownerID uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(ownerID))
		pipe.Del(ctx, cacheKey(ownerID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate rule cache: %w", err)
	}
	return nil
}
