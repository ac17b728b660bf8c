package repository

import (
	"context"
	"errors"
	"fmt"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const ruleColumns = `id, owner_id, name, rule_type, condition_operator, condition_value, points, is_active, created_at, updated_at`

func scanRule(row pgx.Row) (domain.ScoringRule, error) {
	var r domain.ScoringRule
	var ruleType, operator string
	err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &ruleType, &operator, &r.ConditionValue, &r.Points, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	r.RuleType = domain.RuleType(ruleType)
	r.ConditionOperator = domain.Operator(operator)
	return r, err
}

func (r *Repo) Get(ctx context.Context, ownerID, id uuid.UUID) (domain.ScoringRule, error) {
	rule, err := scanRule(r.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM scoring_rules
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScoringRule{}, apperr.NotFound(ruleNotFoundMsg)
	}
	if err != nil {
		return domain.ScoringRule{}, fmt.Errorf("get scoring rule: %w", err)
	}
	return rule, nil
}

func (r *Repo) List(ctx context.Context, ownerID uuid.UUID) ([]domain.ScoringRule, error) {
	return r.list(ctx, `
		SELECT `+ruleColumns+`
		FROM scoring_rules
		WHERE owner_id = $1
		ORDER BY name ASC, id ASC
	`, ownerID)
}

func (r *Repo) ListActive(ctx context.Context, ownerID uuid.UUID) ([]domain.ScoringRule, error) {
	return r.list(ctx, `
		SELECT `+ruleColumns+`
		FROM scoring_rules
		WHERE owner_id = $1 AND is_active = true
		ORDER BY name ASC, id ASC
	`, ownerID)
}

func (r *Repo) list(ctx context.Context, query string, ownerID uuid.UUID) ([]domain.ScoringRule, error) {
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query scoring rules: %w", err)
	}
	defer rows.Close()

	items := make([]domain.ScoringRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scoring rule: %w", err)
		}
		items = append(items, rule)
	}
	return items, rows.Err()
}

func (r *Repo) Count(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scoring_rules WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scoring rules: %w", err)
	}
	return n, nil
}

const insertRule = `
	INSERT INTO scoring_rules (id, owner_id, name, rule_type, condition_operator, condition_value, points, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING ` + ruleColumns

func insertArgs(rule domain.ScoringRule) []any {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	return []any{rule.ID, rule.OwnerID, rule.Name, string(rule.RuleType), string(rule.ConditionOperator), rule.ConditionValue, rule.Points, rule.IsActive}
}

func (r *Repo) Create(ctx context.Context, rule domain.ScoringRule) (domain.ScoringRule, error) {
	created, err := scanRule(r.pool.QueryRow(ctx, insertRule, insertArgs(rule)...))
	if err != nil {
		return domain.ScoringRule{}, fmt.Errorf("insert scoring rule: %w", err)
	}
	return created, nil
}

// CreateMany inserts all rules in one transaction.
func (r *Repo) CreateMany(ctx context.Context, rules []domain.ScoringRule) ([]domain.ScoringRule, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created := make([]domain.ScoringRule, 0, len(rules))
	for _, rule := range rules {
		row, err := scanRule(tx.QueryRow(ctx, insertRule, insertArgs(rule)...))
		if err != nil {
			return nil, fmt.Errorf("insert scoring rule %q: %w", rule.Name, err)
		}
		created = append(created, row)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return created, nil
}

func (r *Repo) Update(ctx context.Context, rule domain.ScoringRule) (domain.ScoringRule, error) {
	updated, err := scanRule(r.pool.QueryRow(ctx, `
		UPDATE scoring_rules SET
			name = $3,
			rule_type = $4,
			condition_operator = $5,
			condition_value = $6,
			points = $7,
			is_active = $8,
			updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING `+ruleColumns,
		rule.ID, rule.OwnerID, rule.Name, string(rule.RuleType), string(rule.ConditionOperator), rule.ConditionValue, rule.Points, rule.IsActive,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScoringRule{}, apperr.NotFound(ruleNotFoundMsg)
	}
	if err != nil {
		return domain.ScoringRule{}, fmt.Errorf("update scoring rule: %w", err)
	}
	return updated, nil
}

func (r *Repo) SetActive(ctx context.Context, ownerID, id uuid.UUID, active bool) (domain.ScoringRule, error) {
	updated, err := scanRule(r.pool.QueryRow(ctx, `
		UPDATE scoring_rules SET is_active = $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING `+ruleColumns,
		id, ownerID, active,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScoringRule{}, apperr.NotFound(ruleNotFoundMsg)
	}
	if err != nil {
		return domain.ScoringRule{}, fmt.Errorf("set scoring rule active: %w", err)
	}
	return updated, nil
}

// Delete removes a rule permanently.
func (r *Repo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM scoring_rules WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete scoring rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMsg)
	}
	return nil
}
