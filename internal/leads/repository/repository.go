package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadNotFoundMsg = "lead not found"

// Repository is the PostgreSQL implementation of LeadsRepository.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// =====================================
// Submissions
// =====================================

func (r *Repository) CreateSubmission(ctx context.Context, sub domain.StepSubmission) (domain.StepSubmission, error) {
	data, err := json.Marshal(nonNilMap(sub.SubmissionData))
	if err != nil {
		return domain.StepSubmission{}, fmt.Errorf("marshal submission data: %w", err)
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO step_submissions (id, funnel_id, step_id, session_id, submission_data, user_email, user_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, sub.ID, sub.FunnelID, sub.StepID, sub.SessionID, data, sub.UserEmail, sub.UserName).Scan(&sub.CreatedAt)
	if err != nil {
		return domain.StepSubmission{}, fmt.Errorf("insert step submission: %w", err)
	}
	return sub, nil
}

func (r *Repository) ListSessionSubmissions(ctx context.Context, funnelID uuid.UUID, sessionID string) ([]domain.StepSubmission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, funnel_id, step_id, session_id, submission_data, user_email, user_name, created_at
		FROM step_submissions
		WHERE funnel_id = $1 AND session_id = $2
		ORDER BY created_at ASC, id ASC
	`, funnelID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session submissions: %w", err)
	}
	defer rows.Close()

	items := make([]domain.StepSubmission, 0)
	for rows.Next() {
		var sub domain.StepSubmission
		var raw []byte
		if err := rows.Scan(&sub.ID, &sub.FunnelID, &sub.StepID, &sub.SessionID, &raw, &sub.UserEmail, &sub.UserName, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan step submission: %w", err)
		}
		if sub.SubmissionData, err = decodeMap(raw); err != nil {
			return nil, fmt.Errorf("decode submission %s: %w", sub.ID, err)
		}
		items = append(items, sub)
	}
	return items, rows.Err()
}

// =====================================
// Profiles
// =====================================

const profileColumns = `p.id, p.owner_id, p.email, p.name, p.phone, p.company, p.source_funnel_id, p.session_id, p.combined_data, p.created_at, p.updated_at`

func scanProfile(row pgx.Row) (domain.LeadProfile, error) {
	var p domain.LeadProfile
	var raw []byte
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Email, &p.Name, &p.Phone, &p.Company, &p.SourceFunnelID, &p.SessionID, &raw, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.LeadProfile{}, err
	}
	data, err := decodeMap(raw)
	if err != nil {
		return domain.LeadProfile{}, fmt.Errorf("decode combined data: %w", err)
	}
	p.CombinedData = data
	return p, nil
}

func (r *Repository) GetProfile(ctx context.Context, ownerID, leadID uuid.UUID) (domain.LeadProfile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM lead_profiles p
		WHERE p.id = $1 AND p.owner_id = $2
	`, leadID, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LeadProfile{}, apperr.NotFound(leadNotFoundMsg)
	}
	return p, err
}

func (r *Repository) FindProfileByEmail(ctx context.Context, ownerID uuid.UUID, email string) (domain.LeadProfile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM lead_profiles p
		WHERE p.owner_id = $1 AND p.email = $2
	`, ownerID, strings.ToLower(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LeadProfile{}, apperr.NotFound(leadNotFoundMsg)
	}
	return p, err
}

// UpsertProfile inserts a profile or updates the one sharing its (owner, email).
func (r *Repository) UpsertProfile(ctx context.Context, profile domain.LeadProfile) (domain.LeadProfile, error) {
	data, err := json.Marshal(nonNilMap(profile.CombinedData))
	if err != nil {
		return domain.LeadProfile{}, fmt.Errorf("marshal combined data: %w", err)
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}

	p, err := scanProfile(r.pool.QueryRow(ctx, `
		INSERT INTO lead_profiles AS p (id, owner_id, email, name, phone, company, source_funnel_id, session_id, combined_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_id, email) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			company = EXCLUDED.company,
			source_funnel_id = EXCLUDED.source_funnel_id,
			session_id = EXCLUDED.session_id,
			combined_data = EXCLUDED.combined_data,
			updated_at = now()
		RETURNING `+profileColumns,
		profile.ID, profile.OwnerID, strings.ToLower(profile.Email), profile.Name, profile.Phone, profile.Company,
		profile.SourceFunnelID, profile.SessionID, data))
	if err != nil {
		return domain.LeadProfile{}, fmt.Errorf("upsert lead profile: %w", err)
	}
	return p, nil
}

var sortColumns = map[string]string{
	SortByScore:     "COALESCE(s.total_score, 0)",
	SortByCreatedAt: "p.created_at",
	SortByUpdatedAt: "p.updated_at",
}

func (r *Repository) ListLeads(ctx context.Context, params ListParams) ([]LeadWithScore, int, error) {
	where := []string{"p.owner_id = $1"}
	args := []any{params.OwnerID}

	if params.Qualification != "" {
		args = append(args, params.Qualification)
		where = append(where, fmt.Sprintf("s.qualification = $%d", len(args)))
	}
	if q := strings.TrimSpace(params.Search); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(p.email ILIKE $%d OR p.name ILIKE $%d OR p.company ILIKE $%d)", n, n, n))
	}
	if params.CreatedAfter != nil {
		args = append(args, *params.CreatedAfter)
		where = append(where, fmt.Sprintf("p.created_at >= $%d", len(args)))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM lead_profiles p
		LEFT JOIN lead_scores s ON s.lead_id = p.id
		WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	sortCol, ok := sortColumns[params.SortBy]
	if !ok {
		sortCol = sortColumns[SortByCreatedAt]
	}
	direction := "ASC"
	if params.SortDesc {
		direction = "DESC"
	}

	args = append(args, params.PageSize, params.offset())
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`, `+scoreColumns+`
		FROM lead_profiles p
		LEFT JOIN lead_scores s ON s.lead_id = p.id
		WHERE `+whereSQL+`
		ORDER BY `+sortCol+` `+direction+`, p.id ASC
		LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]LeadWithScore, 0)
	for rows.Next() {
		item, err := scanLeadWithScore(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository) ListProfileIDs(ctx context.Context, ownerID uuid.UUID, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	return r.listIDs(ctx, `
		SELECT id FROM lead_profiles
		WHERE owner_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`, ownerID, after, limit)
}

func (r *Repository) ListOwnerIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	return r.listIDs(ctx, `
		SELECT DISTINCT owner_id FROM lead_profiles
		WHERE owner_id > $1
		ORDER BY owner_id ASC
		LIMIT $2
	`, after, limit)
}

func (r *Repository) listIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}
	return ids, nil
}

// =====================================
// Scores
// =====================================

const scoreColumns = `s.lead_id, s.total_score, s.breakdown, s.qualification, s.version, s.rule_count, s.calculated_at,
	s.approach, s.channel, s.priority, s.suggested_contact_at`

type nullableScore struct {
	leadID             *uuid.UUID
	totalScore         *int
	breakdown          []byte
	qualification      *string
	version            *string
	ruleCount          *int
	calculatedAt       *time.Time
	approach           *string
	channel            *string
	priority           *string
	suggestedContactAt *time.Time
}

func (n *nullableScore) targets() []any {
	return []any{&n.leadID, &n.totalScore, &n.breakdown, &n.qualification, &n.version, &n.ruleCount, &n.calculatedAt,
		&n.approach, &n.channel, &n.priority, &n.suggestedContactAt}
}

func (n *nullableScore) toLeadScore() (*LeadScore, error) {
	if n.leadID == nil {
		return nil, nil
	}
	breakdown := make(map[string]domain.BreakdownEntry)
	if len(n.breakdown) > 0 {
		if err := json.Unmarshal(n.breakdown, &breakdown); err != nil {
			return nil, fmt.Errorf("decode breakdown: %w", err)
		}
	}
	return &LeadScore{
		Result: domain.ScoreResult{
			LeadID:        *n.leadID,
			TotalScore:    deref(n.totalScore),
			Breakdown:     breakdown,
			Qualification: domain.Qualification(deref(n.qualification)),
			CalculatedAt:  deref(n.calculatedAt),
			Version:       deref(n.version),
			RuleCount:     deref(n.ruleCount),
		},
		Strategy: domain.FollowUpStrategy{
			Approach:           deref(n.approach),
			Channel:            domain.Channel(deref(n.channel)),
			Priority:           domain.Priority(deref(n.priority)),
			SuggestedContactAt: deref(n.suggestedContactAt),
		},
	}, nil
}

func scanLeadWithScore(rows pgx.Rows) (LeadWithScore, error) {
	var p domain.LeadProfile
	var raw []byte
	var ns nullableScore
	targets := append([]any{&p.ID, &p.OwnerID, &p.Email, &p.Name, &p.Phone, &p.Company, &p.SourceFunnelID, &p.SessionID, &raw, &p.CreatedAt, &p.UpdatedAt}, ns.targets()...)
	if err := rows.Scan(targets...); err != nil {
		return LeadWithScore{}, fmt.Errorf("scan lead: %w", err)
	}
	data, err := decodeMap(raw)
	if err != nil {
		return LeadWithScore{}, err
	}
	p.CombinedData = data
	score, err := ns.toLeadScore()
	if err != nil {
		return LeadWithScore{}, err
	}
	return LeadWithScore{Profile: p, Score: score}, nil
}

func (r *Repository) GetLatestScore(ctx context.Context, leadID uuid.UUID) (LeadScore, error) {
	var ns nullableScore
	err := r.pool.QueryRow(ctx, `SELECT `+scoreColumns+` FROM lead_scores s WHERE s.lead_id = $1`, leadID).Scan(ns.targets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeadScore{}, apperr.NotFound("lead has not been scored yet")
	}
	if err != nil {
		return LeadScore{}, fmt.Errorf("get latest score: %w", err)
	}
	score, err := ns.toLeadScore()
	if err != nil {
		return LeadScore{}, err
	}
	return *score, nil
}

// SaveScore replaces the lead's latest score. Concurrent writers resolve last-write-wins.
func (r *Repository) SaveScore(ctx context.Context, score LeadScore) error {
	breakdown, err := json.Marshal(score.Result.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	res, st := score.Result, score.Strategy
	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_scores (lead_id, total_score, breakdown, qualification, version, rule_count, calculated_at,
			approach, channel, priority, suggested_contact_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (lead_id) DO UPDATE SET
			total_score = EXCLUDED.total_score,
			breakdown = EXCLUDED.breakdown,
			qualification = EXCLUDED.qualification,
			version = EXCLUDED.version,
			rule_count = EXCLUDED.rule_count,
			calculated_at = EXCLUDED.calculated_at,
			approach = EXCLUDED.approach,
			channel = EXCLUDED.channel,
			priority = EXCLUDED.priority,
			suggested_contact_at = EXCLUDED.suggested_contact_at
	`, res.LeadID, res.TotalScore, breakdown, string(res.Qualification), res.Version, res.RuleCount, res.CalculatedAt,
		st.Approach, string(st.Channel), string(st.Priority), st.SuggestedContactAt)
	if err != nil {
		return fmt.Errorf("save lead score: %w", err)
	}
	return nil
}

func decodeMap(raw []byte) (map[string]any, error) {
	out := make(map[string]any)
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = make(map[string]any)
	}
	return out, nil
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

var _ LeadsRepository = (*Repository)(nil)
