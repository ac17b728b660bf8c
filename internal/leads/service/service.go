package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funnel_backend/internal/events"
	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/ports"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/internal/leads/scoring"
	"funnel_backend/internal/leads/transport"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/metrics"
	"funnel_backend/platform/phone"
	"funnel_backend/platform/sanitize"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageSize    = 20
	rescoreBatchSize   = 100
	rescoreConcurrency = 4
	toneTimeout        = 5 * time.Second

	msgAwaitingIdentity = "submission stored; lead will be scored once an email address is provided"
)

// Service orchestrates consolidation, scoring and persistence of funnel leads.
type Service struct {
	repo        repository.LeadsRepository
	rules       ports.RuleSource
	owners      ports.FunnelOwnerResolver
	tone        ports.ToneClassifier
	archive     ports.ScoreArchiver
	eventBus    events.Bus
	log         *logger.Logger
	metrics     *metrics.Metrics
	observer    scoring.Observer
	phoneRegion string
	now         func() time.Time
}

// Option configures optional collaborators.
type Option func(*Service)

// WithToneClassifier fills a missing tone field from the lead's free text.
func WithToneClassifier(tc ports.ToneClassifier) Option {
	return func(s *Service) { s.tone = tc }
}

// WithScoreArchiver keeps superseded score results.
func WithScoreArchiver(a ports.ScoreArchiver) Option {
	return func(s *Service) { s.archive = a }
}

// WithMetrics records scoring metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPhoneRegion sets the region used to normalize national phone numbers.
func WithPhoneRegion(region string) Option {
	return func(s *Service) {
		if region != "" {
			s.phoneRegion = region
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(repo repository.LeadsRepository, rules ports.RuleSource, owners ports.FunnelOwnerResolver, eventBus events.Bus, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		rules:       rules,
		owners:      owners,
		eventBus:    eventBus,
		log:         log,
		phoneRegion: phone.DefaultRegion,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.observer = scoring.NewLogObserver(log, s.metrics)
	return s
}

// SubmitStep stores one funnel step and rescores the session's lead.
// When the session has no usable e-mail yet the submission is kept and Scored is false.
func (s *Service) SubmitStep(ctx context.Context, funnelID uuid.UUID, req transport.SubmitStepRequest) (transport.SubmitStepResponse, error) {
	ownerID, err := s.owners.ResolveFunnelOwner(ctx, funnelID)
	if err != nil {
		return transport.SubmitStepResponse{}, err
	}

	data := sanitize.Values(req.SubmissionData)
	if data == nil {
		data = map[string]any{}
	}
	s.enrichTone(ctx, data)

	sub, err := s.repo.CreateSubmission(ctx, domain.StepSubmission{
		FunnelID:       funnelID,
		StepID:         sanitize.Text(req.StepID),
		SessionID:      req.SessionID,
		SubmissionData: data,
		UserEmail:      sanitize.TextPtr(req.UserEmail),
		UserName:       sanitize.TextPtr(req.UserName),
	})
	if err != nil {
		return transport.SubmitStepResponse{}, err
	}

	s.eventBus.Publish(ctx, events.SubmissionReceived{
		BaseEvent:    events.NewBaseEvent(),
		SubmissionID: sub.ID,
		FunnelID:     funnelID,
		OwnerID:      ownerID,
		SessionID:    sub.SessionID,
		StepID:       sub.StepID,
	})

	profile, err := s.consolidateSession(ctx, ownerID, funnelID, sub.SessionID)
	if errors.Is(err, domain.ErrMissingIdentity) {
		s.metrics.RecordSubmission(false)
		s.log.WithContext(ctx).Info("submission stored without identity", "funnelId", funnelID, "sessionId", sub.SessionID)
		return transport.SubmitStepResponse{SubmissionID: sub.ID, Message: msgAwaitingIdentity}, nil
	}
	if err != nil {
		return transport.SubmitStepResponse{}, err
	}

	score, err := s.scoreProfile(ctx, profile)
	if err != nil {
		return transport.SubmitStepResponse{}, err
	}
	s.metrics.RecordSubmission(true)

	resp := toScoreResponse(score)
	return transport.SubmitStepResponse{
		SubmissionID: sub.ID,
		Scored:       true,
		LeadID:       &profile.ID,
		Score:        &resp,
	}, nil
}

// consolidateSession merges the session into the owner's profile for the resolved e-mail.
func (s *Service) consolidateSession(ctx context.Context, ownerID, funnelID uuid.UUID, sessionID string) (domain.LeadProfile, error) {
	subs, err := s.repo.ListSessionSubmissions(ctx, funnelID, sessionID)
	if err != nil {
		return domain.LeadProfile{}, err
	}

	profile, err := domain.Consolidate(subs, s.phoneRegion)
	if err != nil {
		return domain.LeadProfile{}, apperr.Wrap(apperr.KindUnprocessable, "no email address could be resolved for this lead", err)
	}
	profile.OwnerID = ownerID

	existing, err := s.repo.FindProfileByEmail(ctx, ownerID, profile.Email)
	switch {
	case err == nil:
		profile = domain.MergeInto(existing, profile)
	case !apperr.Is(err, apperr.KindNotFound):
		return domain.LeadProfile{}, err
	}

	return s.repo.UpsertProfile(ctx, profile)
}

// enrichTone asks the classifier for a tone when the funnel did not collect one.
// Classifier failures leave the data unchanged.
func (s *Service) enrichTone(ctx context.Context, data map[string]any) {
	if s.tone == nil {
		return
	}
	if _, ok := domain.LookupField(data, domain.FieldKeys(domain.RuleTypeTone)); ok {
		return
	}
	text := domain.LookupText(data, domain.FieldKeys(domain.RuleTypeMessageLength))
	if text == "" {
		return
	}

	tctx, cancel := context.WithTimeout(ctx, toneTimeout)
	defer cancel()
	tone, err := s.tone.ClassifyTone(tctx, text)
	if err != nil {
		s.log.WithContext(ctx).Warn("tone classification failed", "error", err)
		return
	}
	if tone != "" {
		data["tone"] = tone
	}
}

// scoreProfile evaluates the owner's current rules against the profile, persists the
// result and publishes LeadScored.
func (s *Service) scoreProfile(ctx context.Context, profile domain.LeadProfile) (repository.LeadScore, error) {
	started := time.Now()

	rules, err := s.rules.ListActiveRules(ctx, profile.OwnerID)
	if err != nil {
		return repository.LeadScore{}, fmt.Errorf("load scoring rules: %w", err)
	}

	now := s.now()
	result := scoring.Evaluate(profile, rules, now, s.observer)
	score := repository.LeadScore{
		Result:   result,
		Strategy: domain.GenerateStrategy(result, profile, now),
	}

	previous, err := s.repo.GetLatestScore(ctx, profile.ID)
	hasPrevious := err == nil
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return repository.LeadScore{}, err
	}

	if err := s.repo.SaveScore(ctx, score); err != nil {
		return repository.LeadScore{}, err
	}

	if hasPrevious && s.archive != nil {
		if err := s.archive.ArchiveScore(ctx, profile.OwnerID, previous.Result); err != nil {
			s.log.WithContext(ctx).Warn("failed to archive superseded score", "leadId", profile.ID, "error", err)
		}
	}

	s.log.WithContext(ctx).ScoreCalculated(profile.ID.String(), result.TotalScore, string(result.Qualification), result.RuleCount)
	s.metrics.RecordLeadScored(string(result.Qualification), result.TotalScore, time.Since(started))

	evt := events.LeadScored{
		BaseEvent:          events.NewBaseEvent(),
		LeadID:             profile.ID,
		OwnerID:            profile.OwnerID,
		Email:              profile.Email,
		Name:               profile.Name,
		Phone:              profile.Phone,
		TotalScore:         result.TotalScore,
		Qualification:      string(result.Qualification),
		Priority:           string(score.Strategy.Priority),
		Channel:            string(score.Strategy.Channel),
		Approach:           score.Strategy.Approach,
		SuggestedContactAt: score.Strategy.SuggestedContactAt,
	}
	if hasPrevious {
		evt.PreviousQualification = string(previous.Result.Qualification)
	}
	s.eventBus.Publish(ctx, evt)

	return score, nil
}

// Recalculate rescores a lead against the owner's current rules.
func (s *Service) Recalculate(ctx context.Context, ownerID, leadID uuid.UUID) (transport.ScoreResponse, error) {
	profile, err := s.repo.GetProfile(ctx, ownerID, leadID)
	if err != nil {
		return transport.ScoreResponse{}, err
	}
	score, err := s.scoreProfile(ctx, profile)
	if err != nil {
		return transport.ScoreResponse{}, err
	}
	return toScoreResponse(score), nil
}

// RescoreOwner recalculates every lead of an owner with bounded concurrency.
// It returns the number of leads rescored.
func (s *Service) RescoreOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	total := 0
	cursor := uuid.Nil
	for {
		ids, err := s.repo.ListProfileIDs(ctx, ownerID, cursor, rescoreBatchSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(rescoreConcurrency)
		for _, id := range ids {
			g.Go(func() error {
				if _, err := s.Recalculate(gctx, ownerID, id); err != nil {
					return fmt.Errorf("rescore lead %s: %w", id, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return total, err
		}

		total += len(ids)
		cursor = ids[len(ids)-1]
		if len(ids) < rescoreBatchSize {
			return total, nil
		}
	}
}

// GetLead returns a lead with its latest score, if any.
func (s *Service) GetLead(ctx context.Context, ownerID, leadID uuid.UUID) (transport.LeadResponse, error) {
	profile, err := s.repo.GetProfile(ctx, ownerID, leadID)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	var score *repository.LeadScore
	latest, err := s.repo.GetLatestScore(ctx, leadID)
	switch {
	case err == nil:
		score = &latest
	case !apperr.Is(err, apperr.KindNotFound):
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(profile, score), nil
}

// GetScore returns the latest score of a lead owned by ownerID.
func (s *Service) GetScore(ctx context.Context, ownerID, leadID uuid.UUID) (transport.ScoreResponse, error) {
	if _, err := s.repo.GetProfile(ctx, ownerID, leadID); err != nil {
		return transport.ScoreResponse{}, err
	}
	score, err := s.repo.GetLatestScore(ctx, leadID)
	if err != nil {
		return transport.ScoreResponse{}, err
	}
	return toScoreResponse(score), nil
}

// ScoreHistory returns the superseded scores of a lead, oldest first.
// Without an archive the history is empty.
func (s *Service) ScoreHistory(ctx context.Context, ownerID, leadID uuid.UUID) (transport.ScoreHistoryResponse, error) {
	if _, err := s.repo.GetProfile(ctx, ownerID, leadID); err != nil {
		return transport.ScoreHistoryResponse{}, err
	}
	resp := transport.ScoreHistoryResponse{Items: []transport.ArchivedScoreResponse{}}
	if s.archive == nil {
		return resp, nil
	}

	results, err := s.archive.ScoreHistory(ctx, ownerID, leadID)
	if err != nil {
		return transport.ScoreHistoryResponse{}, err
	}
	for _, r := range results {
		resp.Items = append(resp.Items, toArchivedScoreResponse(r))
	}
	resp.Total = len(resp.Items)
	return resp, nil
}

// ListLeads returns a page of the owner's leads.
func (s *Service) ListLeads(ctx context.Context, ownerID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := max(req.Page, 1)
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = repository.SortByCreatedAt
	}

	items, total, err := s.repo.ListLeads(ctx, repository.ListParams{
		OwnerID:       ownerID,
		Qualification: req.Qualification,
		Search:        req.Search,
		SortBy:        sortBy,
		SortDesc:      req.SortOrder != "asc",
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	resp := transport.LeadListResponse{
		Items:      make([]transport.LeadResponse, 0, len(items)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toLeadResponse(item.Profile, item.Score))
	}
	return resp, nil
}
