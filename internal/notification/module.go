// Package notification reacts to lead scoring events: it alerts funnel owners
// by e-mail when a lead turns hot and reminds them when a follow-up is due.
package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"funnel_backend/internal/email"
	"funnel_backend/internal/events"
	"funnel_backend/internal/leads/domain"
	leadtransport "funnel_backend/internal/leads/transport"
	"funnel_backend/platform/config"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
)

const ownerEmailCacheTTL = 5 * time.Minute

// OwnerDirectory resolves the e-mail address of a funnel owner.
type OwnerDirectory interface {
	OwnerEmail(ctx context.Context, ownerID uuid.UUID) (string, error)
}

// FollowUpScheduler enqueues a reminder for a lead at runAt.
type FollowUpScheduler interface {
	ScheduleFollowUp(ctx context.Context, leadID, ownerID uuid.UUID, runAt time.Time) error
}

// LeadReader loads the current state of a lead for reminders.
type LeadReader interface {
	GetLead(ctx context.Context, ownerID, leadID uuid.UUID) (leadtransport.LeadResponse, error)
}

type cachedOwnerEmail struct {
	email     string
	expiresAt time.Time
}

// Module handles all notification-related event subscriptions.
type Module struct {
	sender     email.Sender
	owners     OwnerDirectory
	cfg        config.NotificationConfig
	log        *logger.Logger
	scheduler  FollowUpScheduler
	leads      LeadReader
	now        func() time.Time
	ownerCache sync.Map // map[uuid.UUID]cachedOwnerEmail
}

// New creates a new notification module.
func New(sender email.Sender, owners OwnerDirectory, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{
		sender: sender,
		owners: owners,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

func (m *Module) Name() string { return "notification" }

// SetFollowUpScheduler enables follow-up reminders for warm and hot leads.
func (m *Module) SetFollowUpScheduler(s FollowUpScheduler) { m.scheduler = s }

// SetLeadReader enables FollowUpDue handling.
func (m *Module) SetLeadReader(r LeadReader) { m.leads = r }

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadScored{}.EventName(), m)
	bus.Subscribe(events.FollowUpDue{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadScored:
		return m.handleLeadScored(ctx, e)
	case events.FollowUpDue:
		return m.handleFollowUpDue(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleLeadScored(ctx context.Context, e events.LeadScored) error {
	var errs []error
	if e.BecameHot() {
		if err := m.sendHotLeadAlert(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	if remindable(e.Qualification) {
		if err := m.scheduleFollowUp(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Module) sendHotLeadAlert(ctx context.Context, e events.LeadScored) error {
	log := m.log.WithContext(ctx)

	to, err := m.resolveOwnerEmail(ctx, e.OwnerID)
	if err != nil {
		log.Warn("hot lead alert skipped, owner e-mail unknown", "ownerId", e.OwnerID, "leadId", e.LeadID, "error", err)
		return err
	}
	if err := m.sender.SendHotLeadAlert(ctx, to, email.LeadSummary{
		LeadName:           e.Name,
		LeadEmail:          e.Email,
		LeadPhone:          e.Phone,
		Score:              e.TotalScore,
		QualificationLabel: domain.Qualification(e.Qualification).Label(),
		Channel:            e.Channel,
		Approach:           e.Approach,
		SuggestedContactAt: e.SuggestedContactAt,
		LeadURL:            m.leadURL(e.LeadID),
	}); err != nil {
		log.Error("failed to send hot lead alert", "leadId", e.LeadID, "error", err)
		return err
	}
	log.Info("hot lead alert sent", "leadId", e.LeadID, "ownerId", e.OwnerID, "score", e.TotalScore)
	return nil
}

// scheduleFollowUp enqueues a reminder at the suggested contact time.
// Repeated scores with the same contact time collapse into one task downstream.
func (m *Module) scheduleFollowUp(ctx context.Context, e events.LeadScored) error {
	if m.scheduler == nil || e.SuggestedContactAt.IsZero() {
		return nil
	}
	if err := m.scheduler.ScheduleFollowUp(ctx, e.LeadID, e.OwnerID, e.SuggestedContactAt); err != nil {
		m.log.WithContext(ctx).Error("failed to schedule follow-up reminder", "leadId", e.LeadID, "error", err)
		return err
	}
	return nil
}

func (m *Module) handleFollowUpDue(ctx context.Context, e events.FollowUpDue) error {
	if m.leads == nil {
		return nil
	}
	log := m.log.WithContext(ctx)

	lead, err := m.leads.GetLead(ctx, e.OwnerID, e.LeadID)
	if err != nil {
		return err
	}
	if lead.Score == nil || !remindable(lead.Score.Qualification) {
		log.Info("follow-up reminder skipped, lead cooled down", "leadId", e.LeadID)
		return nil
	}

	to, err := m.resolveOwnerEmail(ctx, e.OwnerID)
	if err != nil {
		return err
	}
	if err := m.sender.SendFollowUpReminder(ctx, to, email.LeadSummary{
		LeadName:           lead.Name,
		LeadEmail:          lead.Email,
		LeadPhone:          lead.Phone,
		Score:              lead.Score.TotalScore,
		QualificationLabel: lead.Score.QualificationLabel,
		Channel:            lead.Score.FollowUp.Channel,
		Approach:           lead.Score.FollowUp.Approach,
		SuggestedContactAt: lead.Score.FollowUp.SuggestedContactAt,
		LeadURL:            m.leadURL(e.LeadID),
	}); err != nil {
		return err
	}
	log.Info("follow-up reminder sent", "leadId", e.LeadID, "ownerId", e.OwnerID)
	return nil
}

// remindable reports whether a lead in this tier still warrants a reminder.
func remindable(qualification string) bool {
	q := domain.Qualification(qualification)
	return q == domain.QualificationHot || q == domain.QualificationWarm
}

func (m *Module) resolveOwnerEmail(ctx context.Context, ownerID uuid.UUID) (string, error) {
	if cached, ok := m.ownerCache.Load(ownerID); ok {
		entry := cached.(cachedOwnerEmail)
		if m.now().Before(entry.expiresAt) {
			return entry.email, nil
		}
	}

	addr, err := m.owners.OwnerEmail(ctx, ownerID)
	if err != nil {
		return "", err
	}
	m.ownerCache.Store(ownerID, cachedOwnerEmail{email: addr, expiresAt: m.now().Add(ownerEmailCacheTTL)})
	return addr, nil
}

func (m *Module) leadURL(leadID uuid.UUID) string {
	base := strings.TrimRight(m.cfg.GetAppBaseURL(), "/")
	if base == "" {
		return ""
	}
	return base + "/leads/" + leadID.String()
}
