package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Priority orders follow-up urgency.
type Priority string

const (
	PriorityImmediate Priority = "immediate"
	PriorityHigh      Priority = "high"
	PriorityNormal    Priority = "normal"
	PriorityLow       Priority = "low"
)

// Channel is the outreach medium.
type Channel string

const (
	ChannelPhone Channel = "phone"
	ChannelEmail Channel = "email"
)

const (
	immediateContactDelay = 2 * time.Hour
	defaultContactDelay   = 24 * time.Hour
	maxChallengeExcerpt   = 120
)

// FollowUpStrategy is an advisory recommendation for contacting a lead.
type FollowUpStrategy struct {
	Approach           string
	Channel            Channel
	Priority           Priority
	SuggestedContactAt time.Time
}

var priorityByTier = map[Qualification]Priority{
	QualificationHot:  PriorityImmediate,
	QualificationWarm: PriorityHigh,
	QualificationLow:  PriorityNormal,
	QualificationCold: PriorityLow,
}

// PriorityFor returns the follow-up priority for a tier. Unknown tiers get low priority.
func PriorityFor(q Qualification) Priority {
	if p, ok := priorityByTier[q]; ok {
		return p
	}
	return PriorityLow
}

// GenerateStrategy derives the follow-up recommendation from a score and the profile signals.
func GenerateStrategy(score ScoreResult, profile LeadProfile, now time.Time) FollowUpStrategy {
	priority := PriorityFor(score.Qualification)

	delay := defaultContactDelay
	if priority == PriorityImmediate {
		delay = immediateContactDelay
	}

	channel := ChannelEmail
	if profile.Phone != "" || LookupText(profile.CombinedData, phoneKeys) != "" {
		channel = ChannelPhone
	}

	return FollowUpStrategy{
		Approach:           approachText(channel, profile),
		Channel:            channel,
		Priority:           priority,
		SuggestedContactAt: now.Add(delay),
	}
}

func approachText(channel Channel, profile LeadProfile) string {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = "the lead"
	}

	verb := "Email"
	if channel == ChannelPhone {
		verb = "Call"
	}

	if challenge := LookupText(profile.CombinedData, ChallengeKeys); challenge != "" {
		return fmt.Sprintf("%s %s for a consultative conversation about their main challenge: %q. Ask how it affects them today and propose a concrete next step.",
			verb, name, excerpt(challenge, maxChallengeExcerpt))
	}
	return fmt.Sprintf("%s %s with a short value demonstration: share a relevant case study and invite them to a discovery call.", verb, name)
}

func excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
