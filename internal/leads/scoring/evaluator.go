// Package scoring evaluates owner-defined rules against consolidated lead profiles.
package scoring

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/metrics"

	"golang.org/x/text/cases"
)

// ScoreVersion tracks the scoring model for debugging and analysis.
// Bump this when changing evaluation semantics.
const ScoreVersion = "2026-rules-v1"

// Reasons a rule is skipped without being evaluated.
const (
	SkipInvalidCondition = "invalid_condition_value"
	SkipUnknownRuleType  = "unknown_rule_type"
	SkipUnknownOperator  = "unknown_operator"
)

// Observer is told about rules that cannot be applied as written.
type Observer interface {
	RuleSkipped(rule domain.ScoringRule, reason string)
}

// LogObserver reports skipped rules to the logger and metrics.
type LogObserver struct {
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewLogObserver creates an Observer backed by the given logger and metrics (either may be nil).
func NewLogObserver(log *logger.Logger, m *metrics.Metrics) LogObserver {
	return LogObserver{log: log, metrics: m}
}

func (o LogObserver) RuleSkipped(rule domain.ScoringRule, reason string) {
	if o.log != nil {
		o.log.RuleSkipped(rule.ID.String(), rule.Name, reason, rule.ConditionValue)
	}
	o.metrics.RecordRuleSkipped(reason)
}

// Evaluate applies the active rules to the profile. It performs no I/O apart from
// notifying obs, which may be nil. The result depends only on its arguments.
func Evaluate(profile domain.LeadProfile, rules []domain.ScoringRule, calculatedAt time.Time, obs Observer) domain.ScoreResult {
	active := make([]domain.ScoringRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Name != active[j].Name {
			return active[i].Name < active[j].Name
		}
		return active[i].ID.String() < active[j].ID.String()
	})

	fields := domain.IndexFields(profile.CombinedData)
	result := domain.ScoreResult{
		LeadID:       profile.ID,
		Breakdown:    make(map[string]domain.BreakdownEntry, len(active)),
		CalculatedAt: calculatedAt,
		Version:      ScoreVersion,
		RuleCount:    len(active),
	}

	for _, rule := range active {
		applies, skip := evaluateRule(rule, fields)
		if skip != "" && obs != nil {
			obs.RuleSkipped(rule, skip)
		}

		entry := domain.BreakdownEntry{RuleID: rule.ID, Applies: applies, RuleType: rule.RuleType}
		if applies {
			entry.Points = rule.Points
			result.TotalScore += rule.Points
		}
		result.Breakdown[breakdownKey(result.Breakdown, rule)] = entry
	}

	result.Qualification = domain.Classify(result.TotalScore)
	return result
}

func breakdownKey(existing map[string]domain.BreakdownEntry, rule domain.ScoringRule) string {
	if _, taken := existing[rule.Name]; !taken {
		return rule.Name
	}
	return fmt.Sprintf("%s (%s)", rule.Name, rule.ID)
}

// evaluateRule reports whether the rule applies. A non-empty skip reason means the
// rule itself is unusable; a missing or mistyped field is not a skip.
func evaluateRule(rule domain.ScoringRule, fields domain.FieldIndex) (applies bool, skip string) {
	keys := domain.FieldKeys(rule.RuleType)
	if keys == nil {
		return false, SkipUnknownRuleType
	}
	value, present := fields.Lookup(keys)

	switch rule.ConditionOperator {
	case domain.OperatorLessThan, domain.OperatorGreaterThan:
		threshold, ok := domain.ParseNumber(rule.ConditionValue)
		if !ok {
			return false, SkipInvalidCondition
		}
		if !present {
			return false, ""
		}
		actual, ok := numericField(rule.RuleType, value)
		if !ok {
			return false, ""
		}
		if rule.ConditionOperator == domain.OperatorLessThan {
			return actual < threshold, ""
		}
		return actual > threshold, ""

	case domain.OperatorEquals, domain.OperatorContains:
		want := strings.TrimSpace(rule.ConditionValue)
		if want == "" {
			return false, SkipInvalidCondition
		}
		if !present {
			return false, ""
		}
		text, ok := domain.TextValue(value)
		if !ok {
			return false, ""
		}
		fold := cases.Fold()
		got := fold.String(strings.TrimSpace(text))
		want = fold.String(want)
		if rule.ConditionOperator == domain.OperatorEquals {
			return got == want, ""
		}
		return strings.Contains(got, want), ""

	default:
		return false, SkipUnknownOperator
	}
}

// numericField yields the number a numeric operator compares. Message rules
// compare the character length of the text.
func numericField(t domain.RuleType, value any) (float64, bool) {
	if t == domain.RuleTypeMessageLength {
		text, ok := domain.TextValue(value)
		if !ok {
			return 0, false
		}
		return float64(utf8.RuneCountInString(strings.TrimSpace(text))), true
	}
	return domain.NumericValue(value)
}
