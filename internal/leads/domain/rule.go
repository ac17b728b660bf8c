package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"funnel_backend/platform/apperr"

	"github.com/google/uuid"
)

// RuleType selects which profile field a rule inspects.
type RuleType string

const (
	RuleTypeResponseTime  RuleType = "response_time"
	RuleTypeMessageLength RuleType = "message_length"
	RuleTypeSource        RuleType = "source"
	RuleTypeTone          RuleType = "tone"
)

var knownRuleTypes = map[RuleType]struct{}{
	RuleTypeResponseTime:  {},
	RuleTypeMessageLength: {},
	RuleTypeSource:        {},
	RuleTypeTone:          {},
}

func (t RuleType) Valid() bool {
	_, ok := knownRuleTypes[t]
	return ok
}

// Operator is the comparison a rule applies to the resolved field.
type Operator string

const (
	OperatorLessThan    Operator = "less_than"
	OperatorGreaterThan Operator = "greater_than"
	OperatorEquals      Operator = "equals"
	OperatorContains    Operator = "contains"
)

var knownOperators = map[Operator]struct{}{
	OperatorLessThan:    {},
	OperatorGreaterThan: {},
	OperatorEquals:      {},
	OperatorContains:    {},
}

func (o Operator) Valid() bool {
	_, ok := knownOperators[o]
	return ok
}

// IsNumeric reports whether the operator compares numbers.
func (o Operator) IsNumeric() bool {
	return o == OperatorLessThan || o == OperatorGreaterThan
}

// ScoringRule is a single owner-defined scoring condition.
type ScoringRule struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	Name              string
	RuleType          RuleType
	ConditionOperator Operator
	ConditionValue    string
	Points            int
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const maxRuleNameLength = 100

// Validate checks a rule in isolation. Rules are never validated against each other.
func (r ScoringRule) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return apperr.Validation("rule name is required")
	}
	if utf8.RuneCountInString(name) > maxRuleNameLength {
		return apperr.Validation("rule name must be at most 100 characters")
	}
	if !r.RuleType.Valid() {
		return apperr.Validation("unknown rule type").WithDetails(map[string]string{"ruleType": string(r.RuleType)})
	}
	if !r.ConditionOperator.Valid() {
		return apperr.Validation("unknown condition operator").WithDetails(map[string]string{"conditionOperator": string(r.ConditionOperator)})
	}
	if r.ConditionOperator.IsNumeric() {
		if _, ok := ParseNumber(r.ConditionValue); !ok {
			return apperr.Validation("condition value must be numeric for " + string(r.ConditionOperator) +
				` (use "." or a single "," as decimal separator, no thousands separators)`).
				WithDetails(map[string]string{"conditionValue": r.ConditionValue})
		}
	} else if strings.TrimSpace(r.ConditionValue) == "" {
		return apperr.Validation("condition value is required")
	}
	return nil
}

// ParseNumber reads a finite number from a string. A single decimal comma is
// accepted unless exactly three digits follow it, since "1,000" may be a
// thousands separator.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		if ambiguousComma(s) {
			return 0, false
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func ambiguousComma(s string) bool {
	frac := s[strings.IndexByte(s, ',')+1:]
	if len(frac) != 3 {
		return false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NumericValue converts a decoded JSON value into a number when it holds one.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return NumericValue(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		return ParseNumber(n.String())
	case string:
		return ParseNumber(n)
	default:
		return 0, false
	}
}

// TextValue renders a decoded JSON scalar as text. Composite values are not text.
func TextValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case nil:
		return "", false
	}
	if n, ok := NumericValue(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}
