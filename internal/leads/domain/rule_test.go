package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"funnel_backend/platform/apperr"

	"github.com/stretchr/testify/assert"
)

func TestScoringRuleValidate(t *testing.T) {
	valid := ScoringRule{
		Name:              "Fast responder",
		RuleType:          RuleTypeResponseTime,
		ConditionOperator: OperatorLessThan,
		ConditionValue:    "60",
		Points:            20,
	}

	tests := []struct {
		name   string
		mutate func(r *ScoringRule)
		ok     bool
	}{
		{name: "valid", mutate: func(*ScoringRule) {}, ok: true},
		{name: "negative points", mutate: func(r *ScoringRule) { r.Points = -10 }, ok: true},
		{name: "decimal comma", mutate: func(r *ScoringRule) { r.ConditionValue = "59,5" }, ok: true},
		{name: "missing name", mutate: func(r *ScoringRule) { r.Name = "  " }},
		{name: "name too long", mutate: func(r *ScoringRule) { r.Name = strings.Repeat("x", 101) }},
		{name: "unknown rule type", mutate: func(r *ScoringRule) { r.RuleType = "budget" }},
		{name: "unknown operator", mutate: func(r *ScoringRule) { r.ConditionOperator = "between" }},
		{name: "thousands separator is ambiguous", mutate: func(r *ScoringRule) { r.ConditionValue = "1,000" }},
		{name: "plain thousand", mutate: func(r *ScoringRule) { r.ConditionValue = "1000" }, ok: true},
		{name: "non numeric value for numeric operator", mutate: func(r *ScoringRule) { r.ConditionValue = "sixty" }},
		{name: "empty value for text operator", mutate: func(r *ScoringRule) {
			r.ConditionOperator = OperatorEquals
			r.ConditionValue = ""
		}},
		{name: "text value for text operator", mutate: func(r *ScoringRule) {
			r.RuleType = RuleTypeSource
			r.ConditionOperator = OperatorEquals
			r.ConditionValue = "LinkedIn"
		}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := valid
			tt.mutate(&rule)
			err := rule.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{in: float64(45), want: 45, ok: true},
		{in: 45, want: 45, ok: true},
		{in: json.Number("12.5"), want: 12.5, ok: true},
		{in: " 90 ", want: 90, ok: true},
		{in: "abc", ok: false},
		{in: "NaN", ok: false},
		{in: true, ok: false},
		{in: nil, ok: false},
	}
	for _, tt := range tests {
		got, ok := NumericValue(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9)
		}
	}
}

func TestParseNumberCommaHandling(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{in: "59,5", want: 59.5, ok: true},
		{in: "0,25", want: 0.25, ok: true},
		{in: "1,5000", want: 1.5, ok: true},
		{in: "1,000", ok: false},
		{in: "12,345", ok: false},
		{in: "1.000", want: 1, ok: true},
		{in: "1,000.5", ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, tt.in)
		}
	}
}
