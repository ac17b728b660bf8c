package service

import (
	_ "embed"
	"fmt"

	"funnel_backend/internal/leads/domain"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultRulesYAML []byte

type defaultRuleSet struct {
	Rules []struct {
		Name              string `yaml:"name"`
		RuleType          string `yaml:"ruleType"`
		ConditionOperator string `yaml:"conditionOperator"`
		ConditionValue    string `yaml:"conditionValue"`
		Points            int    `yaml:"points"`
	} `yaml:"rules"`
}

// parseDefaultRules decodes a default rule set and validates every entry.
func parseDefaultRules(data []byte) ([]domain.ScoringRule, error) {
	var set defaultRuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode default rules: %w", err)
	}

	rules := make([]domain.ScoringRule, 0, len(set.Rules))
	for i, r := range set.Rules {
		rule := domain.ScoringRule{
			Name:              r.Name,
			RuleType:          domain.RuleType(r.RuleType),
			ConditionOperator: domain.Operator(r.ConditionOperator),
			ConditionValue:    r.ConditionValue,
			Points:            r.Points,
			IsActive:          true,
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("default rule %d (%s): %w", i, r.Name, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
