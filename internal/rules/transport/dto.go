package transport

import (
	"time"

	"funnel_backend/internal/leads/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateRuleRequest contains data for creating a scoring rule.
type CreateRuleRequest struct {
	Name              string `json:"name" validate:"required,min=1,max=100"`
	RuleType          string `json:"ruleType" validate:"required,rule_type"`
	ConditionOperator string `json:"conditionOperator" validate:"required,rule_operator"`
	ConditionValue    string `json:"conditionValue" validate:"max=500"`
	Points            int    `json:"points" validate:"min=-1000,max=1000"`
	IsActive          *bool  `json:"isActive,omitempty"`
}

// UpdateRuleRequest carries a partial update; nil fields keep their value.
type UpdateRuleRequest struct {
	Name              *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	RuleType          *string `json:"ruleType,omitempty" validate:"omitempty,rule_type"`
	ConditionOperator *string `json:"conditionOperator,omitempty" validate:"omitempty,rule_operator"`
	ConditionValue    *string `json:"conditionValue,omitempty" validate:"omitempty,max=500"`
	Points            *int    `json:"points,omitempty" validate:"omitempty,min=-1000,max=1000"`
	IsActive          *bool   `json:"isActive,omitempty"`
}

// RuleResponse represents a scoring rule in API responses.
type RuleResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	RuleType          string    `json:"ruleType"`
	ConditionOperator string    `json:"conditionOperator"`
	ConditionValue    string    `json:"conditionValue"`
	Points            int       `json:"points"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// RuleListResponse wraps an owner's rules.
type RuleListResponse struct {
	Items []RuleResponse `json:"items"`
	Total int            `json:"total"`
}

// SeedDefaultsResponse reports how many default rules were installed.
type SeedDefaultsResponse struct {
	Created int            `json:"created"`
	Items   []RuleResponse `json:"items"`
}

// RegisterValidations installs the rule_type and rule_operator tags.
func RegisterValidations(register func(tag string, fn validator.Func) error) error {
	if err := register("rule_type", func(fl validator.FieldLevel) bool {
		return domain.RuleType(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return register("rule_operator", func(fl validator.FieldLevel) bool {
		return domain.Operator(fl.Field().String()).Valid()
	})
}
