package transport

// ListRulesRequest filters the rule list.
type ListRulesRequest struct {
	ActiveOnly bool `form:"active"`
}
