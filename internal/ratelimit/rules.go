package ratelimit

import (
	"strings"
	"time"
)

// Rule names used by the HTTP handlers.
const (
	RuleAnalytics = "analytics"
	RuleContact   = "contact"
)

// DefaultRules returns the built-in rules keyed by name.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		RuleAnalytics: {Name: RuleAnalytics, KeyPrefix: "analytics", Limit: 180, Window: time.Minute},
		RuleContact:   {Name: RuleContact, KeyPrefix: "contact", Limit: 4, Window: 10 * time.Minute},
	}
}

// RuleOverride adjusts a built-in rule. Zero values keep the default.
type RuleOverride struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// Rules resolves the effective rule set from defaults and overrides.
// Overrides for unknown names define new rules when both fields are set.
func Rules(overrides map[string]RuleOverride) map[string]Rule {
	rules := DefaultRules()
	for name, override := range overrides {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		rule, ok := rules[name]
		if !ok {
			rule = Rule{Name: name, KeyPrefix: name}
		}
		if override.Limit > 0 {
			rule.Limit = override.Limit
		}
		if override.Window > 0 {
			rule.Window = override.Window
		}
		if rule.Validate() != nil {
			continue
		}
		rules[name] = rule
	}
	return rules
}
