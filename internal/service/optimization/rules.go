package optimization

import (
	"github.com/ignite/adpilot/internal/domain"
)

// DefaultRules returns the rule set a shop starts with. Every rule is
// independently toggleable once persisted.
func DefaultRules(shop string) []domain.OptimizationRule {
	return []domain.OptimizationRule{
		{
			Shop:          shop,
			Name:          "High CPC pause",
			Metric:        "cpc",
			Operator:      domain.OpGreaterThan,
			Threshold:     5.0,
			LookbackHours: 24,
			Action:        domain.ActionPause,
			Enabled:       true,
		},
		{
			Shop:          shop,
			Name:          "Low CTR pause",
			Metric:        "ctr",
			Operator:      domain.OpLessThan,
			Threshold:     0.5,
			LookbackHours: 48,
			Action:        domain.ActionPause,
			Enabled:       true,
		},
		{
			Shop:          shop,
			Name:          "High ROAS budget increase",
			Metric:        "roas",
			Operator:      domain.OpGreaterThan,
			Threshold:     4.0,
			LookbackHours: 24,
			Action:        domain.ActionIncreaseBudget,
			Percentage:    20,
			Enabled:       true,
		},
		{
			Shop:          shop,
			Name:          "Low ROAS budget decrease",
			Metric:        "roas",
			Operator:      domain.OpLessThan,
			Threshold:     1.5,
			LookbackHours: 48,
			Action:        domain.ActionDecreaseBudget,
			Percentage:    30,
			Enabled:       true,
		},
		{
			Shop:          shop,
			Name:          "High frequency pause",
			Metric:        "frequency",
			Operator:      domain.OpGreaterThan,
			Threshold:     3.0,
			LookbackHours: 72,
			Action:        domain.ActionPause,
			Enabled:       true,
		},
	}
}

// CheckRule evaluates one rule against a snapshot. It is a pure function:
// given the same rule and snapshot it always returns the same result and
// has no side effects. The second return is the metric value that was
// compared. A nil snapshot or unknown metric never fires.
func CheckRule(rule domain.OptimizationRule, snap *domain.PerformanceSnapshot) (bool, float64) {
	if snap == nil {
		return false, 0
	}
	value, ok := snap.Metric(rule.Metric)
	if !ok {
		return false, 0
	}
	switch rule.Operator {
	case domain.OpGreaterThan:
		return value > rule.Threshold, value
	case domain.OpLessThan:
		return value < rule.Threshold, value
	case domain.OpEqual:
		return value == rule.Threshold, value
	case domain.OpGreaterEqual:
		return value >= rule.Threshold, value
	case domain.OpLessEqual:
		return value <= rule.Threshold, value
	}
	return false, value
}
