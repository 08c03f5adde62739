package domain

import (
	"encoding/json"
	"time"
)

// RuleOperator is the comparison applied between a metric value and a
// rule's threshold.
type RuleOperator string

const (
	OpGreaterThan  RuleOperator = ">"
	OpLessThan     RuleOperator = "<"
	OpEqual        RuleOperator = "=="
	OpGreaterEqual RuleOperator = ">="
	OpLessEqual    RuleOperator = "<="
)

// RuleAction enumerates what the engine does when a rule fires.
type RuleAction string

const (
	ActionPause          RuleAction = "pause"
	ActionIncreaseBudget RuleAction = "increase_budget"
	ActionDecreaseBudget RuleAction = "decrease_budget"
	// ActionChangeBid is declared but not executed; attempted use is logged
	// so monitoring can detect it.
	ActionChangeBid RuleAction = "change_bid"
)

// OptimizationRule evaluates one metric over a lookback window and triggers
// an action when the condition holds. Rules are independently toggleable.
type OptimizationRule struct {
	ID            string       `json:"id" db:"id"`
	Shop          string       `json:"shop" db:"shop"`
	Name          string       `json:"name" db:"name"`
	Metric        string       `json:"metric" db:"metric"`
	Operator      RuleOperator `json:"operator" db:"operator"`
	Threshold     float64      `json:"threshold" db:"threshold"`
	LookbackHours int          `json:"lookback_hours" db:"lookback_hours"`
	Action        RuleAction   `json:"action" db:"action"`
	// Percentage applies to the budget actions: the budget is multiplied by
	// (1 ± Percentage/100) and rounded to the nearest whole currency unit.
	Percentage float64   `json:"percentage,omitempty" db:"percentage"`
	Enabled    bool      `json:"enabled" db:"enabled"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// OptimizationLogEntry records one executed (or attempted) rule action for
// audit, including the metric value that triggered it and the full snapshot.
type OptimizationLogEntry struct {
	ID             string          `json:"id" db:"id"`
	Shop           string          `json:"shop" db:"shop"`
	CampaignID     string          `json:"campaign_id" db:"campaign_id"`
	RuleID         string          `json:"rule_id" db:"rule_id"`
	RuleName       string          `json:"rule_name" db:"rule_name"`
	Action         RuleAction      `json:"action" db:"action"`
	TriggerMetric  string          `json:"trigger_metric" db:"trigger_metric"`
	TriggerValue   float64         `json:"trigger_value" db:"trigger_value"`
	ThresholdValue float64         `json:"threshold_value" db:"threshold_value"`
	Snapshot       json.RawMessage `json:"snapshot" db:"snapshot"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
