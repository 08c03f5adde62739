// Package optimization implements the rule-based campaign optimization
// engine: it evaluates each shop's rules against fresh performance
// snapshots and pushes the resulting pause/budget actions to the remote
// platform, mirroring locally only after the remote call succeeds.
package optimization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/meta"
	"github.com/ignite/adpilot/internal/pkg/logger"
	"github.com/ignite/adpilot/internal/service/campaign"
	"github.com/ignite/adpilot/internal/service/insights"
)

// ErrChangeBidNotImplemented marks the declared-but-unsupported change_bid
// action. It is logged (and audit-recorded) rather than executed so
// monitoring can detect attempted use.
var ErrChangeBidNotImplemented = errors.New("change_bid action is not implemented")

// GraphAPI is the subset of the Marketing API client the engine uses to
// execute actions.
type GraphAPI interface {
	UpdateStatus(ctx context.Context, token, entityID string, status meta.EntityStatus) error
	UpdateBudget(ctx context.Context, token, entityID string, budgetType domain.BudgetType, amount float64) error
}

// SnapshotProvider fetches performance snapshots (see service/insights).
type SnapshotProvider interface {
	Snapshot(ctx context.Context, creds insights.Credentials, entityID string, w meta.Window) (*domain.PerformanceSnapshot, error)
}

// Engine evaluates optimization rules and executes their actions.
type Engine struct {
	campaigns campaign.Repository
	rules     RuleRepository
	logs      LogRepository
	graph     GraphAPI
	snapshots SnapshotProvider
}

// NewEngine creates an optimization engine.
func NewEngine(campaigns campaign.Repository, rules RuleRepository, logs LogRepository, graph GraphAPI, snapshots SnapshotProvider) *Engine {
	return &Engine{
		campaigns: campaigns,
		rules:     rules,
		logs:      logs,
		graph:     graph,
		snapshots: snapshots,
	}
}

// Action describes one executed rule action.
type Action struct {
	CampaignID   string            `json:"campaign_id"`
	CampaignName string            `json:"campaign_name"`
	RuleID       string            `json:"rule_id"`
	RuleName     string            `json:"rule_name"`
	Action       domain.RuleAction `json:"action"`
	MetricValue  float64           `json:"metric_value"`
	Threshold    float64           `json:"threshold"`
	NewBudget    float64           `json:"new_budget,omitempty"`
}

// RunResult summarizes a batch optimization pass.
type RunResult struct {
	Processed int      `json:"processed"`
	Optimized int      `json:"optimized"`
	Errors    int      `json:"errors"`
	Actions   []Action `json:"actions"`
}

// Run evaluates all enabled rules against every active campaign for the
// shop. A single campaign's failure is counted and skipped, never fatal to
// the batch.
func (e *Engine) Run(ctx context.Context, creds insights.Credentials) (*RunResult, error) {
	rules, err := e.rules.ListEnabled(ctx, creds.Shop)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	active, err := e.campaigns.ListActive(ctx, creds.Shop)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}

	result := &RunResult{Actions: []Action{}}
	for i := range active {
		c := &active[i]
		result.Processed++

		actions, err := e.OptimizeCampaign(ctx, creds, c, rules)
		// Actions executed before a mid-campaign failure already happened
		// remotely; they belong in the report either way.
		if len(actions) > 0 {
			result.Optimized++
			result.Actions = append(result.Actions, actions...)
		}
		if err != nil {
			result.Errors++
			logger.Error("campaign optimization failed",
				"shop", creds.Shop, "campaign", c.ID, "error", err.Error())
		}
	}

	logger.Info("optimization run complete",
		"shop", creds.Shop, "processed", result.Processed,
		"optimized", result.Optimized, "errors", result.Errors)
	return result, nil
}

// OptimizeCampaign evaluates the rules against one campaign and executes
// every action whose condition holds. Snapshots are fetched once per
// distinct lookback window.
func (e *Engine) OptimizeCampaign(ctx context.Context, creds insights.Credentials, c *domain.Campaign, rules []domain.OptimizationRule) ([]Action, error) {
	if c.RemoteID == nil {
		return nil, campaign.ErrNotProvisioned
	}

	var executed []Action
	snapsByLookback := make(map[int]*domain.PerformanceSnapshot)

	for _, rule := range rules {
		snap, ok := snapsByLookback[rule.LookbackHours]
		if !ok {
			var err error
			snap, err = e.snapshots.Snapshot(ctx, creds, *c.RemoteID, meta.LookbackWindow(rule.LookbackHours))
			if err != nil {
				return executed, err
			}
			snapsByLookback[rule.LookbackHours] = snap
		}
		if snap == nil {
			// No data for this window yet; nothing to evaluate.
			continue
		}

		fired, value := CheckRule(rule, snap)
		if !fired {
			continue
		}

		action, err := e.execute(ctx, creds, c, rule, value, snap)
		if err != nil {
			if errors.Is(err, ErrChangeBidNotImplemented) {
				continue
			}
			return executed, err
		}
		executed = append(executed, action)
	}
	return executed, nil
}

// execute applies one fired rule's action: remote first, local mirror
// second, audit row last.
func (e *Engine) execute(ctx context.Context, creds insights.Credentials, c *domain.Campaign, rule domain.OptimizationRule, value float64, snap *domain.PerformanceSnapshot) (Action, error) {
	action := Action{
		CampaignID:   c.ID,
		CampaignName: c.Name,
		RuleID:       rule.ID,
		RuleName:     rule.Name,
		Action:       rule.Action,
		MetricValue:  value,
		Threshold:    rule.Threshold,
	}

	switch rule.Action {
	case domain.ActionPause:
		if err := e.graph.UpdateStatus(ctx, creds.MetaToken, *c.RemoteID, meta.StatusPaused); err != nil {
			return action, err
		}
		if err := e.campaigns.UpdateStatus(ctx, creds.Shop, c.ID, domain.CampaignPaused); err != nil {
			return action, err
		}
		c.Status = domain.CampaignPaused

	case domain.ActionIncreaseBudget, domain.ActionDecreaseBudget:
		factor := 1 + rule.Percentage/100
		if rule.Action == domain.ActionDecreaseBudget {
			factor = 1 - rule.Percentage/100
		}
		newBudget := math.Round(c.BudgetAmount * factor)
		if err := e.graph.UpdateBudget(ctx, creds.MetaToken, *c.RemoteID, c.BudgetType, newBudget); err != nil {
			return action, err
		}
		if err := e.campaigns.UpdateBudget(ctx, creds.Shop, c.ID, newBudget); err != nil {
			return action, err
		}
		c.BudgetAmount = newBudget
		action.NewBudget = newBudget

	case domain.ActionChangeBid:
		logger.Warn("change_bid rule fired but the action is not implemented",
			"shop", creds.Shop, "campaign", c.ID, "rule", rule.Name)
		e.writeLog(ctx, creds.Shop, c, rule, value, snap)
		return action, ErrChangeBidNotImplemented

	default:
		return action, fmt.Errorf("unknown rule action %q", rule.Action)
	}

	e.writeLog(ctx, creds.Shop, c, rule, value, snap)
	return action, nil
}

// writeLog records the audit entry for a triggered rule. Audit failures
// are logged, not propagated: the remote action already happened.
func (e *Engine) writeLog(ctx context.Context, shop string, c *domain.Campaign, rule domain.OptimizationRule, value float64, snap *domain.PerformanceSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		raw = json.RawMessage("{}")
	}
	entry := &domain.OptimizationLogEntry{
		ID:             uuid.New().String(),
		Shop:           shop,
		CampaignID:     c.ID,
		RuleID:         rule.ID,
		RuleName:       rule.Name,
		Action:         rule.Action,
		TriggerMetric:  rule.Metric,
		TriggerValue:   value,
		ThresholdValue: rule.Threshold,
		Snapshot:       raw,
	}
	if err := e.logs.Insert(ctx, entry); err != nil {
		logger.Error("failed to write optimization log entry",
			"shop", shop, "campaign", c.ID, "error", err.Error())
	}
}

// Recommendation is one rule that would fire, with the evidence.
type Recommendation struct {
	RuleID      string            `json:"rule_id"`
	RuleName    string            `json:"rule_name"`
	Action      domain.RuleAction `json:"action"`
	Metric      string            `json:"metric"`
	MetricValue float64           `json:"metric_value"`
	Threshold   float64           `json:"threshold"`
	Reason      string            `json:"reason"`
}

// CampaignRecommendations groups the rules that would fire for one
// campaign.
type CampaignRecommendations struct {
	CampaignID      string           `json:"campaign_id"`
	CampaignName    string           `json:"campaign_name"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommendations evaluates every enabled rule against every active
// campaign without executing anything, for human-in-the-loop review.
func (e *Engine) Recommendations(ctx context.Context, creds insights.Credentials) ([]CampaignRecommendations, error) {
	rules, err := e.rules.ListEnabled(ctx, creds.Shop)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	active, err := e.campaigns.ListActive(ctx, creds.Shop)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}

	var out []CampaignRecommendations
	for i := range active {
		c := &active[i]
		if c.RemoteID == nil {
			continue
		}

		recs := CampaignRecommendations{CampaignID: c.ID, CampaignName: c.Name}
		snapsByLookback := make(map[int]*domain.PerformanceSnapshot)

		for _, rule := range rules {
			snap, ok := snapsByLookback[rule.LookbackHours]
			if !ok {
				snap, err = e.snapshots.Snapshot(ctx, creds, *c.RemoteID, meta.LookbackWindow(rule.LookbackHours))
				if err != nil {
					logger.Error("recommendation snapshot failed",
						"shop", creds.Shop, "campaign", c.ID, "error", err.Error())
					break
				}
				snapsByLookback[rule.LookbackHours] = snap
			}
			fired, value := CheckRule(rule, snap)
			if !fired {
				continue
			}
			recs.Recommendations = append(recs.Recommendations, Recommendation{
				RuleID:      rule.ID,
				RuleName:    rule.Name,
				Action:      rule.Action,
				Metric:      rule.Metric,
				MetricValue: value,
				Threshold:   rule.Threshold,
				Reason: fmt.Sprintf("%s %.2f %s threshold %.2f over the last %dh",
					rule.Metric, value, rule.Operator, rule.Threshold, rule.LookbackHours),
			})
		}
		if len(recs.Recommendations) > 0 {
			out = append(out, recs)
		}
	}
	return out, nil
}
