package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/pkg/httputil"
	"github.com/ignite/adpilot/internal/service/optimization"
)

// RunOptimization runs every enabled rule against every active campaign
// and executes the actions that fire. Per-campaign failures are counted in
// the result, not surfaced as a request error.
func (h *Handlers) RunOptimization(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials(r)
	if err != nil {
		respondError(w, err)
		return
	}
	result, err := h.engine.Run(r.Context(), creds)
	if err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, result)
}

// GetRecommendations evaluates the rules without executing anything.
func (h *Handlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials(r)
	if err != nil {
		respondError(w, err)
		return
	}
	recs, err := h.engine.Recommendations(r.Context(), creds)
	if err != nil {
		respondError(w, err)
		return
	}
	if recs == nil {
		recs = []optimization.CampaignRecommendations{}
	}
	httputil.OK(w, map[string]interface{}{"recommendations": recs})
}

// GetOptimizationLog returns the most recent executed actions.
func (h *Handlers) GetOptimizationLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.logs.ListRecent(r.Context(), shopFrom(r), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.OptimizationLogEntry{}
	}
	httputil.OK(w, map[string]interface{}{"log": entries})
}

// ListRules returns all rules for the shop, enabled or not.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.List(r.Context(), shopFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if rules == nil {
		rules = []domain.OptimizationRule{}
	}
	httputil.OK(w, map[string]interface{}{"rules": rules})
}

// CreateRule adds a custom rule for the shop.
func (h *Handlers) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule domain.OptimizationRule
	if !httputil.Decode(w, r, &rule) {
		return
	}
	rule.Shop = shopFrom(r)
	if msg := validateRule(&rule); msg != "" {
		httputil.BadRequest(w, msg)
		return
	}
	id, err := h.rules.Create(r.Context(), &rule)
	if err != nil {
		respondError(w, err)
		return
	}
	rule.ID = id
	httputil.Created(w, rule)
}

// DeleteRule removes a rule.
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.rules.Delete(r.Context(), shopFrom(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	httputil.NoContent(w)
}

// SetRuleEnabled toggles a rule on or off.
func (h *Handlers) SetRuleEnabled(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	if err := h.rules.SetEnabled(r.Context(), shopFrom(r), chi.URLParam(r, "id"), body.Enabled); err != nil {
		respondError(w, err)
		return
	}
	httputil.OK(w, map[string]bool{"enabled": body.Enabled})
}

func validateRule(rule *domain.OptimizationRule) string {
	if rule.Name == "" {
		return "name is required"
	}
	if _, ok := (&domain.PerformanceSnapshot{}).Metric(rule.Metric); !ok {
		return "unknown metric: " + rule.Metric
	}
	switch rule.Operator {
	case domain.OpGreaterThan, domain.OpLessThan, domain.OpEqual, domain.OpGreaterEqual, domain.OpLessEqual:
	default:
		return "unknown operator: " + string(rule.Operator)
	}
	switch rule.Action {
	case domain.ActionPause, domain.ActionChangeBid:
	case domain.ActionIncreaseBudget, domain.ActionDecreaseBudget:
		if rule.Percentage <= 0 {
			return "budget actions require a positive percentage"
		}
	default:
		return "unknown action: " + string(rule.Action)
	}
	if rule.LookbackHours <= 0 {
		return "lookback_hours must be positive"
	}
	return ""
}
