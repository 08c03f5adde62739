package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/adpilot/internal/meta"
	"github.com/ignite/adpilot/internal/pkg/httputil"
	"github.com/ignite/adpilot/internal/service/campaign"
)

// windowFrom builds an insights window from query parameters. An explicit
// since/until range wins over a preset. Dates are YYYY-MM-DD.
func windowFrom(r *http.Request) (meta.Window, error) {
	w := meta.Window{Preset: r.URL.Query().Get("preset")}
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return meta.Window{}, fmt.Errorf("invalid since date %q", v)
		}
		w.Since = t
	}
	if v := r.URL.Query().Get("until"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return meta.Window{}, fmt.Errorf("invalid until date %q", v)
		}
		w.Until = t
	}
	// A lone since or until would silently fall back to the preset and
	// answer for a different window than the caller asked about.
	if w.Since.IsZero() != w.Until.IsZero() {
		return meta.Window{}, fmt.Errorf("since and until must be provided together")
	}
	return w, nil
}

// GetCampaignInsights returns the performance snapshot for one campaign.
// With a breakdowns parameter it returns segmented raw rows instead. A
// window with no delivery yields an explicit no-data payload, not zeros.
func (h *Handlers) GetCampaignInsights(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials(r)
	if err != nil {
		respondError(w, err)
		return
	}

	c, err := h.campaigns.Get(r.Context(), creds.Shop, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	if c.RemoteID == nil {
		respondError(w, campaign.ErrNotProvisioned)
		return
	}

	window, err := windowFrom(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if raw := r.URL.Query().Get("breakdowns"); raw != "" {
		rows, err := h.insights.AdvancedInsights(r.Context(), creds, *c.RemoteID, window, strings.Split(raw, ","))
		if err != nil {
			respondError(w, err)
			return
		}
		httputil.OK(w, map[string]interface{}{"rows": rows})
		return
	}

	snap, err := h.insights.Snapshot(r.Context(), creds, *c.RemoteID, window)
	if err != nil {
		respondError(w, err)
		return
	}
	if snap == nil {
		httputil.OK(w, map[string]interface{}{"has_data": false})
		return
	}
	httputil.OK(w, map[string]interface{}{"has_data": true, "snapshot": snap})
}
