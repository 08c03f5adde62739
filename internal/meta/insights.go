package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// insightsFields is the fixed field list requested from the insights edge.
const insightsFields = "impressions,clicks,spend,cpm,cpc,ctr,reach,frequency,actions,cost_per_action_type"

// conversionActionTypes are the action types counted as conversions when
// summing the heterogeneous actions list.
var conversionActionTypes = map[string]bool{
	"purchase":                             true,
	"offsite_conversion.fb_pixel_purchase": true,
	"complete_registration":                true,
	"add_to_cart":                          true,
}

// Window is the time window for an insights query: either a named remote
// preset (e.g. "last_7d") or an explicit since/until pair. An explicit pair
// takes precedence over a preset.
type Window struct {
	Preset string
	Since  time.Time
	Until  time.Time
}

// LookbackWindow returns an explicit window covering the trailing duration
// up to now, as used by rule evaluation.
func LookbackWindow(hours int) Window {
	now := time.Now().UTC()
	return Window{Since: now.Add(-time.Duration(hours) * time.Hour), Until: now}
}

func (w Window) apply(params url.Values) {
	if !w.Since.IsZero() && !w.Until.IsZero() {
		tr := fmt.Sprintf(`{"since":"%s","until":"%s"}`,
			w.Since.Format("2006-01-02"), w.Until.Format("2006-01-02"))
		params.Set("time_range", tr)
		return
	}
	preset := w.Preset
	if preset == "" {
		preset = "last_7d"
	}
	params.Set("date_preset", preset)
}

// GetInsights retrieves performance metrics for one entity over the window.
// Returns nil (not a zero-filled row) when the remote API has no rows for
// the window, so callers can tell "no data yet" from a measured zero.
func (c *Client) GetInsights(ctx context.Context, token, entityID string, w Window) (*InsightsRow, error) {
	rows, err := c.GetInsightsBreakdown(ctx, token, entityID, w, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetInsightsBreakdown retrieves insights rows, optionally segmented by the
// given breakdown dimensions (e.g. "age", "publisher_platform").
func (c *Client) GetInsightsBreakdown(ctx context.Context, token, entityID string, w Window, breakdowns []string) ([]InsightsRow, error) {
	params := url.Values{}
	params.Set("fields", insightsFields)
	w.apply(params)
	if len(breakdowns) > 0 {
		params.Set("breakdowns", strings.Join(breakdowns, ","))
	}

	body, err := c.call(ctx, http.MethodGet, "/"+entityID+"/insights", token, params)
	if err != nil {
		return nil, err
	}

	var envelope insightsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse insights response: %w", err)
	}

	rows := make([]InsightsRow, 0, len(envelope.Data))
	for _, raw := range envelope.Data {
		row, err := normalizeRow(raw, breakdowns)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// normalizeRow parses one wire row into numeric form and derives the
// conversions count from the actions list.
func normalizeRow(raw json.RawMessage, breakdowns []string) (InsightsRow, error) {
	var wire rawInsightsRow
	if err := json.Unmarshal(raw, &wire); err != nil {
		return InsightsRow{}, fmt.Errorf("failed to parse insights row: %w", err)
	}

	row := InsightsRow{
		Impressions: parseInt(wire.Impressions),
		Clicks:      parseInt(wire.Clicks),
		Spend:       parseFloat(wire.Spend),
		Reach:       parseInt(wire.Reach),
		Frequency:   parseFloat(wire.Frequency),
		CTR:         parseFloat(wire.CTR),
		CPC:         parseFloat(wire.CPC),
		CPM:         parseFloat(wire.CPM),
		Conversions: sumConversions(wire.Actions),
		DateStart:   wire.DateStart,
		DateStop:    wire.DateStop,
	}

	if len(breakdowns) > 0 {
		var generic map[string]json.RawMessage
		if err := json.Unmarshal(raw, &generic); err == nil {
			row.Breakdowns = make(map[string]string, len(breakdowns))
			for _, b := range breakdowns {
				var v string
				if err := json.Unmarshal(generic[b], &v); err == nil {
					row.Breakdowns[b] = v
				}
			}
		}
	}
	return row, nil
}

// sumConversions filters the actions list for recognized conversion action
// types and sums their values.
func sumConversions(actions []graphAction) int64 {
	var total int64
	for _, a := range actions {
		if conversionActionTypes[a.ActionType] {
			total += parseInt(a.Value)
		}
	}
	return total
}

func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some action values arrive as decimals.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return n
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
