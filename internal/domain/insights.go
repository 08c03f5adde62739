package domain

import "time"

// PerformanceSnapshot is a point-in-time read of one entity's delivery and
// cost metrics over a time window. It is computed fresh per optimization
// pass, never persisted as its own table. A nil snapshot means the remote
// API had no rows for the window ("no data yet"), which callers must
// distinguish from a measured zero.
type PerformanceSnapshot struct {
	EntityID    string    `json:"entity_id"`
	Since       time.Time `json:"since"`
	Until       time.Time `json:"until"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Spend       float64   `json:"spend"`
	Reach       int64     `json:"reach"`
	Frequency   float64   `json:"frequency"`
	CTR         float64   `json:"ctr"`
	CPC         float64   `json:"cpc"`
	CPM         float64   `json:"cpm"`
	Conversions int64     `json:"conversions"`
	ROAS        float64   `json:"roas"`
}

// Metric returns the named metric value from the snapshot. The bool result
// is false for metric names the rule engine does not recognize.
func (s *PerformanceSnapshot) Metric(name string) (float64, bool) {
	switch name {
	case "impressions":
		return float64(s.Impressions), true
	case "clicks":
		return float64(s.Clicks), true
	case "spend":
		return s.Spend, true
	case "reach":
		return float64(s.Reach), true
	case "frequency":
		return s.Frequency, true
	case "ctr":
		return s.CTR, true
	case "cpc":
		return s.CPC, true
	case "cpm":
		return s.CPM, true
	case "conversions":
		return float64(s.Conversions), true
	case "roas":
		return s.ROAS, true
	}
	return 0, false
}
