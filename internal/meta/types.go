package meta

import "encoding/json"

// graphError is the error object inside the Graph API error envelope.
type graphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	ErrorUserMsg string `json:"error_user_msg"`
	FBTraceID    string `json:"fbtrace_id"`
}

// graphErrorEnvelope is the standard error response shape.
type graphErrorEnvelope struct {
	Error *graphError `json:"error"`
}

// createResponse is the standard response to an object-creation POST.
type createResponse struct {
	ID string `json:"id"`
}

// successResponse is the standard response to an update POST.
type successResponse struct {
	Success bool `json:"success"`
}

// EntityStatus is the remote status value for campaigns, ad sets and ads.
type EntityStatus string

const (
	StatusActive  EntityStatus = "ACTIVE"
	StatusPaused  EntityStatus = "PAUSED"
	StatusDeleted EntityStatus = "DELETED"
)

// AdAccount is one row of GET /me/adaccounts.
type AdAccount struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	AccountStatus int    `json:"account_status"`
}

type adAccountList struct {
	Data []AdAccount `json:"data"`
}

// InsightsRow is one normalized row of GET /{id}/insights. The Graph API
// returns every number as a string; normalization parses them once here so
// downstream code works with real numbers.
type InsightsRow struct {
	Impressions int64
	Clicks      int64
	Spend       float64
	Reach       int64
	Frequency   float64
	CTR         float64
	CPC         float64
	CPM         float64
	// Conversions is derived from the actions list by summing recognized
	// conversion action types.
	Conversions int64
	DateStart   string
	DateStop    string
	// Breakdown values (e.g. age, publisher_platform) when breakdowns were
	// requested, keyed by breakdown name.
	Breakdowns map[string]string
}

// rawInsightsRow mirrors the wire format before normalization.
type rawInsightsRow struct {
	Impressions string       `json:"impressions"`
	Clicks      string       `json:"clicks"`
	Spend       string       `json:"spend"`
	Reach       string       `json:"reach"`
	Frequency   string       `json:"frequency"`
	CTR         string       `json:"ctr"`
	CPC         string       `json:"cpc"`
	CPM         string       `json:"cpm"`
	Actions     []graphAction `json:"actions"`
	DateStart   string        `json:"date_start"`
	DateStop    string        `json:"date_stop"`
}

// graphAction is one typed action object in the insights actions list.
type graphAction struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

type insightsEnvelope struct {
	Data []json.RawMessage `json:"data"`
}
