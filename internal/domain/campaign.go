package domain

import (
	"encoding/json"
	"time"
)

// CampaignStatus enumerates the lifecycle states of an ad campaign.
type CampaignStatus string

const (
	CampaignActive  CampaignStatus = "active"
	CampaignPaused  CampaignStatus = "paused"
	CampaignFailed  CampaignStatus = "failed"
	CampaignDeleted CampaignStatus = "deleted"
)

// CampaignObjective enumerates the Meta outcome-driven campaign objectives.
type CampaignObjective string

const (
	ObjectiveAwareness    CampaignObjective = "OUTCOME_AWARENESS"
	ObjectiveTraffic      CampaignObjective = "OUTCOME_TRAFFIC"
	ObjectiveEngagement   CampaignObjective = "OUTCOME_ENGAGEMENT"
	ObjectiveLeads        CampaignObjective = "OUTCOME_LEADS"
	ObjectiveAppPromotion CampaignObjective = "OUTCOME_APP_PROMOTION"
	ObjectiveSales        CampaignObjective = "OUTCOME_SALES"
)

// BudgetType selects which of the two mutually exclusive budget fields a
// campaign uses on the remote side.
type BudgetType string

const (
	BudgetDaily    BudgetType = "daily"
	BudgetLifetime BudgetType = "lifetime"
)

// AdAccount is a billable advertising entity on the remote platform
// (the act_{id} namespace). A shop owns many ad accounts; exactly one is
// the default at a time.
type AdAccount struct {
	ID        string    `json:"id" db:"id"`
	Shop      string    `json:"shop" db:"shop"`
	AccountID string    `json:"account_id" db:"account_id"`
	Name      string    `json:"name" db:"name"`
	Currency  string    `json:"currency" db:"currency"`
	Status    string    `json:"status" db:"status"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Campaign is the local record mirroring one remote campaign tree.
// RemoteID is nil until the full Campaign→AdSet→Creative→Ad chain has been
// created remotely; a chain that fails partway leaves the record in
// CampaignFailed with whatever remote ids did get created, for cleanup.
type Campaign struct {
	ID           string            `json:"id" db:"id"`
	Shop         string            `json:"shop" db:"shop"`
	AdAccountID  string            `json:"ad_account_id" db:"ad_account_id"`
	Name         string            `json:"name" db:"name"`
	Objective    CampaignObjective `json:"objective" db:"objective"`
	Status       CampaignStatus    `json:"status" db:"status"`
	BudgetAmount float64           `json:"budget_amount" db:"budget_amount"`
	BudgetType   BudgetType        `json:"budget_type" db:"budget_type"`

	RemoteID         *string `json:"remote_id" db:"remote_id"`
	RemoteAdSetID    *string `json:"remote_adset_id" db:"remote_adset_id"`
	RemoteCreativeID *string `json:"remote_creative_id" db:"remote_creative_id"`
	RemoteAdID       *string `json:"remote_ad_id" db:"remote_ad_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true if the campaign is in a final state.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignDeleted || c.Status == CampaignFailed
}

// AdSetSpec holds the targeting/budget/schedule layer of a campaign tree.
// Targeting is an opaque structured blob passed through to the remote API.
type AdSetSpec struct {
	Name             string          `json:"name"`
	OptimizationGoal string          `json:"optimization_goal"`
	BillingEvent     string          `json:"billing_event"`
	Targeting        json.RawMessage `json:"targeting"`
}

// CreativeSpec holds the ad copy and media references for a creative.
// Creatives are immutable once created remotely.
type CreativeSpec struct {
	Name             string `json:"name"`
	PageID           string `json:"page_id"`
	InstagramActorID string `json:"instagram_actor_id,omitempty"`
	Link             string `json:"link"`
	PrimaryText      string `json:"primary_text"`
	Headline         string `json:"headline"`
	Description      string `json:"description"`
	CallToAction     string `json:"call_to_action"`
	MediaRef         string `json:"media_ref,omitempty"`
}
