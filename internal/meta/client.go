// Package meta implements the Marketing Graph API client: authenticated
// form-encoded requests, bounded retry with exponential backoff for
// transient platform errors, and translation of the remote error envelope
// into user-safe messages.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/pkg/logger"
)

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds Graph API client configuration.
type Config struct {
	BaseURL    string // defaults to https://graph.facebook.com
	APIVersion string // defaults to v23.0
	MaxRetries int    // retries after the initial attempt, defaults to 3
}

// Client is the Marketing API client. All methods take the access token
// explicitly; tokens are per-shop and must never be stored on the client or
// written to logs.
type Client struct {
	baseURL    string
	version    string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	httpClient HTTPDoer

	// sleep is overridable in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new Marketing API client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://graph.facebook.com"
	}
	if config.APIVersion == "" {
		config.APIVersion = "v23.0"
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		version:    config.APIVersion,
		maxRetries: config.MaxRetries,
		baseDelay:  1 * time.Second,
		maxDelay:   30 * time.Second,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sleep:      sleepCtx,
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client HTTPDoer) {
	c.httpClient = client
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backoffDelay returns the deterministic delay before retry n (1-based):
// baseDelay * 2^(n-1), capped at maxDelay. Delays are non-decreasing so
// the client cooperates with the platform's rate limiter.
func (c *Client) backoffDelay(attempt int) time.Duration {
	d := float64(c.baseDelay) * math.Pow(2, float64(attempt-1))
	if d > float64(c.maxDelay) {
		d = float64(c.maxDelay)
	}
	return time.Duration(d)
}

// call performs one authenticated Graph API call with bounded retries.
// POST parameters are form-encoded; GET parameters go in the query string.
// The access token is added to the outgoing parameters here and is the one
// value never included in log output.
func (c *Client) call(ctx context.Context, method, path, token string, params url.Values) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", token)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt)
			logger.Warn("retrying ads API call",
				"method", method, "path", path,
				"attempt", attempt, "delay", delay.String())
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		body, err := c.doOnce(ctx, method, path, params)
		if err == nil {
			return body, nil
		}
		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok {
			// Transport-level failure (connection reset, timeout).
			// Retry unless the caller's context is gone.
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}
		if apiErr.Code != 0 {
			if !isRetryableCode(apiErr.Code) {
				return nil, apiErr
			}
		} else if !isRetryableStatus(apiErr.HTTPStatus) {
			return nil, apiErr
		}
	}
	return nil, lastErr
}

// doOnce executes a single attempt and maps any non-2xx response to an
// *APIError with a translated message.
func (c *Client) doOnce(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s/%s%s", c.baseURL, c.version, path)

	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, reqURL+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, reqURL, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	apiErr := &APIError{
		HTTPStatus: resp.StatusCode,
		Message:    fmt.Sprintf("ads API request failed (status %d)", resp.StatusCode),
	}
	var envelope graphErrorEnvelope
	if jsonErr := json.Unmarshal(respBody, &envelope); jsonErr == nil && envelope.Error != nil {
		ge := *envelope.Error
		apiErr.Code = ge.Code
		apiErr.Subcode = ge.ErrorSubcode
		apiErr.Type = ge.Type
		apiErr.FBTraceID = ge.FBTraceID
		apiErr.Message = translate(ge)
	}
	// Numeric code and trace id are for operators; the token never appears
	// in the path or these fields.
	logger.Error("ads API error",
		"method", method, "path", path,
		"status", resp.StatusCode, "code", apiErr.Code,
		"subcode", apiErr.Subcode, "fbtrace_id", apiErr.FBTraceID)
	return nil, apiErr
}

// BudgetCents converts a monetary amount to the integer minor-unit
// representation the remote API expects.
func BudgetCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// setBudgetField populates exactly one of the two mutually exclusive budget
// fields according to the budget type.
func setBudgetField(params url.Values, budgetType domain.BudgetType, cents int64) {
	if budgetType == domain.BudgetLifetime {
		params.Set("lifetime_budget", strconv.FormatInt(cents, 10))
		return
	}
	params.Set("daily_budget", strconv.FormatInt(cents, 10))
}

// CampaignParams holds the fields for creating a remote campaign.
type CampaignParams struct {
	Name         string
	Objective    domain.CampaignObjective
	BudgetType   domain.BudgetType
	BudgetAmount float64
}

// CreateCampaign creates a remote campaign in PAUSED state and returns its id.
// Activation is a separate, explicit step never implied by creation.
func (c *Client) CreateCampaign(ctx context.Context, token, accountID string, p CampaignParams) (string, error) {
	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("objective", string(p.Objective))
	params.Set("status", string(StatusPaused))
	params.Set("special_ad_categories", "[]")
	setBudgetField(params, p.BudgetType, BudgetCents(p.BudgetAmount))

	body, err := c.call(ctx, http.MethodPost, fmt.Sprintf("/act_%s/campaigns", accountID), token, params)
	if err != nil {
		return "", err
	}
	return parseCreatedID(body)
}

// AdSetParams holds the fields for creating a remote ad set.
type AdSetParams struct {
	Name             string
	CampaignID       string
	OptimizationGoal string
	BillingEvent     string
	Targeting        json.RawMessage
	BudgetType       domain.BudgetType
	BudgetAmount     float64
}

// CreateAdSet creates a remote ad set under the given campaign, PAUSED.
func (c *Client) CreateAdSet(ctx context.Context, token, accountID string, p AdSetParams) (string, error) {
	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("campaign_id", p.CampaignID)
	params.Set("optimization_goal", p.OptimizationGoal)
	params.Set("billing_event", p.BillingEvent)
	params.Set("status", string(StatusPaused))
	if len(p.Targeting) > 0 {
		params.Set("targeting", string(p.Targeting))
	}
	setBudgetField(params, p.BudgetType, BudgetCents(p.BudgetAmount))

	body, err := c.call(ctx, http.MethodPost, fmt.Sprintf("/act_%s/adsets", accountID), token, params)
	if err != nil {
		return "", err
	}
	return parseCreatedID(body)
}

// CreativeParams holds the fields for creating a remote ad creative.
type CreativeParams struct {
	Name             string
	PageID           string
	InstagramActorID string
	Link             string
	Message          string
	Headline         string
	Description      string
	CallToAction     string
	ImageURL         string
}

// CreateCreative creates a remote creative from an object story spec.
func (c *Client) CreateCreative(ctx context.Context, token, accountID string, p CreativeParams) (string, error) {
	linkData := map[string]interface{}{
		"link":        p.Link,
		"message":     p.Message,
		"name":        p.Headline,
		"description": p.Description,
	}
	if p.CallToAction != "" {
		linkData["call_to_action"] = map[string]interface{}{
			"type":  p.CallToAction,
			"value": map[string]string{"link": p.Link},
		}
	}
	if p.ImageURL != "" {
		linkData["picture"] = p.ImageURL
	}
	storySpec := map[string]interface{}{
		"page_id":   p.PageID,
		"link_data": linkData,
	}
	specJSON, err := json.Marshal(storySpec)
	if err != nil {
		return "", fmt.Errorf("failed to encode object story spec: %w", err)
	}

	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("object_story_spec", string(specJSON))
	if p.InstagramActorID != "" {
		params.Set("instagram_actor_id", p.InstagramActorID)
	}

	body, err := c.call(ctx, http.MethodPost, fmt.Sprintf("/act_%s/adcreatives", accountID), token, params)
	if err != nil {
		return "", err
	}
	return parseCreatedID(body)
}

// CreateAd binds an ad set and a creative into a remote ad, PAUSED.
func (c *Client) CreateAd(ctx context.Context, token, accountID, name, adSetID, creativeID string) (string, error) {
	creative, err := json.Marshal(map[string]string{"creative_id": creativeID})
	if err != nil {
		return "", fmt.Errorf("failed to encode creative reference: %w", err)
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("adset_id", adSetID)
	params.Set("creative", string(creative))
	params.Set("status", string(StatusPaused))

	body, err := c.call(ctx, http.MethodPost, fmt.Sprintf("/act_%s/ads", accountID), token, params)
	if err != nil {
		return "", err
	}
	return parseCreatedID(body)
}

// UpdateStatus sets the remote status of a campaign, ad set or ad.
func (c *Client) UpdateStatus(ctx context.Context, token, entityID string, status EntityStatus) error {
	params := url.Values{}
	params.Set("status", string(status))
	body, err := c.call(ctx, http.MethodPost, "/"+entityID, token, params)
	if err != nil {
		return err
	}
	return parseUpdateAck(body)
}

// UpdateBudget pushes a new budget (in whole currency units) to the remote
// campaign.
func (c *Client) UpdateBudget(ctx context.Context, token, entityID string, budgetType domain.BudgetType, amount float64) error {
	params := url.Values{}
	setBudgetField(params, budgetType, BudgetCents(amount))
	body, err := c.call(ctx, http.MethodPost, "/"+entityID, token, params)
	if err != nil {
		return err
	}
	return parseUpdateAck(body)
}

// GetAdAccounts lists the ad accounts visible to the token's user.
func (c *Client) GetAdAccounts(ctx context.Context, token string) ([]AdAccount, error) {
	params := url.Values{}
	params.Set("fields", "account_id,name,currency,account_status")
	body, err := c.call(ctx, http.MethodGet, "/me/adaccounts", token, params)
	if err != nil {
		return nil, err
	}
	var list adAccountList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse ad accounts response: %w", err)
	}
	return list.Data, nil
}

// parseUpdateAck checks the {"success":true} acknowledgement of an update
// POST. A 2xx body without it means the platform did not apply the change.
func parseUpdateAck(body json.RawMessage) error {
	var ack successResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return fmt.Errorf("failed to parse update response: %w", err)
	}
	if !ack.Success {
		return fmt.Errorf("update was not acknowledged by the ads API")
	}
	return nil
}

func parseCreatedID(body json.RawMessage) (string, error) {
	var created createResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("failed to parse create response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create response contained no id")
	}
	return created.ID, nil
}
