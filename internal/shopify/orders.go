// Package shopify implements the thin Shopify Admin REST client this
// service needs: recent order history, used to derive the average order
// value that feeds the ROAS computation.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/adpilot/internal/pkg/httpretry"
)

// DefaultAverageOrderValue is used when a shop has no recent order history
// to derive an average from.
const DefaultAverageOrderValue = 50.0

// Config holds Shopify Admin API client configuration.
type Config struct {
	APIVersion     string // defaults to 2026-07
	TimeoutSeconds int
}

// Client is a Shopify Admin REST client scoped to order reads.
type Client struct {
	version    string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new Shopify Admin API client.
func NewClient(config Config) *Client {
	if config.APIVersion == "" {
		config.APIVersion = "2026-07"
	}
	timeout := 30 * time.Second
	if config.TimeoutSeconds > 0 {
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}
	return &Client{
		version:    config.APIVersion,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: timeout}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// Order is one row of the Admin orders endpoint, reduced to the fields the
// AOV computation reads.
type Order struct {
	ID         int64  `json:"id"`
	TotalPrice string `json:"total_price"`
	Currency   string `json:"currency"`
	CreatedAt  string `json:"created_at"`
}

type ordersResponse struct {
	Orders []Order `json:"orders"`
}

// shopURL builds the Admin API URL for a shop's myshopify domain. Tests
// override the scheme/host by passing a full URL as the shop.
func (c *Client) shopURL(shop, path string) string {
	if len(shop) > 4 && (shop[:7] == "http://" || shop[:8] == "https://") {
		return fmt.Sprintf("%s/admin/api/%s%s", shop, c.version, path)
	}
	return fmt.Sprintf("https://%s/admin/api/%s%s", shop, c.version, path)
}

// GetRecentOrders returns paid orders created in the last N days.
func (c *Client) GetRecentOrders(ctx context.Context, shop, accessToken string, days int) ([]Order, error) {
	since := time.Now().AddDate(0, 0, -days).UTC().Format(time.RFC3339)
	endpoint := c.shopURL(shop, "/orders.json") +
		"?status=any&financial_status=paid&limit=250&created_at_min=" + since

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("shopify API error (status %d)", resp.StatusCode)
	}

	var parsed ordersResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse orders response: %w", err)
	}
	return parsed.Orders, nil
}

// AverageOrderValue returns the mean total of recent paid orders, falling
// back to DefaultAverageOrderValue when the shop has no order history.
func (c *Client) AverageOrderValue(ctx context.Context, shop, accessToken string) (float64, error) {
	orders, err := c.GetRecentOrders(ctx, shop, accessToken, 30)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 {
		return DefaultAverageOrderValue, nil
	}

	var total float64
	var counted int
	for _, o := range orders {
		v, err := strconv.ParseFloat(o.TotalPrice, 64)
		if err != nil {
			continue
		}
		total += v
		counted++
	}
	if counted == 0 {
		return DefaultAverageOrderValue, nil
	}
	return total / float64(counted), nil
}
