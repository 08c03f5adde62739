// Package insights turns raw Marketing API insights rows into
// PerformanceSnapshots, deriving the metrics the remote API does not
// provide directly (ROAS from conversions and the shop's average order
// value).
package insights

import (
	"context"

	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/meta"
	"github.com/ignite/adpilot/internal/pkg/logger"
	"github.com/ignite/adpilot/internal/shopify"
)

// GraphAPI is the subset of the Marketing API client this service uses.
type GraphAPI interface {
	GetInsights(ctx context.Context, token, entityID string, w meta.Window) (*meta.InsightsRow, error)
	GetInsightsBreakdown(ctx context.Context, token, entityID string, w meta.Window, breakdowns []string) ([]meta.InsightsRow, error)
}

// AOVProvider supplies a shop's average order value from recent order
// history.
type AOVProvider interface {
	AverageOrderValue(ctx context.Context, shop, accessToken string) (float64, error)
}

// Credentials carries the per-shop tokens a fetch needs. Tokens are passed
// through to the respective clients and never logged.
type Credentials struct {
	Shop         string
	MetaToken    string
	ShopifyToken string
}

// Service fetches and normalizes performance metrics.
type Service struct {
	graph  GraphAPI
	orders AOVProvider
}

// NewService creates an insights service.
func NewService(graph GraphAPI, orders AOVProvider) *Service {
	return &Service{graph: graph, orders: orders}
}

// Snapshot retrieves a performance snapshot for one entity over the window.
// Returns (nil, nil) when the remote API has no rows for the window, so
// callers can distinguish "no data yet" from a measured zero.
func (s *Service) Snapshot(ctx context.Context, creds Credentials, entityID string, w meta.Window) (*domain.PerformanceSnapshot, error) {
	row, err := s.graph.GetInsights(ctx, creds.MetaToken, entityID, w)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	snap := &domain.PerformanceSnapshot{
		EntityID:    entityID,
		Since:       w.Since,
		Until:       w.Until,
		Impressions: row.Impressions,
		Clicks:      row.Clicks,
		Spend:       row.Spend,
		Reach:       row.Reach,
		Frequency:   row.Frequency,
		CTR:         row.CTR,
		CPC:         row.CPC,
		CPM:         row.CPM,
		Conversions: row.Conversions,
	}
	snap.ROAS = s.roas(ctx, creds, row.Conversions, row.Spend)
	return snap, nil
}

// AdvancedInsights returns raw normalized rows, optionally segmented by
// breakdown dimensions, for reporting surfaces.
func (s *Service) AdvancedInsights(ctx context.Context, creds Credentials, entityID string, w meta.Window, breakdowns []string) ([]meta.InsightsRow, error) {
	return s.graph.GetInsightsBreakdown(ctx, creds.MetaToken, entityID, w, breakdowns)
}

// roas computes conversions × AOV / spend, guarding division by zero.
// A failed AOV lookup degrades to the fallback constant rather than
// failing the whole snapshot.
func (s *Service) roas(ctx context.Context, creds Credentials, conversions int64, spend float64) float64 {
	if spend == 0 {
		return 0
	}
	aov := shopify.DefaultAverageOrderValue
	if s.orders != nil && creds.ShopifyToken != "" {
		v, err := s.orders.AverageOrderValue(ctx, creds.Shop, creds.ShopifyToken)
		if err != nil {
			logger.Warn("AOV lookup failed, using fallback",
				"shop", creds.Shop, "error", err.Error())
		} else {
			aov = v
		}
	}
	return float64(conversions) * aov / spend
}
