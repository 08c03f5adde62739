package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ignite/adpilot/internal/auth"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/meta"
	"github.com/ignite/adpilot/internal/pkg/httputil"
	"github.com/ignite/adpilot/internal/pkg/logger"
	"github.com/ignite/adpilot/internal/service/campaign"
	"github.com/ignite/adpilot/internal/service/insights"
	"github.com/ignite/adpilot/internal/service/optimization"
	"github.com/ignite/adpilot/internal/storage"
)

// CredentialStore resolves the stored platform tokens for a shop.
type CredentialStore interface {
	GetMetaToken(ctx context.Context, shop string) (string, error)
	GetShopifyToken(ctx context.Context, shop string) (string, error)
}

// AccountDirectory caches the ad accounts visible to a shop's token.
// SetDefault returns sql.ErrNoRows for an account id not in the cache.
type AccountDirectory interface {
	ReplaceAll(ctx context.Context, shop string, accounts []domain.AdAccount) error
	List(ctx context.Context, shop string) ([]domain.AdAccount, error)
	SetDefault(ctx context.Context, shop, accountID string) error
}

// AccountFetcher is the Marketing API surface the ad account endpoints use.
type AccountFetcher interface {
	GetAdAccounts(ctx context.Context, token string) ([]meta.AdAccount, error)
}

// Handlers carries the services behind the HTTP surface.
type Handlers struct {
	campaigns *campaign.Service
	insights  *insights.Service
	engine    *optimization.Engine
	rules     optimization.RuleRepository
	logs      optimization.LogRepository
	creds     CredentialStore
	accounts  AccountDirectory
	graph     AccountFetcher
	media     storage.MediaStore
}

// NewHandlers creates the handler set.
func NewHandlers(
	campaigns *campaign.Service,
	ins *insights.Service,
	engine *optimization.Engine,
	rules optimization.RuleRepository,
	logs optimization.LogRepository,
	creds CredentialStore,
	accounts AccountDirectory,
	graph AccountFetcher,
	media storage.MediaStore,
) *Handlers {
	return &Handlers{
		campaigns: campaigns,
		insights:  ins,
		engine:    engine,
		rules:     rules,
		logs:      logs,
		creds:     creds,
		accounts:  accounts,
		graph:     graph,
		media:     media,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

type shopKeyType struct{}

var shopKey shopKeyType

// RequireShop extracts the shop domain from the X-Shop-Domain header (or
// the shop query parameter) and rejects requests without one.
func (h *Handlers) RequireShop(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shop := r.Header.Get("X-Shop-Domain")
		if shop == "" {
			shop = r.URL.Query().Get("shop")
		}
		if shop == "" {
			httputil.BadRequest(w, "missing shop identifier")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), shopKey, shop)))
	})
}

func shopFrom(r *http.Request) string {
	shop, _ := r.Context().Value(shopKey).(string)
	return shop
}

// credentials resolves the shop's stored tokens. The Shopify token is
// optional: insights fall back to a default order value without it.
func (h *Handlers) credentials(r *http.Request) (insights.Credentials, error) {
	shop := shopFrom(r)
	metaToken, err := h.creds.GetMetaToken(r.Context(), shop)
	if err != nil {
		return insights.Credentials{}, err
	}
	shopifyToken, err := h.creds.GetShopifyToken(r.Context(), shop)
	if err != nil && !errors.Is(err, auth.ErrNotConnected) {
		return insights.Credentials{}, err
	}
	return insights.Credentials{Shop: shop, MetaToken: metaToken, ShopifyToken: shopifyToken}, nil
}

// respondError maps service errors to HTTP responses. Remote platform
// errors carry pre-sanitized messages; everything else gets a generic 500
// with the detail logged server-side.
func respondError(w http.ResponseWriter, err error) {
	var apiErr *meta.APIError
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, campaign.ErrInvalidInput):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, optimization.ErrRuleNotFound):
		httputil.NotFound(w, "rule not found")
	case errors.Is(err, campaign.ErrNotProvisioned):
		httputil.Error(w, http.StatusConflict, "campaign has not been provisioned remotely")
	case errors.Is(err, campaign.ErrTerminal):
		httputil.Error(w, http.StatusConflict, "campaign is in a terminal state")
	case errors.Is(err, auth.ErrNotConnected):
		httputil.Error(w, http.StatusUnauthorized, "facebook account not connected")
	case errors.As(err, &apiErr):
		logger.Warn("remote API error surfaced",
			"code", apiErr.Code, "subcode", apiErr.Subcode, "fbtrace_id", apiErr.FBTraceID)
		httputil.Error(w, apiErr.StatusHint(), apiErr.Message)
	default:
		httputil.InternalError(w, err)
	}
}
