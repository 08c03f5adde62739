// Package auth implements the Facebook OAuth flow a merchant walks through
// to connect their ad account, plus storage of the resulting long-lived
// access token per shop.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/pkg/logger"
)

// adsScopes are the permissions needed to manage campaigns and read
// insights on the merchant's behalf.
var adsScopes = []string{"ads_management", "ads_read", "business_management"}

// ErrNotConnected is returned by token stores when a shop has no stored
// token for the requested platform.
var ErrNotConnected = errors.New("shop has not connected this platform")

// TokenStore persists per-shop platform credentials.
type TokenStore interface {
	SaveMetaToken(ctx context.Context, shop, token string, expiresAt time.Time) error
	GetMetaToken(ctx context.Context, shop string) (string, error)
}

// Manager handles the Facebook OAuth connect flow.
type Manager struct {
	oauth2Config *oauth2.Config
	store        TokenStore
	baseURL      string
	httpClient   *http.Client
	graphBase    string

	// OnConnected, when set, runs after a shop's token is stored. Used to
	// provision per-shop defaults on first connect.
	OnConnected func(ctx context.Context, shop string)
}

// NewManager creates an OAuth manager. baseURL is this service's public
// origin, used to build the redirect URL Facebook calls back to.
func NewManager(cfg *config.MetaConfig, store TokenStore, baseURL string) *Manager {
	return &Manager{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  baseURL + "/auth/facebook/callback",
			Scopes:       adsScopes,
			Endpoint:     facebook.Endpoint,
		},
		store:      store,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		graphBase:  "https://graph.facebook.com/v19.0",
	}
}

// SetGraphBase overrides the Graph API origin, for tests.
func (m *Manager) SetGraphBase(base string) { m.graphBase = base }

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HandleConnect starts the OAuth flow for the shop named in the `shop`
// query parameter.
func (m *Manager) HandleConnect(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		http.Error(w, "missing shop parameter", http.StatusBadRequest)
		return
	}

	state, err := generateState()
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "fb_oauth_state",
		Value:    state + ":" + shop,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, m.oauth2Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback processes Facebook's redirect: verifies state, exchanges
// the code, upgrades to a long-lived token, and stores it for the shop.
func (m *Manager) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("fb_oauth_state")
	if err != nil {
		http.Redirect(w, r, "/?error=invalid_state", http.StatusTemporaryRedirect)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "fb_oauth_state", Value: "", Path: "/", MaxAge: -1})

	state, shop := splitStateCookie(stateCookie.Value)
	if shop == "" || r.URL.Query().Get("state") != state {
		http.Redirect(w, r, "/?error=invalid_state", http.StatusTemporaryRedirect)
		return
	}

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		logger.Warn("facebook oauth denied", "shop", shop, "error", errMsg)
		http.Redirect(w, r, "/?error="+url.QueryEscape(errMsg), http.StatusTemporaryRedirect)
		return
	}

	token, err := m.oauth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logger.Error("facebook code exchange failed", "shop", shop, "error", err.Error())
		http.Redirect(w, r, "/?error=exchange_failed", http.StatusTemporaryRedirect)
		return
	}

	longLived, expiresAt, err := m.exchangeLongLived(r.Context(), token.AccessToken)
	if err != nil {
		logger.Error("long-lived token exchange failed", "shop", shop, "error", err.Error())
		http.Redirect(w, r, "/?error=exchange_failed", http.StatusTemporaryRedirect)
		return
	}

	if err := m.store.SaveMetaToken(r.Context(), shop, longLived, expiresAt); err != nil {
		logger.Error("failed to store access token", "shop", shop, "error", err.Error())
		http.Redirect(w, r, "/?error=storage_failed", http.StatusTemporaryRedirect)
		return
	}

	if m.OnConnected != nil {
		m.OnConnected(r.Context(), shop)
	}

	logger.Info("facebook account connected", "shop", shop, "expires_at", expiresAt.Format(time.RFC3339))
	http.Redirect(w, r, "/?connected=facebook", http.StatusTemporaryRedirect)
}

func splitStateCookie(v string) (state, shop string) {
	for i := 0; i < len(v); i++ {
		if v[i] == ':' {
			return v[:i], v[i+1:]
		}
	}
	return v, ""
}

// exchangeLongLived trades the short-lived user token for a long-lived one
// (about 60 days).
func (m *Manager) exchangeLongLived(ctx context.Context, shortToken string) (string, time.Time, error) {
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", m.oauth2Config.ClientID)
	q.Set("client_secret", m.oauth2Config.ClientSecret)
	q.Set("fb_exchange_token", shortToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		m.graphBase+"/oauth/access_token?"+q.Encode(), nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token exchange failed (HTTP %d)", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", time.Time{}, fmt.Errorf("parse response: %w", err)
	}
	if out.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("empty access token in response")
	}

	expiresIn := out.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 60 * 24 * 60 * 60
	}
	return out.AccessToken, time.Now().Add(time.Duration(expiresIn) * time.Second), nil
}

// TokenFor returns the stored long-lived token for a shop.
func (m *Manager) TokenFor(ctx context.Context, shop string) (string, error) {
	return m.store.GetMetaToken(ctx, shop)
}
