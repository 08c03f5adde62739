package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/adpilot/internal/auth"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/meta"
	"github.com/ignite/adpilot/internal/service/campaign"
	"github.com/ignite/adpilot/internal/service/insights"
	"github.com/ignite/adpilot/internal/service/optimization"
)

const testShop = "demo.myshopify.com"

// memRepo is an in-memory campaign.Repository for handler tests.
type memRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
	nextID    int
}

func newMemRepo() *memRepo {
	return &memRepo{campaigns: make(map[string]*domain.Campaign)}
}

func (m *memRepo) Get(_ context.Context, shop, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Shop != shop {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, shop string, _ campaign.ListFilter) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		if c.Shop == shop {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memRepo) ListActive(_ context.Context, shop string) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		if c.Shop == shop && c.Status == domain.CampaignActive && c.RemoteID != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memRepo) Create(_ context.Context, c *domain.Campaign) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		m.nextID++
		c.ID = fmt.Sprintf("local-%d", m.nextID)
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	return c.ID, nil
}

func (m *memRepo) SetRemoteIDs(_ context.Context, shop, id string, ids campaign.RemoteIDs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Shop != shop {
		return campaign.ErrNotFound
	}
	set := func(dst **string, v string) {
		if v != "" {
			s := v
			*dst = &s
		}
	}
	set(&c.RemoteID, ids.CampaignID)
	set(&c.RemoteAdSetID, ids.AdSetID)
	set(&c.RemoteCreativeID, ids.CreativeID)
	set(&c.RemoteAdID, ids.AdID)
	return nil
}

func (m *memRepo) UpdateStatus(_ context.Context, shop, id string, status domain.CampaignStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Shop != shop {
		return campaign.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *memRepo) UpdateBudget(_ context.Context, shop, id string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Shop != shop {
		return campaign.ErrNotFound
	}
	c.BudgetAmount = amount
	return nil
}

func (m *memRepo) Delete(_ context.Context, shop, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Shop != shop {
		return campaign.ErrNotFound
	}
	delete(m.campaigns, id)
	return nil
}

// stubGraph implements every Marketing API surface the handlers reach.
type stubGraph struct {
	mu          sync.Mutex
	failStep    string
	statusCalls []string
	budgetCalls []string
	accounts    []meta.AdAccount
	insightsRow *meta.InsightsRow
}

func (g *stubGraph) fail(step string) error {
	if g.failStep == step {
		return &meta.APIError{Code: 100, Message: "Invalid parameter"}
	}
	return nil
}

func (g *stubGraph) CreateCampaign(_ context.Context, _, _ string, _ meta.CampaignParams) (string, error) {
	if err := g.fail(campaign.StepCampaign); err != nil {
		return "", err
	}
	return "rc-1", nil
}

func (g *stubGraph) CreateAdSet(_ context.Context, _, _ string, _ meta.AdSetParams) (string, error) {
	if err := g.fail(campaign.StepAdSet); err != nil {
		return "", err
	}
	return "rs-1", nil
}

func (g *stubGraph) CreateCreative(_ context.Context, _, _ string, _ meta.CreativeParams) (string, error) {
	if err := g.fail(campaign.StepCreative); err != nil {
		return "", err
	}
	return "cr-1", nil
}

func (g *stubGraph) CreateAd(_ context.Context, _, _, _, _, _ string) (string, error) {
	if err := g.fail(campaign.StepAd); err != nil {
		return "", err
	}
	return "ra-1", nil
}

func (g *stubGraph) UpdateStatus(_ context.Context, _, entityID string, status meta.EntityStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusCalls = append(g.statusCalls, entityID+":"+string(status))
	return nil
}

func (g *stubGraph) UpdateBudget(_ context.Context, _, entityID string, _ domain.BudgetType, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.budgetCalls = append(g.budgetCalls, fmt.Sprintf("%s:%g", entityID, amount))
	return nil
}

func (g *stubGraph) GetAdAccounts(_ context.Context, _ string) ([]meta.AdAccount, error) {
	return g.accounts, nil
}

func (g *stubGraph) GetInsights(_ context.Context, _, _ string, _ meta.Window) (*meta.InsightsRow, error) {
	return g.insightsRow, nil
}

func (g *stubGraph) GetInsightsBreakdown(_ context.Context, _, _ string, _ meta.Window, _ []string) ([]meta.InsightsRow, error) {
	if g.insightsRow == nil {
		return nil, nil
	}
	return []meta.InsightsRow{*g.insightsRow}, nil
}

type stubAOV struct{}

func (stubAOV) AverageOrderValue(context.Context, string, string) (float64, error) {
	return 50.0, nil
}

type stubRules struct {
	mu     sync.Mutex
	rules  []domain.OptimizationRule
	nextID int
}

func (s *stubRules) ListEnabled(_ context.Context, shop string) ([]domain.OptimizationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OptimizationRule
	for _, r := range s.rules {
		if r.Shop == shop && r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRules) List(_ context.Context, shop string) ([]domain.OptimizationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OptimizationRule
	for _, r := range s.rules {
		if r.Shop == shop {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRules) Create(_ context.Context, r *domain.OptimizationRule) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = fmt.Sprintf("rule-%d", s.nextID)
	s.rules = append(s.rules, *r)
	return r.ID, nil
}

func (s *stubRules) SetEnabled(_ context.Context, shop, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].Shop == shop && s.rules[i].ID == id {
			s.rules[i].Enabled = enabled
			return nil
		}
	}
	return optimization.ErrRuleNotFound
}

func (s *stubRules) SeedDefaults(context.Context, string) error { return nil }

func (s *stubRules) Delete(_ context.Context, shop, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].Shop == shop && s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return optimization.ErrRuleNotFound
}

type stubLogs struct {
	mu      sync.Mutex
	entries []domain.OptimizationLogEntry
}

func (s *stubLogs) Insert(_ context.Context, e *domain.OptimizationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *e)
	return nil
}

func (s *stubLogs) ListRecent(_ context.Context, shop string, _ int) ([]domain.OptimizationLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OptimizationLogEntry
	for _, e := range s.entries {
		if e.Shop == shop {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubCreds struct {
	metaToken string
	metaErr   error
}

func (s *stubCreds) GetMetaToken(context.Context, string) (string, error) {
	if s.metaErr != nil {
		return "", s.metaErr
	}
	return s.metaToken, nil
}

func (s *stubCreds) GetShopifyToken(context.Context, string) (string, error) {
	return "", auth.ErrNotConnected
}

type stubAccounts struct {
	mu     sync.Mutex
	cached []domain.AdAccount
}

func (s *stubAccounts) ReplaceAll(_ context.Context, _ string, accounts []domain.AdAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = accounts
	return nil
}

func (s *stubAccounts) List(context.Context, string) ([]domain.AdAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached, nil
}

func (s *stubAccounts) SetDefault(_ context.Context, _, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.cached {
		s.cached[i].IsDefault = s.cached[i].AccountID == accountID
		if s.cached[i].IsDefault {
			found = true
		}
	}
	if !found {
		return sql.ErrNoRows
	}
	return nil
}

type stubMedia struct{}

func (stubMedia) Upload(_ context.Context, shop, filename, _ string, _ io.Reader) (string, error) {
	return shop + "/" + filename, nil
}

func (stubMedia) ResolveURL(_ context.Context, ref string) (string, error) {
	return "http://media.test/" + ref, nil
}

func (stubMedia) Delete(context.Context, string) error { return nil }

type testEnv struct {
	router   http.Handler
	repo     *memRepo
	graph    *stubGraph
	rules    *stubRules
	logs     *stubLogs
	accounts *stubAccounts
	creds    *stubCreds
}

func newTestEnv() *testEnv {
	repo := newMemRepo()
	graph := &stubGraph{}
	rules := &stubRules{}
	logs := &stubLogs{}
	accounts := &stubAccounts{}
	creds := &stubCreds{metaToken: "meta-token"}

	campaigns := campaign.NewService(repo, graph, stubMedia{})
	ins := insights.NewService(graph, stubAOV{})
	engine := optimization.NewEngine(repo, rules, logs, graph, ins)

	h := NewHandlers(campaigns, ins, engine, rules, logs, creds, accounts, graph, stubMedia{})
	return &testEnv{
		router:   SetupRoutes(h, RouteOptions{}),
		repo:     repo,
		graph:    graph,
		rules:    rules,
		logs:     logs,
		accounts: accounts,
		creds:    creds,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("X-Shop-Domain", testShop)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (e *testEnv) seedCampaign(remoteID string) *domain.Campaign {
	c := &domain.Campaign{
		Shop:         testShop,
		AdAccountID:  "123",
		Name:         "Summer Sale",
		Objective:    domain.ObjectiveSales,
		Status:       domain.CampaignPaused,
		BudgetAmount: 40,
		BudgetType:   domain.BudgetDaily,
	}
	if remoteID != "" {
		c.RemoteID = &remoteID
	}
	_, _ = e.repo.Create(context.Background(), c)
	return c
}

func validCreateBody() map[string]any {
	return map[string]any{
		"ad_account_id": "123",
		"name":          "Summer Sale",
		"objective":     "OUTCOME_SALES",
		"budget_type":   "daily",
		"budget_amount": 40,
		"ad_set": map[string]any{
			"name":              "Summer Sale ad set",
			"optimization_goal": "OFFSITE_CONVERSIONS",
			"billing_event":     "IMPRESSIONS",
		},
		"creative": map[string]any{
			"name":    "Summer Sale creative",
			"page_id": "page-1",
			"link":    "https://demo.myshopify.com/products/sun-hat",
		},
		"ad_name": "Summer Sale ad",
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireShopRejectsMissingShop(t *testing.T) {
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireShopAcceptsQueryParam(t *testing.T) {
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodGet, "/api/campaigns?shop="+testShop, nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateCompleteCampaignSuccess(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodPost, "/api/campaigns", validCreateBody())

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "rc-1", body["campaign_id"])
	assert.Equal(t, "ra-1", body["ad_id"])

	list, err := env.repo.List(context.Background(), testShop, campaign.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.CampaignPaused, list[0].Status)
	require.NotNil(t, list[0].RemoteID)
	assert.Equal(t, "rc-1", *list[0].RemoteID)
}

func TestCreateCompleteCampaignStepFailure(t *testing.T) {
	env := newTestEnv()
	env.graph.failStep = campaign.StepAdSet

	rec := env.do(t, http.MethodPost, "/api/campaigns", validCreateBody())

	// The request succeeded; the transaction outcome lives in the body.
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "ad_set", body["failed_step"])
	assert.Equal(t, "rc-1", body["campaign_id"])

	list, err := env.repo.List(context.Background(), testShop, campaign.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.CampaignFailed, list[0].Status)
}

func TestCreateCompleteCampaignRejectsInvalidInput(t *testing.T) {
	env := newTestEnv()
	body := validCreateBody()
	body["budget_type"] = "weekly"

	rec := env.do(t, http.MethodPost, "/api/campaigns", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCampaignNotFound(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodGet, "/api/campaigns/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActivateCampaign(t *testing.T) {
	env := newTestEnv()
	c := env.seedCampaign("rc-9")

	rec := env.do(t, http.MethodPost, "/api/campaigns/"+c.ID+"/activate", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"rc-9:ACTIVE"}, env.graph.statusCalls)
	got, err := env.repo.Get(context.Background(), testShop, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignActive, got.Status)
}

func TestUpdateCampaignBudget(t *testing.T) {
	env := newTestEnv()
	c := env.seedCampaign("rc-9")

	rec := env.do(t, http.MethodPut, "/api/campaigns/"+c.ID+"/budget", map[string]any{"amount": 55.0})

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"rc-9:55"}, env.graph.budgetCalls)
	got, err := env.repo.Get(context.Background(), testShop, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 55.0, got.BudgetAmount)
}

func TestUpdateCampaignBudgetRejectsNonPositive(t *testing.T) {
	env := newTestEnv()
	c := env.seedCampaign("rc-9")

	rec := env.do(t, http.MethodPut, "/api/campaigns/"+c.ID+"/budget", map[string]any{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.graph.budgetCalls)
}

func TestDeleteCampaign(t *testing.T) {
	env := newTestEnv()
	c := env.seedCampaign("rc-9")

	rec := env.do(t, http.MethodDelete, "/api/campaigns/"+c.ID, nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"rc-9:DELETED"}, env.graph.statusCalls)
	_, err := env.repo.Get(context.Background(), testShop, c.ID)
	assert.ErrorIs(t, err, campaign.ErrNotFound)
}

func TestCampaignInsightsNotProvisioned(t *testing.T) {
	env := newTestEnv()
	c := env.seedCampaign("")

	rec := env.do(t, http.MethodGet, "/api/campaigns/"+c.ID+"/insights", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCampaignInsightsNoData(t *testing.T) {
	env := newTestEnv()
	c := env.seedCampaign("rc-9")

	rec := env.do(t, http.MethodGet, "/api/campaigns/"+c.ID+"/insights", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["has_data"])
}

func TestCampaignInsightsSnapshot(t *testing.T) {
	env := newTestEnv()
	c := env.seedCampaign("rc-9")
	env.graph.insightsRow = &meta.InsightsRow{
		Impressions: 1000,
		Clicks:      50,
		Spend:       25,
		Conversions: 2,
	}

	rec := env.do(t, http.MethodGet, "/api/campaigns/"+c.ID+"/insights?preset=last_30d", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["has_data"])
	snap, ok := body["snapshot"].(map[string]any)
	require.True(t, ok)
	// 2 conversions at the 50.0 fallback order value over 25 spend.
	assert.InDelta(t, 4.0, snap["roas"], 0.001)
}

func TestCampaignInsightsRejectsHalfOpenRange(t *testing.T) {
	env := newTestEnv()
	c := env.seedCampaign("rc-9")
	env.graph.insightsRow = &meta.InsightsRow{Impressions: 100}

	// A lone bound must not silently answer for the default preset window.
	for _, q := range []string{"?since=2026-08-01", "?until=2026-08-20"} {
		rec := env.do(t, http.MethodGet, "/api/campaigns/"+c.ID+"/insights"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/campaigns/"+c.ID+"/insights?since=2026-08-01&until=2026-08-20", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunOptimizationWithoutConnection(t *testing.T) {
	env := newTestEnv()
	env.creds.metaErr = auth.ErrNotConnected

	rec := env.do(t, http.MethodPost, "/api/optimization/run", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunOptimizationExecutesRules(t *testing.T) {
	env := newTestEnv()
	c := env.seedCampaign("rc-9")
	require.NoError(t, env.repo.UpdateStatus(context.Background(), testShop, c.ID, domain.CampaignActive))
	env.graph.insightsRow = &meta.InsightsRow{Impressions: 100, Clicks: 10, Spend: 60, CPC: 6}
	_, err := env.rules.Create(context.Background(), &domain.OptimizationRule{
		Shop:          testShop,
		Name:          "Pause on high CPC",
		Metric:        "cpc",
		Operator:      domain.OpGreaterThan,
		Threshold:     5,
		LookbackHours: 24,
		Action:        domain.ActionPause,
		Enabled:       true,
	})
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/optimization/run", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["processed"])
	assert.Equal(t, float64(1), body["optimized"])
	assert.Equal(t, float64(0), body["errors"])
	assert.Contains(t, env.graph.statusCalls, "rc-9:PAUSED")
	assert.Len(t, env.logs.entries, 1)
}

func TestGetOptimizationLog(t *testing.T) {
	env := newTestEnv()
	require.NoError(t, env.logs.Insert(context.Background(), &domain.OptimizationLogEntry{
		ID:   "log-1",
		Shop: testShop,
	}))

	rec := env.do(t, http.MethodGet, "/api/optimization/log", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	entries, ok := body["log"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 1)
}

func TestRuleLifecycle(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/rules", map[string]any{
		"name":           "Pause on high CPC",
		"metric":         "cpc",
		"operator":       ">",
		"threshold":      5,
		"lookback_hours": 24,
		"action":         "pause",
		"enabled":        true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	rec = env.do(t, http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rules, ok := decodeBody(t, rec)["rules"].([]any)
	require.True(t, ok)
	assert.Len(t, rules, 1)

	rec = env.do(t, http.MethodPut, "/api/rules/"+id+"/enabled", map[string]any{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/rules/"+id, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/rules/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRuleRejectsUnknownMetric(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodPost, "/api/rules", map[string]any{
		"name":           "Bogus",
		"metric":         "vibes",
		"operator":       ">",
		"threshold":      1,
		"lookback_hours": 24,
		"action":         "pause",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRuleRequiresPercentageForBudgetActions(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodPost, "/api/rules", map[string]any{
		"name":           "Scale winners",
		"metric":         "roas",
		"operator":       ">",
		"threshold":      3,
		"lookback_hours": 72,
		"action":         "increase_budget",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAdAccountsRefresh(t *testing.T) {
	env := newTestEnv()
	env.graph.accounts = []meta.AdAccount{
		{ID: "act_1", AccountID: "1", Name: "Main", Currency: "USD", AccountStatus: 1},
		{ID: "act_2", AccountID: "2", Name: "Backup", Currency: "USD", AccountStatus: 101},
	}

	rec := env.do(t, http.MethodGet, "/api/ad-accounts?refresh=true", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	accounts, ok := decodeBody(t, rec)["ad_accounts"].([]any)
	require.True(t, ok)
	require.Len(t, accounts, 2)
	first := accounts[0].(map[string]any)
	assert.Equal(t, "active", first["status"])
	second := accounts[1].(map[string]any)
	assert.Equal(t, "closed", second["status"])
}

func TestSetDefaultAdAccount(t *testing.T) {
	env := newTestEnv()
	env.accounts.cached = []domain.AdAccount{
		{Shop: testShop, AccountID: "act_1", Name: "Main", IsDefault: true},
		{Shop: testShop, AccountID: "act_2", Name: "Backup"},
	}

	rec := env.do(t, http.MethodPut, "/api/ad-accounts/act_2/default", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var defaults []string
	for _, a := range env.accounts.cached {
		if a.IsDefault {
			defaults = append(defaults, a.AccountID)
		}
	}
	assert.Equal(t, []string{"act_2"}, defaults)
}

func TestSetDefaultAdAccountUnknown(t *testing.T) {
	env := newTestEnv()
	env.accounts.cached = []domain.AdAccount{
		{Shop: testShop, AccountID: "act_1", Name: "Main"},
	}

	rec := env.do(t, http.MethodPut, "/api/ad-accounts/act_9/default", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAdAccountsRefreshKeepsDefault(t *testing.T) {
	env := newTestEnv()
	env.accounts.cached = []domain.AdAccount{
		{Shop: testShop, AccountID: "act_1", Name: "Main"},
		{Shop: testShop, AccountID: "act_2", Name: "Backup", IsDefault: true},
	}
	env.graph.accounts = []meta.AdAccount{
		{ID: "act_1", AccountID: "1", Name: "Main", Currency: "USD", AccountStatus: 1},
		{ID: "act_2", AccountID: "2", Name: "Backup", Currency: "USD", AccountStatus: 1},
	}

	rec := env.do(t, http.MethodGet, "/api/ad-accounts?refresh=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var defaults []string
	for _, a := range env.accounts.cached {
		if a.IsDefault {
			defaults = append(defaults, a.AccountID)
		}
	}
	assert.Equal(t, []string{"act_2"}, defaults)
}
