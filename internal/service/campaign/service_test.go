package campaign_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/meta"
	"github.com/ignite/adpilot/internal/service/campaign"
)

// memRepo is an in-memory campaign repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
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

func (m *memRepo) List(_ context.Context, shop string, f campaign.ListFilter) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		if c.Shop != shop {
			continue
		}
		if f.Status != "" && string(c.Status) != f.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *memRepo) ListActive(ctx context.Context, shop string) ([]domain.Campaign, error) {
	return m.List(ctx, shop, campaign.ListFilter{Status: string(domain.CampaignActive)})
}

func (m *memRepo) Create(_ context.Context, c *domain.Campaign) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) SetRemoteIDs(_ context.Context, shop, id string, ids campaign.RemoteIDs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Shop != shop {
		return campaign.ErrNotFound
	}
	if ids.CampaignID != "" {
		c.RemoteID = &ids.CampaignID
	}
	if ids.AdSetID != "" {
		c.RemoteAdSetID = &ids.AdSetID
	}
	if ids.CreativeID != "" {
		c.RemoteCreativeID = &ids.CreativeID
	}
	if ids.AdID != "" {
		c.RemoteAdID = &ids.AdID
	}
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
	delete(m.campaigns, id)
	return nil
}

// fakeGraph records creation calls and can be told to fail at one step.
type fakeGraph struct {
	failStep string
	calls    []string

	statusUpdates []string
	budgetUpdates []float64
}

func (f *fakeGraph) fail() error {
	return &meta.APIError{Code: 100, Message: "invalid campaign parameters"}
}

func (f *fakeGraph) CreateCampaign(_ context.Context, _, _ string, _ meta.CampaignParams) (string, error) {
	f.calls = append(f.calls, "campaign")
	if f.failStep == "campaign" {
		return "", f.fail()
	}
	return "rc-1", nil
}

func (f *fakeGraph) CreateAdSet(_ context.Context, _, _ string, p meta.AdSetParams) (string, error) {
	f.calls = append(f.calls, "ad_set")
	if p.CampaignID != "rc-1" {
		return "", &meta.APIError{Code: 100, Message: "ad set missing campaign reference"}
	}
	if f.failStep == "ad_set" {
		return "", f.fail()
	}
	return "rs-2", nil
}

func (f *fakeGraph) CreateCreative(_ context.Context, _, _ string, _ meta.CreativeParams) (string, error) {
	f.calls = append(f.calls, "creative")
	if f.failStep == "creative" {
		return "", f.fail()
	}
	return "cr-3", nil
}

func (f *fakeGraph) CreateAd(_ context.Context, _, _, _, adSetID, creativeID string) (string, error) {
	f.calls = append(f.calls, "ad")
	if adSetID != "rs-2" || creativeID != "cr-3" {
		return "", &meta.APIError{Code: 100, Message: "ad missing references"}
	}
	if f.failStep == "ad" {
		return "", f.fail()
	}
	return "ad-4", nil
}

func (f *fakeGraph) UpdateStatus(_ context.Context, _, entityID string, status meta.EntityStatus) error {
	f.statusUpdates = append(f.statusUpdates, entityID+":"+string(status))
	return nil
}

func (f *fakeGraph) UpdateBudget(_ context.Context, _, _ string, _ domain.BudgetType, amount float64) error {
	f.budgetUpdates = append(f.budgetUpdates, amount)
	return nil
}

func validInput() campaign.CreateInput {
	return campaign.CreateInput{
		AdAccountID:  "123",
		Name:         "Summer Sale",
		Objective:    domain.ObjectiveSales,
		BudgetType:   domain.BudgetDaily,
		BudgetAmount: 50,
		AdSet: domain.AdSetSpec{
			Name:             "Broad US",
			OptimizationGoal: "OFFSITE_CONVERSIONS",
			BillingEvent:     "IMPRESSIONS",
		},
		Creative: domain.CreativeSpec{
			Name:        "Hero",
			PageID:      "1001",
			Link:        "https://shop.example.com",
			PrimaryText: "Don't miss out",
		},
		AdName: "Summer Sale - Ad",
	}
}

func TestCreateCompleteCampaignSuccess(t *testing.T) {
	repo := newMemRepo()
	graph := &fakeGraph{}
	svc := campaign.NewService(repo, graph, nil)

	result, err := svc.CreateCompleteCampaign(context.Background(), "shop1", "tok", validInput())
	if err != nil {
		t.Fatalf("CreateCompleteCampaign failed: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, got failure at %q: %s", result.FailedStep, result.Error)
	}
	for _, id := range []string{result.CampaignID, result.AdSetID, result.CreativeID, result.AdID} {
		if id == "" {
			t.Fatal("success result must carry all four remote ids")
		}
	}

	stored, err := repo.Get(context.Background(), "shop1", result.Campaign.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != domain.CampaignPaused {
		t.Errorf("status = %s, want paused after creation", stored.Status)
	}
	if stored.RemoteID == nil || *stored.RemoteID != "rc-1" {
		t.Errorf("remote id not recorded: %v", stored.RemoteID)
	}

	wantOrder := []string{"campaign", "ad_set", "creative", "ad"}
	if len(graph.calls) != 4 {
		t.Fatalf("expected 4 remote calls, got %v", graph.calls)
	}
	for i, step := range wantOrder {
		if graph.calls[i] != step {
			t.Errorf("call %d = %s, want %s", i, graph.calls[i], step)
		}
	}
}

func TestCreateCompleteCampaignStopsAtFailedStep(t *testing.T) {
	repo := newMemRepo()
	graph := &fakeGraph{failStep: "creative"}
	svc := campaign.NewService(repo, graph, nil)

	result, err := svc.CreateCompleteCampaign(context.Background(), "shop1", "tok", validInput())
	if err != nil {
		t.Fatalf("CreateCompleteCampaign returned transport error: %v", err)
	}

	if result.Success {
		t.Fatal("expected failure result")
	}
	if result.FailedStep != "creative" {
		t.Errorf("FailedStep = %q, want creative", result.FailedStep)
	}
	// Ids from completed steps are preserved for diagnostics.
	if result.CampaignID != "rc-1" || result.AdSetID != "rs-2" {
		t.Errorf("completed-step ids missing: %+v", result)
	}
	if result.CreativeID != "" || result.AdID != "" {
		t.Errorf("failed/unreached steps must not carry ids: %+v", result)
	}

	// No call is made for steps after the failed one.
	for _, call := range graph.calls {
		if call == "ad" {
			t.Error("ad step must not be attempted after creative failed")
		}
	}

	stored, err := repo.Get(context.Background(), "shop1", result.Campaign.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != domain.CampaignFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	if stored.RemoteID == nil || *stored.RemoteID != "rc-1" {
		t.Error("partial remote ids must be persisted for cleanup")
	}
}

func TestCreateCompleteCampaignFirstStepFailure(t *testing.T) {
	repo := newMemRepo()
	graph := &fakeGraph{failStep: "campaign"}
	svc := campaign.NewService(repo, graph, nil)

	result, err := svc.CreateCompleteCampaign(context.Background(), "shop1", "tok", validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || result.FailedStep != "campaign" {
		t.Fatalf("expected campaign-step failure, got %+v", result)
	}
	if len(graph.calls) != 1 {
		t.Errorf("expected exactly 1 remote call, got %v", graph.calls)
	}
	if result.Error != "invalid campaign parameters" {
		t.Errorf("error message = %q", result.Error)
	}
}

func TestCreateCompleteCampaignValidation(t *testing.T) {
	svc := campaign.NewService(newMemRepo(), &fakeGraph{}, nil)

	in := validInput()
	in.BudgetAmount = 0
	if _, err := svc.CreateCompleteCampaign(context.Background(), "shop1", "tok", in); err == nil {
		t.Error("expected validation error for zero budget")
	}

	in = validInput()
	in.BudgetType = "weekly"
	if _, err := svc.CreateCompleteCampaign(context.Background(), "shop1", "tok", in); err == nil {
		t.Error("expected validation error for unknown budget type")
	}
}

func TestActivateRemoteFirstThenLocal(t *testing.T) {
	repo := newMemRepo()
	graph := &fakeGraph{}
	svc := campaign.NewService(repo, graph, nil)

	result, err := svc.CreateCompleteCampaign(context.Background(), "shop1", "tok", validInput())
	if err != nil || !result.Success {
		t.Fatalf("setup failed: %v %+v", err, result)
	}
	id := result.Campaign.ID

	if err := svc.Activate(context.Background(), "shop1", "tok", id); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if len(graph.statusUpdates) != 1 || graph.statusUpdates[0] != "rc-1:ACTIVE" {
		t.Errorf("remote status updates = %v", graph.statusUpdates)
	}
	stored, _ := repo.Get(context.Background(), "shop1", id)
	if stored.Status != domain.CampaignActive {
		t.Errorf("local status = %s, want active", stored.Status)
	}
}

func TestActivateRequiresRemoteProvisioning(t *testing.T) {
	repo := newMemRepo()
	svc := campaign.NewService(repo, &fakeGraph{}, nil)

	c := &domain.Campaign{ID: "c1", Shop: "shop1", Status: domain.CampaignPaused}
	repo.Create(context.Background(), c)

	if err := svc.Activate(context.Background(), "shop1", "tok", "c1"); err != campaign.ErrNotProvisioned {
		t.Errorf("err = %v, want ErrNotProvisioned", err)
	}
}
