package campaign

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/meta"
	"github.com/ignite/adpilot/internal/pkg/logger"
)

// GraphAPI is the subset of the Marketing API client the orchestrator uses.
type GraphAPI interface {
	CreateCampaign(ctx context.Context, token, accountID string, p meta.CampaignParams) (string, error)
	CreateAdSet(ctx context.Context, token, accountID string, p meta.AdSetParams) (string, error)
	CreateCreative(ctx context.Context, token, accountID string, p meta.CreativeParams) (string, error)
	CreateAd(ctx context.Context, token, accountID, name, adSetID, creativeID string) (string, error)
	UpdateStatus(ctx context.Context, token, entityID string, status meta.EntityStatus) error
	UpdateBudget(ctx context.Context, token, entityID string, budgetType domain.BudgetType, amount float64) error
}

// MediaResolver turns a stored media reference into a public URL the remote
// platform can fetch creative images from.
type MediaResolver interface {
	ResolveURL(ctx context.Context, mediaRef string) (string, error)
}

// Service orchestrates campaign lifecycle against the remote API and the
// local repository. Remote state is always written first; the local mirror
// is updated only after the remote call succeeds.
type Service struct {
	repo  Repository
	graph GraphAPI
	media MediaResolver
}

// NewService creates a campaign service.
func NewService(repo Repository, graph GraphAPI, media MediaResolver) *Service {
	return &Service{repo: repo, graph: graph, media: media}
}

// CreateInput holds everything needed to create a complete campaign tree.
type CreateInput struct {
	AdAccountID  string                   `json:"ad_account_id"`
	Name         string                   `json:"name"`
	Objective    domain.CampaignObjective `json:"objective"`
	BudgetType   domain.BudgetType        `json:"budget_type"`
	BudgetAmount float64                  `json:"budget_amount"`
	AdSet        domain.AdSetSpec         `json:"ad_set"`
	Creative     domain.CreativeSpec      `json:"creative"`
	AdName       string                   `json:"ad_name"`
}

// CreateResult reports the outcome of a campaign-creation transaction.
// On failure, FailedStep names the step that errored and the remote ids of
// the steps that had already completed are still populated, since those
// objects exist remotely and are not rolled back.
type CreateResult struct {
	Success    bool             `json:"success"`
	Campaign   *domain.Campaign `json:"campaign,omitempty"`
	CampaignID string           `json:"campaign_id,omitempty"`
	AdSetID    string           `json:"adset_id,omitempty"`
	CreativeID string           `json:"creative_id,omitempty"`
	AdID       string           `json:"ad_id,omitempty"`
	FailedStep string           `json:"failed_step,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Creation step names reported in CreateResult.FailedStep.
const (
	StepCampaign = "campaign"
	StepAdSet    = "ad_set"
	StepCreative = "creative"
	StepAd       = "ad"
)

func (in *CreateInput) validate() error {
	if in.AdAccountID == "" {
		return fmt.Errorf("%w: ad_account_id is required", ErrInvalidInput)
	}
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.BudgetAmount <= 0 {
		return fmt.Errorf("%w: budget_amount must be positive", ErrInvalidInput)
	}
	switch in.BudgetType {
	case domain.BudgetDaily, domain.BudgetLifetime:
	default:
		return fmt.Errorf("%w: budget_type must be daily or lifetime", ErrInvalidInput)
	}
	if in.Creative.PageID == "" {
		return fmt.Errorf("%w: creative.page_id is required", ErrInvalidInput)
	}
	return nil
}

// CreateCompleteCampaign creates a Campaign, AdSet, Creative and Ad as one
// logical unit of work. Steps run strictly in order; each step's id feeds
// the next, and a step is attempted only if the previous one returned a
// valid id. Every created object is forced to PAUSED regardless of caller
// intent. The operation is not idempotent: calling it twice creates two
// remote trees.
func (s *Service) CreateCompleteCampaign(ctx context.Context, shop, token string, in CreateInput) (*CreateResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	local := &domain.Campaign{
		ID:           uuid.New().String(),
		Shop:         shop,
		AdAccountID:  in.AdAccountID,
		Name:         in.Name,
		Objective:    in.Objective,
		Status:       domain.CampaignPaused,
		BudgetAmount: in.BudgetAmount,
		BudgetType:   in.BudgetType,
	}
	if _, err := s.repo.Create(ctx, local); err != nil {
		return nil, fmt.Errorf("create campaign record: %w", err)
	}

	result := &CreateResult{Campaign: local}

	// Step 1: campaign.
	campaignID, err := s.graph.CreateCampaign(ctx, token, in.AdAccountID, meta.CampaignParams{
		Name:         in.Name,
		Objective:    in.Objective,
		BudgetType:   in.BudgetType,
		BudgetAmount: in.BudgetAmount,
	})
	if err != nil {
		return s.failTransaction(ctx, local, result, StepCampaign, err), nil
	}
	result.CampaignID = campaignID

	// Step 2: ad set, referencing the campaign.
	adSetID, err := s.graph.CreateAdSet(ctx, token, in.AdAccountID, meta.AdSetParams{
		Name:             in.AdSet.Name,
		CampaignID:       campaignID,
		OptimizationGoal: in.AdSet.OptimizationGoal,
		BillingEvent:     in.AdSet.BillingEvent,
		Targeting:        in.AdSet.Targeting,
		BudgetType:       in.BudgetType,
		BudgetAmount:     in.BudgetAmount,
	})
	if err != nil {
		return s.failTransaction(ctx, local, result, StepAdSet, err), nil
	}
	result.AdSetID = adSetID

	// Step 3: creative.
	imageURL := ""
	if in.Creative.MediaRef != "" && s.media != nil {
		imageURL, err = s.media.ResolveURL(ctx, in.Creative.MediaRef)
		if err != nil {
			return s.failTransaction(ctx, local, result, StepCreative, err), nil
		}
	}
	creativeID, err := s.graph.CreateCreative(ctx, token, in.AdAccountID, meta.CreativeParams{
		Name:             in.Creative.Name,
		PageID:           in.Creative.PageID,
		InstagramActorID: in.Creative.InstagramActorID,
		Link:             in.Creative.Link,
		Message:          in.Creative.PrimaryText,
		Headline:         in.Creative.Headline,
		Description:      in.Creative.Description,
		CallToAction:     in.Creative.CallToAction,
		ImageURL:         imageURL,
	})
	if err != nil {
		return s.failTransaction(ctx, local, result, StepCreative, err), nil
	}
	result.CreativeID = creativeID

	// Step 4: ad, binding ad set and creative.
	adName := in.AdName
	if adName == "" {
		adName = in.Name + " - Ad"
	}
	adID, err := s.graph.CreateAd(ctx, token, in.AdAccountID, adName, adSetID, creativeID)
	if err != nil {
		return s.failTransaction(ctx, local, result, StepAd, err), nil
	}
	result.AdID = adID

	ids := RemoteIDs{CampaignID: campaignID, AdSetID: adSetID, CreativeID: creativeID, AdID: adID}
	if err := s.repo.SetRemoteIDs(ctx, shop, local.ID, ids); err != nil {
		return nil, fmt.Errorf("record remote ids: %w", err)
	}
	local.RemoteID = &ids.CampaignID
	local.RemoteAdSetID = &ids.AdSetID
	local.RemoteCreativeID = &ids.CreativeID
	local.RemoteAdID = &ids.AdID

	result.Success = true
	logger.Info("campaign tree created",
		"shop", shop, "campaign", local.ID, "remote_campaign", campaignID)
	return result, nil
}

// failTransaction marks the local record failed, persists whatever remote
// ids were created before the failing step, and fills in the failure
// fields. Remote objects already created are deliberately left in place.
func (s *Service) failTransaction(ctx context.Context, local *domain.Campaign, result *CreateResult, step string, cause error) *CreateResult {
	logger.Error("campaign creation step failed",
		"shop", local.Shop, "campaign", local.ID, "step", step, "error", cause.Error())

	ids := RemoteIDs{CampaignID: result.CampaignID, AdSetID: result.AdSetID, CreativeID: result.CreativeID}
	if err := s.repo.SetRemoteIDs(ctx, local.Shop, local.ID, ids); err != nil {
		logger.Error("failed to persist partial remote ids",
			"campaign", local.ID, "error", err.Error())
	}
	if err := s.repo.UpdateStatus(ctx, local.Shop, local.ID, domain.CampaignFailed); err != nil {
		logger.Error("failed to mark campaign failed",
			"campaign", local.ID, "error", err.Error())
	}
	local.Status = domain.CampaignFailed

	result.Success = false
	result.FailedStep = step
	result.Error = cause.Error()
	return result
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, shop, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, shop, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, shop string, f ListFilter) ([]domain.Campaign, error) {
	return s.repo.List(ctx, shop, f)
}

// Activate sets the remote campaign ACTIVE, then mirrors locally.
// Activation is the only path out of the paused-by-default creation state.
func (s *Service) Activate(ctx context.Context, shop, token, id string) error {
	return s.setStatus(ctx, shop, token, id, meta.StatusActive, domain.CampaignActive)
}

// Pause sets the remote campaign PAUSED, then mirrors locally.
func (s *Service) Pause(ctx context.Context, shop, token, id string) error {
	return s.setStatus(ctx, shop, token, id, meta.StatusPaused, domain.CampaignPaused)
}

func (s *Service) setStatus(ctx context.Context, shop, token, id string, remote meta.EntityStatus, local domain.CampaignStatus) error {
	c, err := s.repo.Get(ctx, shop, id)
	if err != nil {
		return err
	}
	if c.RemoteID == nil {
		return ErrNotProvisioned
	}
	if c.IsTerminal() {
		return ErrTerminal
	}
	if err := s.graph.UpdateStatus(ctx, token, *c.RemoteID, remote); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, shop, id, local)
}

// UpdateBudget pushes a new budget to the remote campaign, then mirrors
// locally.
func (s *Service) UpdateBudget(ctx context.Context, shop, token, id string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("budget must be positive")
	}
	c, err := s.repo.Get(ctx, shop, id)
	if err != nil {
		return err
	}
	if c.RemoteID == nil {
		return ErrNotProvisioned
	}
	if err := s.graph.UpdateBudget(ctx, token, *c.RemoteID, c.BudgetType, amount); err != nil {
		return err
	}
	return s.repo.UpdateBudget(ctx, shop, id, amount)
}

// Delete removes the campaign: the remote delete is attempted first, then
// the local record is removed. Campaigns that never provisioned remotely
// are deleted locally only.
func (s *Service) Delete(ctx context.Context, shop, token, id string) error {
	c, err := s.repo.Get(ctx, shop, id)
	if err != nil {
		return err
	}
	if c.RemoteID != nil {
		if err := s.graph.UpdateStatus(ctx, token, *c.RemoteID, meta.StatusDeleted); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, shop, id)
}
