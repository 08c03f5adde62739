package campaign

import (
	"context"

	"github.com/ignite/adpilot/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use. Writes are upsert-style,
// keyed by (shop, id), so re-runs after a crash are tolerated.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, shop, id string) (*domain.Campaign, error)

	// List returns campaigns for a shop matching the filter, newest first.
	List(ctx context.Context, shop string, f ListFilter) ([]domain.Campaign, error)

	// ListActive returns all campaigns in active status for a shop, for the
	// batch optimizer.
	ListActive(ctx context.Context, shop string) ([]domain.Campaign, error)

	// Create inserts a new campaign record and returns its ID.
	Create(ctx context.Context, c *domain.Campaign) (string, error)

	// SetRemoteIDs records remote ids as creation steps complete. Partial
	// sets are written after failed transactions for diagnostics.
	SetRemoteIDs(ctx context.Context, shop, id string, ids RemoteIDs) error

	// UpdateStatus transitions a campaign's local status.
	UpdateStatus(ctx context.Context, shop, id string, status domain.CampaignStatus) error

	// UpdateBudget updates the local budget amount mirror.
	UpdateBudget(ctx context.Context, shop, id string, amount float64) error

	// Delete removes the local record.
	Delete(ctx context.Context, shop, id string) error
}

// RemoteIDs holds the remote identifiers of a campaign tree. Empty strings
// mean the corresponding step did not complete.
type RemoteIDs struct {
	CampaignID string
	AdSetID    string
	CreativeID string
	AdID       string
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}
