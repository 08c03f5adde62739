package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/service/campaign"
)

const testShop = "demo.myshopify.com"

var campaignColNames = []string{
	"id", "shop", "ad_account_id", "name", "objective", "status",
	"budget_amount", "budget_type",
	"remote_id", "remote_adset_id", "remote_creative_id", "remote_ad_id",
	"created_at", "updated_at",
}

func TestCampaignRepoGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM ad_campaigns").
		WithArgs("c-1", testShop).
		WillReturnRows(sqlmock.NewRows(campaignColNames).AddRow(
			"c-1", testShop, "act_123", "Summer Sale", "OUTCOME_SALES", "active",
			49.99, "daily",
			"120210000000000001", "120210000000000002", nil, nil,
			now, now,
		))

	repo := NewCampaignRepo(db)
	c, err := repo.Get(context.Background(), testShop, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Summer Sale", c.Name)
	assert.Equal(t, domain.CampaignActive, c.Status)
	require.NotNil(t, c.RemoteID)
	assert.Equal(t, "120210000000000001", *c.RemoteID)
	assert.Nil(t, c.RemoteCreativeID)
	assert.Nil(t, c.RemoteAdID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM ad_campaigns").
		WithArgs("missing", testShop).
		WillReturnRows(sqlmock.NewRows(campaignColNames))

	repo := NewCampaignRepo(db)
	_, err = repo.Get(context.Background(), testShop, "missing")
	assert.ErrorIs(t, err, campaign.ErrNotFound)
}

func TestCampaignRepoListActiveFiltersProvisioned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM ad_campaigns WHERE shop = \\$1 AND status = \\$2 AND remote_id IS NOT NULL").
		WithArgs(testShop, domain.CampaignActive).
		WillReturnRows(sqlmock.NewRows(campaignColNames).AddRow(
			"c-1", testShop, "act_123", "A", "OUTCOME_TRAFFIC", "active",
			20.0, "daily",
			"rc-1", "rs-1", "cr-1", "ad-1",
			now, now,
		))

	repo := NewCampaignRepo(db)
	out, err := repo.ListActive(context.Background(), testShop)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "rc-1", *out[0].RemoteID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepoCreateAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO ad_campaigns").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewCampaignRepo(db)
	id, err := repo.Create(context.Background(), &domain.Campaign{
		Shop:         testShop,
		AdAccountID:  "act_123",
		Name:         "New",
		Objective:    domain.ObjectiveSales,
		Status:       domain.CampaignPaused,
		BudgetAmount: 30,
		BudgetType:   domain.BudgetDaily,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepoSetRemoteIDsPartial(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Empty strings are stored as NULL so partial failures stay legible.
	mock.ExpectExec("UPDATE ad_campaigns SET").
		WithArgs("rc-1", "rs-2", "", "", "c-1", testShop).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewCampaignRepo(db)
	err = repo.SetRemoteIDs(context.Background(), testShop, "c-1", campaign.RemoteIDs{
		CampaignID: "rc-1", AdSetID: "rs-2",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepoUpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE ad_campaigns SET status").
		WithArgs(domain.CampaignPaused, "missing", testShop).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewCampaignRepo(db)
	err = repo.UpdateStatus(context.Background(), testShop, "missing", domain.CampaignPaused)
	assert.ErrorIs(t, err, campaign.ErrNotFound)
}

func TestCampaignRepoUpdateBudget(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE ad_campaigns SET budget_amount").
		WithArgs(120.0, "c-1", testShop).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewCampaignRepo(db)
	require.NoError(t, repo.UpdateBudget(context.Background(), testShop, "c-1", 120.0))
	assert.NoError(t, mock.ExpectationsWereMet())
}
