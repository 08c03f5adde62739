package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/service/campaign"
)

const campaignCols = `id, shop, ad_account_id, name, objective, status,
       budget_amount, budget_type,
       remote_id, remote_adset_id, remote_creative_id, remote_ad_id,
       created_at, updated_at`

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) Get(ctx context.Context, shop, id string) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+campaignCols+`
		FROM ad_campaigns
		WHERE id = $1 AND shop = $2
	`, id, shop)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context, shop string, f campaign.ListFilter) ([]domain.Campaign, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT ` + campaignCols + `
		FROM ad_campaigns
		WHERE shop = $1`
	args := []interface{}{shop}
	idx := 2
	if f.Status != "" {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CampaignRepo) ListActive(ctx context.Context, shop string) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+campaignCols+`
		FROM ad_campaigns
		WHERE shop = $1 AND status = $2 AND remote_id IS NOT NULL
		ORDER BY created_at ASC
	`, shop, domain.CampaignActive)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ad_campaigns
			(id, shop, ad_account_id, name, objective, status,
			 budget_amount, budget_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, c.ID, c.Shop, c.AdAccountID, c.Name, c.Objective, c.Status,
		c.BudgetAmount, c.BudgetType)
	if err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}
	return c.ID, nil
}

func (r *CampaignRepo) SetRemoteIDs(ctx context.Context, shop, id string, ids campaign.RemoteIDs) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ad_campaigns SET
			remote_id          = NULLIF($1, ''),
			remote_adset_id    = NULLIF($2, ''),
			remote_creative_id = NULLIF($3, ''),
			remote_ad_id       = NULLIF($4, ''),
			updated_at         = NOW()
		WHERE id = $5 AND shop = $6
	`, ids.CampaignID, ids.AdSetID, ids.CreativeID, ids.AdID, id, shop)
	if err != nil {
		return fmt.Errorf("set remote ids: %w", err)
	}
	return requireRow(res)
}

func (r *CampaignRepo) UpdateStatus(ctx context.Context, shop, id string, status domain.CampaignStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ad_campaigns SET status = $1, updated_at = NOW()
		WHERE id = $2 AND shop = $3
	`, status, id, shop)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireRow(res)
}

func (r *CampaignRepo) UpdateBudget(ctx context.Context, shop, id string, amount float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ad_campaigns SET budget_amount = $1, updated_at = NOW()
		WHERE id = $2 AND shop = $3
	`, amount, id, shop)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (r *CampaignRepo) Delete(ctx context.Context, shop, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM ad_campaigns WHERE id = $1 AND shop = $2
	`, id, shop)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var remoteID, adsetID, creativeID, adID sql.NullString
	err := row.Scan(
		&c.ID, &c.Shop, &c.AdAccountID, &c.Name, &c.Objective, &c.Status,
		&c.BudgetAmount, &c.BudgetType,
		&remoteID, &adsetID, &creativeID, &adID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.RemoteID = nullStr(remoteID)
	c.RemoteAdSetID = nullStr(adsetID)
	c.RemoteCreativeID = nullStr(creativeID)
	c.RemoteAdID = nullStr(adID)
	return c, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func requireRow(res sql.Result) error {
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}
