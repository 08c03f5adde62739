package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/adpilot/internal/domain"
)

// AdAccountRepo caches the ad accounts visible to a shop's access token so
// campaign creation can validate account ids without a remote round trip.
type AdAccountRepo struct{ db *sql.DB }

// NewAdAccountRepo creates a Postgres-backed ad account cache.
func NewAdAccountRepo(db *sql.DB) *AdAccountRepo { return &AdAccountRepo{db: db} }

// ReplaceAll swaps the cached account list for a shop with a freshly
// fetched one, inside a single transaction.
func (r *AdAccountRepo) ReplaceAll(ctx context.Context, shop string, accounts []domain.AdAccount) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ad_accounts WHERE shop = $1`, shop); err != nil {
		return fmt.Errorf("clear ad accounts: %w", err)
	}
	for _, a := range accounts {
		id := a.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ad_accounts
				(id, shop, account_id, name, currency, status, is_default, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		`, id, shop, a.AccountID, a.Name, a.Currency, a.Status, a.IsDefault); err != nil {
			return fmt.Errorf("insert ad account: %w", err)
		}
	}
	return tx.Commit()
}

// List returns the cached ad accounts for a shop, default account first.
func (r *AdAccountRepo) List(ctx context.Context, shop string) ([]domain.AdAccount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, shop, account_id, name, currency, status, is_default, created_at
		FROM ad_accounts
		WHERE shop = $1
		ORDER BY is_default DESC, name ASC
	`, shop)
	if err != nil {
		return nil, fmt.Errorf("list ad accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.AdAccount
	for rows.Next() {
		var a domain.AdAccount
		if err := rows.Scan(
			&a.ID, &a.Shop, &a.AccountID, &a.Name, &a.Currency,
			&a.Status, &a.IsDefault, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ad account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetDefault marks one cached account as the shop's default.
func (r *AdAccountRepo) SetDefault(ctx context.Context, shop, accountID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE ad_accounts SET is_default = false WHERE shop = $1
	`, shop); err != nil {
		return fmt.Errorf("clear default: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE ad_accounts SET is_default = true WHERE shop = $1 AND account_id = $2
	`, shop, accountID)
	if err != nil {
		return fmt.Errorf("set default: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
