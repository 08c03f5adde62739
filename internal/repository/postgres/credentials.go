package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/adpilot/internal/auth"
)

// CredentialRepo stores per-shop platform tokens. Tokens are written by the
// OAuth callback and the app-install webhook, and read on every API call.
type CredentialRepo struct{ db *sql.DB }

// NewCredentialRepo creates a Postgres-backed credential store.
func NewCredentialRepo(db *sql.DB) *CredentialRepo { return &CredentialRepo{db: db} }

func (r *CredentialRepo) SaveMetaToken(ctx context.Context, shop, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shop_credentials (shop, meta_token, meta_token_expires_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (shop) DO UPDATE SET
			meta_token = EXCLUDED.meta_token,
			meta_token_expires_at = EXCLUDED.meta_token_expires_at,
			updated_at = NOW()
	`, shop, token, expiresAt)
	if err != nil {
		return fmt.Errorf("save meta token: %w", err)
	}
	return nil
}

func (r *CredentialRepo) GetMetaToken(ctx context.Context, shop string) (string, error) {
	var token sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT meta_token FROM shop_credentials WHERE shop = $1
	`, shop).Scan(&token)
	if err == sql.ErrNoRows || (err == nil && !token.Valid) {
		return "", auth.ErrNotConnected
	}
	if err != nil {
		return "", fmt.Errorf("get meta token: %w", err)
	}
	return token.String, nil
}

func (r *CredentialRepo) SaveShopifyToken(ctx context.Context, shop, token string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shop_credentials (shop, shopify_token, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (shop) DO UPDATE SET
			shopify_token = EXCLUDED.shopify_token,
			updated_at = NOW()
	`, shop, token)
	if err != nil {
		return fmt.Errorf("save shopify token: %w", err)
	}
	return nil
}

func (r *CredentialRepo) GetShopifyToken(ctx context.Context, shop string) (string, error) {
	var token sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT shopify_token FROM shop_credentials WHERE shop = $1
	`, shop).Scan(&token)
	if err == sql.ErrNoRows || (err == nil && !token.Valid) {
		return "", auth.ErrNotConnected
	}
	if err != nil {
		return "", fmt.Errorf("get shopify token: %w", err)
	}
	return token.String, nil
}

// ListConnectedShops returns every shop with a stored Marketing API token,
// for the background optimizer to iterate.
func (r *CredentialRepo) ListConnectedShops(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT shop FROM shop_credentials
		WHERE meta_token IS NOT NULL
		ORDER BY shop ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list connected shops: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var shop string
		if err := rows.Scan(&shop); err != nil {
			return nil, fmt.Errorf("scan shop: %w", err)
		}
		out = append(out, shop)
	}
	return out, rows.Err()
}
