package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/adpilot/internal/domain"
	"github.com/ignite/adpilot/internal/service/optimization"
)

const ruleCols = `id, shop, name, metric, operator, threshold,
       lookback_hours, action, percentage, enabled, created_at, updated_at`

// RuleRepo implements optimization.RuleRepository against PostgreSQL.
type RuleRepo struct{ db *sql.DB }

// NewRuleRepo creates a Postgres-backed rule repository.
func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

func (r *RuleRepo) ListEnabled(ctx context.Context, shop string) ([]domain.OptimizationRule, error) {
	return r.query(ctx, `
		SELECT `+ruleCols+`
		FROM optimization_rules
		WHERE shop = $1 AND enabled = true
		ORDER BY created_at ASC
	`, shop)
}

func (r *RuleRepo) List(ctx context.Context, shop string) ([]domain.OptimizationRule, error) {
	return r.query(ctx, `
		SELECT `+ruleCols+`
		FROM optimization_rules
		WHERE shop = $1
		ORDER BY created_at ASC
	`, shop)
}

func (r *RuleRepo) Create(ctx context.Context, rule *domain.OptimizationRule) (string, error) {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO optimization_rules
			(id, shop, name, metric, operator, threshold,
			 lookback_hours, action, percentage, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`, rule.ID, rule.Shop, rule.Name, rule.Metric, rule.Operator, rule.Threshold,
		rule.LookbackHours, rule.Action, rule.Percentage, rule.Enabled)
	if err != nil {
		return "", fmt.Errorf("create rule: %w", err)
	}
	return rule.ID, nil
}

func (r *RuleRepo) SetEnabled(ctx context.Context, shop, id string, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE optimization_rules SET enabled = $1, updated_at = NOW()
		WHERE id = $2 AND shop = $3
	`, enabled, id, shop)
	if err != nil {
		return fmt.Errorf("set rule enabled: %w", err)
	}
	return requireRuleRow(res)
}

func (r *RuleRepo) Delete(ctx context.Context, shop, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM optimization_rules WHERE id = $1 AND shop = $2
	`, id, shop)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return requireRuleRow(res)
}

// SeedDefaults inserts the default rule set for a shop that has no rules
// yet. A shop with any existing rules is left untouched.
func (r *RuleRepo) SeedDefaults(ctx context.Context, shop string) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM optimization_rules WHERE shop = $1
	`, shop).Scan(&count); err != nil {
		return fmt.Errorf("count rules: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, rule := range optimization.DefaultRules(shop) {
		rule := rule
		if _, err := r.Create(ctx, &rule); err != nil {
			return err
		}
	}
	return nil
}

func (r *RuleRepo) query(ctx context.Context, q string, args ...interface{}) ([]domain.OptimizationRule, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []domain.OptimizationRule
	for rows.Next() {
		var rule domain.OptimizationRule
		if err := rows.Scan(
			&rule.ID, &rule.Shop, &rule.Name, &rule.Metric, &rule.Operator,
			&rule.Threshold, &rule.LookbackHours, &rule.Action, &rule.Percentage,
			&rule.Enabled, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func requireRuleRow(res sql.Result) error {
	n, _ := res.RowsAffected()
	if n == 0 {
		return optimization.ErrRuleNotFound
	}
	return nil
}
