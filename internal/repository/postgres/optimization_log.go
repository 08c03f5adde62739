package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/adpilot/internal/domain"
)

// OptimizationLogRepo implements optimization.LogRepository against
// PostgreSQL. Entries are append-only.
type OptimizationLogRepo struct{ db *sql.DB }

// NewOptimizationLogRepo creates a Postgres-backed optimization audit log.
func NewOptimizationLogRepo(db *sql.DB) *OptimizationLogRepo {
	return &OptimizationLogRepo{db: db}
}

func (r *OptimizationLogRepo) Insert(ctx context.Context, e *domain.OptimizationLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO optimization_log
			(id, shop, campaign_id, rule_id, rule_name, action,
			 trigger_metric, trigger_value, threshold_value, snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`, e.ID, e.Shop, e.CampaignID, e.RuleID, e.RuleName, e.Action,
		e.TriggerMetric, e.TriggerValue, e.ThresholdValue, []byte(e.Snapshot))
	if err != nil {
		return fmt.Errorf("insert optimization log: %w", err)
	}
	return nil
}

func (r *OptimizationLogRepo) ListRecent(ctx context.Context, shop string, limit int) ([]domain.OptimizationLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, shop, campaign_id, rule_id, rule_name, action,
		       trigger_metric, trigger_value, threshold_value, snapshot, created_at
		FROM optimization_log
		WHERE shop = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, shop, limit)
	if err != nil {
		return nil, fmt.Errorf("list optimization log: %w", err)
	}
	defer rows.Close()

	var out []domain.OptimizationLogEntry
	for rows.Next() {
		var e domain.OptimizationLogEntry
		var snap []byte
		if err := rows.Scan(
			&e.ID, &e.Shop, &e.CampaignID, &e.RuleID, &e.RuleName, &e.Action,
			&e.TriggerMetric, &e.TriggerValue, &e.ThresholdValue, &snap, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan optimization log: %w", err)
		}
		e.Snapshot = snap
		out = append(out, e)
	}
	return out, rows.Err()
}
