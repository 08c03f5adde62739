package optimization

import (
	"context"

	"github.com/ignite/adpilot/internal/domain"
)

// RuleRepository manages the per-shop optimization rule set.
type RuleRepository interface {
	// ListEnabled returns all enabled rules for a shop.
	ListEnabled(ctx context.Context, shop string) ([]domain.OptimizationRule, error)

	// List returns all rules for a shop, enabled or not.
	List(ctx context.Context, shop string) ([]domain.OptimizationRule, error)

	// Create inserts a rule and returns its ID.
	Create(ctx context.Context, r *domain.OptimizationRule) (string, error)

	// SetEnabled toggles one rule.
	SetEnabled(ctx context.Context, shop, id string, enabled bool) error

	// Delete removes a rule.
	Delete(ctx context.Context, shop, id string) error

	// SeedDefaults inserts the default rule set if the shop has none yet.
	SeedDefaults(ctx context.Context, shop string) error
}

// LogRepository records executed and attempted rule actions for audit.
type LogRepository interface {
	Insert(ctx context.Context, entry *domain.OptimizationLogEntry) error
	ListRecent(ctx context.Context, shop string, limit int) ([]domain.OptimizationLogEntry, error)
}
