// Package store defines the storage interfaces of the alerting engine.
// This abstraction allows swapping implementations (in-memory, Redis,
// PostgreSQL) without changing business logic.
package store

import (
	"context"

	"vigil-go/internal/domain"
)

// RuleRepository owns the set of alert rules.
// Implementations must be safe for concurrent use.
type RuleRepository interface {
	// Save inserts a rule or replaces an existing one with the same id.
	Save(ctx context.Context, rule *domain.AlertRule) error

	// Get retrieves a rule by id. Returns domain.ErrRuleNotFound if unknown.
	Get(ctx context.Context, id string) (*domain.AlertRule, error)

	// Delete removes a rule by id. Returns domain.ErrRuleNotFound if unknown.
	// Deleting a rule never touches any existing alert.
	Delete(ctx context.Context, id string) error

	// List returns all rules in registration order. The order carries no
	// meaning but is stable so evaluation passes are deterministic.
	List(ctx context.Context) ([]*domain.AlertRule, error)
}

// AlertRepository is the alert history ledger. Every alert is appended at
// trigger time; the only permitted mutation afterwards is updating the
// same entry in place when resolving or acknowledging, found by id.
type AlertRepository interface {
	// Create appends a newly fired alert to the ledger.
	Create(ctx context.Context, alert *domain.Alert) error

	// Update rewrites an existing ledger entry, found by alert id.
	// Returns domain.ErrAlertNotFound if unknown.
	Update(ctx context.Context, alert *domain.Alert) error

	// GetByID retrieves an alert by id, firing or resolved.
	GetByID(ctx context.Context, id string) (*domain.Alert, error)

	// ListFiring returns all currently firing alerts.
	ListFiring(ctx context.Context) ([]*domain.Alert, error)

	// ListHistory returns the most recent ledger entries, most recent
	// first, bounded by limit (non-positive means implementation default).
	ListHistory(ctx context.Context, limit int) ([]*domain.Alert, error)

	// Acknowledge appends an acknowledgment to the alert with the given
	// id, wherever it lives. Returns the updated alert, or
	// domain.ErrAlertNotFound if the id is unknown.
	Acknowledge(ctx context.Context, alertID string, ack domain.Acknowledgment) (*domain.Alert, error)
}
