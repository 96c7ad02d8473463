package store

import (
	"context"
	"time"
)

// ActiveAlert is the lightweight active-set entry mapping a rule to its
// currently firing alert. The full alert record lives in the
// AlertRepository; this index only enforces the one-firing-alert-per-rule
// invariant.
type ActiveAlert struct {
	// RuleID is the rule this entry belongs to. The active set is keyed
	// by rule id.
	RuleID string `json:"rule_id"`

	// AlertID is the id of the firing alert in the ledger.
	AlertID string `json:"alert_id"`

	// TriggeredAt is when the alert fired.
	TriggeredAt time.Time `json:"triggered_at"`
}

// ActiveStore holds the set of currently firing alerts, keyed by rule id.
// The evaluator is the only writer; it serializes its passes, so
// implementations only need to be individually thread-safe, not
// transactional across calls.
type ActiveStore interface {
	// Get retrieves the active entry for a rule.
	// Returns nil, nil if the rule has no firing alert.
	Get(ctx context.Context, ruleID string) (*ActiveAlert, error)

	// Set stores or replaces the active entry for entry.RuleID.
	Set(ctx context.Context, entry *ActiveAlert) error

	// Delete removes the active entry for a rule. Removing a missing
	// entry is not an error.
	Delete(ctx context.Context, ruleID string) error

	// List returns all active entries.
	List(ctx context.Context) ([]*ActiveAlert, error)

	// Close releases any resources held by the store.
	Close() error
}
