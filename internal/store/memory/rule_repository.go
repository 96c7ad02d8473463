// Package memory provides in-memory implementations of the store interfaces.
// These are useful for testing and single-node deployments without
// external dependencies.
package memory

import (
	"context"
	"sync"

	"vigil-go/internal/domain"
)

// RuleRepository is an in-memory implementation of store.RuleRepository.
// It preserves registration order so List is deterministic.
type RuleRepository struct {
	mu sync.RWMutex

	// rules stores all rules by id
	rules map[string]*domain.AlertRule

	// order tracks registration order of rule ids
	order []string
}

// NewRuleRepository creates a new in-memory rule repository.
func NewRuleRepository() *RuleRepository {
	return &RuleRepository{
		rules: make(map[string]*domain.AlertRule),
	}
}

// Save inserts a rule or replaces an existing one with the same id.
// Replacement keeps the rule's original position in the order.
func (r *RuleRepository) Save(ctx context.Context, rule *domain.AlertRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modification
	ruleCopy := *rule
	if _, exists := r.rules[rule.ID]; !exists {
		r.order = append(r.order, rule.ID)
	}
	r.rules[rule.ID] = &ruleCopy
	return nil
}

// Get retrieves a rule by id.
func (r *RuleRepository) Get(ctx context.Context, id string) (*domain.AlertRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, exists := r.rules[id]
	if !exists {
		return nil, domain.ErrRuleNotFound
	}

	// Return a copy
	result := *rule
	return &result, nil
}

// Delete removes a rule by id.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[id]; !exists {
		return domain.ErrRuleNotFound
	}

	delete(r.rules, id)
	for i, ruleID := range r.order {
		if ruleID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns all rules in registration order.
func (r *RuleRepository) List(ctx context.Context) ([]*domain.AlertRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*domain.AlertRule, 0, len(r.order))
	for _, id := range r.order {
		ruleCopy := *r.rules[id]
		results = append(results, &ruleCopy)
	}
	return results, nil
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *RuleRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = make(map[string]*domain.AlertRule)
	r.order = nil
}
