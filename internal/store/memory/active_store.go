package memory

import (
	"context"
	"sync"

	"vigil-go/internal/store"
)

// ActiveStore is an in-memory implementation of store.ActiveStore.
// It keeps the active-alert index in a map with mutex protection.
type ActiveStore struct {
	mu sync.RWMutex

	// entries stores active alerts keyed by rule id
	entries map[string]*store.ActiveAlert
}

// NewActiveStore creates a new in-memory active-alert store.
func NewActiveStore() *ActiveStore {
	return &ActiveStore{
		entries: make(map[string]*store.ActiveAlert),
	}
}

// Get retrieves the active entry for a rule.
// Returns nil, nil if the rule has no firing alert.
func (s *ActiveStore) Get(ctx context.Context, ruleID string) (*store.ActiveAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[ruleID]
	if !exists {
		return nil, nil
	}

	// Return a copy to prevent external modification
	result := *entry
	return &result, nil
}

// Set stores or replaces the active entry for entry.RuleID.
func (s *ActiveStore) Set(ctx context.Context, entry *store.ActiveAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy
	entryCopy := *entry
	s.entries[entry.RuleID] = &entryCopy
	return nil
}

// Delete removes the active entry for a rule.
func (s *ActiveStore) Delete(ctx context.Context, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, ruleID)
	return nil
}

// List returns all active entries.
func (s *ActiveStore) List(ctx context.Context) ([]*store.ActiveAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*store.ActiveAlert, 0, len(s.entries))
	for _, entry := range s.entries {
		entryCopy := *entry
		results = append(results, &entryCopy)
	}
	return results, nil
}

// Close releases any resources (no-op for in-memory store).
func (s *ActiveStore) Close() error {
	return nil
}

// Clear removes all data from the store. Useful for test cleanup.
func (s *ActiveStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*store.ActiveAlert)
}
