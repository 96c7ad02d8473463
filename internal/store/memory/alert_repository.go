package memory

import (
	"context"
	"sync"

	"vigil-go/internal/domain"
)

// defaultMaxHistory bounds the ledger so long-running processes do not
// grow without limit. Oldest entries are dropped first.
const defaultMaxHistory = 1000

// AlertRepository is an in-memory implementation of store.AlertRepository.
// The ledger slice and the id index share the same alert objects, so an
// in-place update (resolve, acknowledge) is visible through both without
// duplication.
type AlertRepository struct {
	mu sync.RWMutex

	// ledger holds every alert in append order, bounded by maxHistory
	ledger []*domain.Alert

	// byID provides fast lookup by alert id
	byID map[string]*domain.Alert

	maxHistory int
}

// NewAlertRepository creates a new in-memory alert repository with the
// default history bound.
func NewAlertRepository() *AlertRepository {
	return NewAlertRepositoryWithCapacity(defaultMaxHistory)
}

// NewAlertRepositoryWithCapacity creates a repository keeping at most
// maxHistory ledger entries. Non-positive values fall back to the default.
func NewAlertRepositoryWithCapacity(maxHistory int) *AlertRepository {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &AlertRepository{
		byID:       make(map[string]*domain.Alert),
		maxHistory: maxHistory,
	}
}

// Create appends a newly fired alert to the ledger.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modification
	alertCopy := *alert
	r.ledger = append(r.ledger, &alertCopy)
	r.byID[alert.ID] = &alertCopy

	if len(r.ledger) > r.maxHistory {
		dropped := r.ledger[:len(r.ledger)-r.maxHistory]
		for _, old := range dropped {
			delete(r.byID, old.ID)
		}
		r.ledger = r.ledger[len(r.ledger)-r.maxHistory:]
	}
	return nil
}

// Update rewrites an existing ledger entry in place, found by alert id.
func (r *AlertRepository) Update(ctx context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.byID[alert.ID]
	if !exists {
		return domain.ErrAlertNotFound
	}

	// Overwrite through the shared pointer so the ledger sees the same
	// object, never a duplicate entry.
	*existing = *alert
	return nil
}

// GetByID retrieves an alert by id.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alert, exists := r.byID[id]
	if !exists {
		return nil, domain.ErrAlertNotFound
	}

	// Return a copy
	result := *alert
	return &result, nil
}

// ListFiring returns all currently firing alerts in ledger order.
func (r *AlertRepository) ListFiring(ctx context.Context) ([]*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*domain.Alert, 0)
	for _, alert := range r.ledger {
		if alert.IsFiring() {
			alertCopy := *alert
			results = append(results, &alertCopy)
		}
	}
	return results, nil
}

// ListHistory returns the most recent ledger entries, most recent first.
func (r *AlertRepository) ListHistory(ctx context.Context, limit int) ([]*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.ledger) {
		limit = len(r.ledger)
	}

	results := make([]*domain.Alert, 0, limit)
	for i := len(r.ledger) - 1; i >= 0 && len(results) < limit; i-- {
		alertCopy := *r.ledger[i]
		results = append(results, &alertCopy)
	}
	return results, nil
}

// Acknowledge appends an acknowledgment to the alert with the given id.
func (r *AlertRepository) Acknowledge(ctx context.Context, alertID string, ack domain.Acknowledgment) (*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert, exists := r.byID[alertID]
	if !exists {
		return nil, domain.ErrAlertNotFound
	}

	alert.Acknowledge(ack)

	// Return a copy
	result := *alert
	return &result, nil
}

// Clear removes all data from the repository. Useful for test cleanup.
func (r *AlertRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ledger = nil
	r.byID = make(map[string]*domain.Alert)
}
