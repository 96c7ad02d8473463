package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"vigil-go/internal/domain"
	"vigil-go/internal/store"
)

func firingAlert(id, ruleID string) *domain.Alert {
	return &domain.Alert{
		ID:          id,
		RuleID:      ruleID,
		RuleName:    "Test Rule",
		Metric:      domain.MetricErrorRate,
		Status:      domain.AlertStatusFiring,
		Message:     "Test Rule: error_rate is 9.0% (threshold 5.0%)",
		TriggeredAt: time.Now().UTC(),
	}
}

func TestAlertRepository_CreateAndGet(t *testing.T) {
	repo := NewAlertRepository()
	ctx := context.Background()

	alert := firingAlert("a-1", "rule-1")
	if err := repo.Create(ctx, alert); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := repo.GetByID(ctx, "a-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.RuleID != "rule-1" {
		t.Errorf("RuleID = %v, want rule-1", got.RuleID)
	}

	// Mutating the returned copy must not affect the stored alert.
	got.Status = domain.AlertStatusResolved
	stored, _ := repo.GetByID(ctx, "a-1")
	if stored.Status != domain.AlertStatusFiring {
		t.Error("returned alert should be a copy")
	}
}

func TestAlertRepository_GetByID_NotFound(t *testing.T) {
	repo := NewAlertRepository()

	_, err := repo.GetByID(context.Background(), "missing")
	if err != domain.ErrAlertNotFound {
		t.Errorf("err = %v, want ErrAlertNotFound", err)
	}
}

func TestAlertRepository_UpdateResolvesInPlace(t *testing.T) {
	repo := NewAlertRepository()
	ctx := context.Background()

	alert := firingAlert("a-1", "rule-1")
	_ = repo.Create(ctx, alert)

	alert.Resolve(time.Now())
	if err := repo.Update(ctx, alert); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	// The ledger must hold exactly one entry, now resolved.
	history, _ := repo.ListHistory(ctx, 0)
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].Status != domain.AlertStatusResolved {
		t.Errorf("history status = %v, want resolved", history[0].Status)
	}

	firing, _ := repo.ListFiring(ctx)
	if len(firing) != 0 {
		t.Errorf("firing length = %d, want 0", len(firing))
	}
}

func TestAlertRepository_ListHistory_MostRecentFirst(t *testing.T) {
	repo := NewAlertRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = repo.Create(ctx, firingAlert(fmt.Sprintf("a-%d", i), fmt.Sprintf("rule-%d", i)))
	}

	history, err := repo.ListHistory(ctx, 3)
	if err != nil {
		t.Fatalf("ListHistory error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[0].ID != "a-4" || history[2].ID != "a-2" {
		t.Errorf("history order = [%s %s %s], want most recent first",
			history[0].ID, history[1].ID, history[2].ID)
	}
}

func TestAlertRepository_BoundedHistory(t *testing.T) {
	repo := NewAlertRepositoryWithCapacity(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = repo.Create(ctx, firingAlert(fmt.Sprintf("a-%d", i), "rule-1"))
	}

	history, _ := repo.ListHistory(ctx, 0)
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}

	// The oldest entries are gone, including their id index.
	if _, err := repo.GetByID(ctx, "a-0"); err != domain.ErrAlertNotFound {
		t.Errorf("oldest entry should be dropped, err = %v", err)
	}
	if _, err := repo.GetByID(ctx, "a-4"); err != nil {
		t.Errorf("newest entry should survive, err = %v", err)
	}
}

func TestAlertRepository_Acknowledge(t *testing.T) {
	repo := NewAlertRepository()
	ctx := context.Background()

	_ = repo.Create(ctx, firingAlert("a-1", "rule-1"))

	updated, err := repo.Acknowledge(ctx, "a-1", domain.Acknowledgment{
		ID:             "ack-1",
		UserID:         "u1",
		UserName:       "pat",
		AcknowledgedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Acknowledge error: %v", err)
	}
	if len(updated.Acknowledgments) != 1 {
		t.Fatalf("acknowledgments = %d, want 1", len(updated.Acknowledgments))
	}

	// The same ledger entry carries the acknowledgment, not a duplicate.
	history, _ := repo.ListHistory(ctx, 0)
	if len(history) != 1 || len(history[0].Acknowledgments) != 1 {
		t.Error("acknowledgment should be visible on the single ledger entry")
	}
}

func TestAlertRepository_Acknowledge_Unknown(t *testing.T) {
	repo := NewAlertRepository()

	_, err := repo.Acknowledge(context.Background(), "missing", domain.Acknowledgment{ID: "ack-1"})
	if err != domain.ErrAlertNotFound {
		t.Errorf("err = %v, want ErrAlertNotFound", err)
	}
}

func TestRuleRepository_RegistrationOrder(t *testing.T) {
	repo := NewRuleRepository()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		_ = repo.Save(ctx, &domain.AlertRule{ID: id, Metric: domain.MetricErrorRate})
	}

	// Replacing a rule keeps its original position.
	_ = repo.Save(ctx, &domain.AlertRule{ID: "c", Metric: domain.MetricMemoryUsage})

	rules, _ := repo.List(ctx)
	if len(rules) != 3 {
		t.Fatalf("rules length = %d, want 3", len(rules))
	}
	want := []string{"c", "a", "b"}
	for i, rule := range rules {
		if rule.ID != want[i] {
			t.Errorf("rules[%d] = %s, want %s", i, rule.ID, want[i])
		}
	}
	if rules[0].Metric != domain.MetricMemoryUsage {
		t.Error("replaced rule should carry the new metric")
	}
}

func TestRuleRepository_Delete(t *testing.T) {
	repo := NewRuleRepository()
	ctx := context.Background()

	_ = repo.Save(ctx, &domain.AlertRule{ID: "a", Metric: domain.MetricErrorRate})

	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(ctx, "a"); err != domain.ErrRuleNotFound {
		t.Errorf("err = %v, want ErrRuleNotFound", err)
	}
}

func TestActiveStore_Lifecycle(t *testing.T) {
	s := NewActiveStore()
	ctx := context.Background()

	entry, err := s.Get(ctx, "rule-1")
	if err != nil || entry != nil {
		t.Fatalf("Get on empty store = (%v, %v), want (nil, nil)", entry, err)
	}

	_ = s.Set(ctx, &store.ActiveAlert{RuleID: "rule-1", AlertID: "a-1", TriggeredAt: time.Now()})

	entry, _ = s.Get(ctx, "rule-1")
	if entry == nil || entry.AlertID != "a-1" {
		t.Fatalf("Get = %+v, want alert a-1", entry)
	}

	entries, _ := s.List(ctx)
	if len(entries) != 1 {
		t.Errorf("List length = %d, want 1", len(entries))
	}

	_ = s.Delete(ctx, "rule-1")
	entry, _ = s.Get(ctx, "rule-1")
	if entry != nil {
		t.Error("entry should be gone after Delete")
	}
}
