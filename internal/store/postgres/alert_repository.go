package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"vigil-go/internal/domain"
)

// defaultHistoryLimit bounds ListHistory when the caller passes no limit.
const defaultHistoryLimit = 1000

// AlertRepository implements store.AlertRepository using PostgreSQL.
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new PostgreSQL-backed alert repository.
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create appends a newly fired alert to the ledger.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	acks, err := json.Marshal(alert.Acknowledgments)
	if err != nil {
		return fmt.Errorf("failed to marshal acknowledgments: %w", err)
	}

	query := `
		INSERT INTO alerts (
			id, rule_id, rule_name, metric, current_value, threshold,
			severity, status, message, acknowledgments, triggered_at, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.pool.Exec(ctx, query,
		alert.ID,
		alert.RuleID,
		alert.RuleName,
		alert.Metric,
		alert.CurrentValue,
		alert.Threshold,
		alert.Severity,
		alert.Status,
		alert.Message,
		acks,
		alert.TriggeredAt,
		alert.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// Update rewrites an existing ledger entry, found by alert id.
func (r *AlertRepository) Update(ctx context.Context, alert *domain.Alert) error {
	acks, err := json.Marshal(alert.Acknowledgments)
	if err != nil {
		return fmt.Errorf("failed to marshal acknowledgments: %w", err)
	}

	query := `
		UPDATE alerts SET
			status = $2,
			message = $3,
			acknowledgments = $4,
			resolved_at = $5
		WHERE id = $1
	`

	result, err := r.db.pool.Exec(ctx, query,
		alert.ID,
		alert.Status,
		alert.Message,
		acks,
		alert.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrAlertNotFound
	}

	return nil
}

// GetByID retrieves an alert by id, firing or resolved.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	query := `
		SELECT id, rule_id, rule_name, metric, current_value, threshold,
			   severity, status, message, acknowledgments, triggered_at, resolved_at
		FROM alerts
		WHERE id = $1
	`

	alert, err := scanAlert(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return alert, nil
}

// ListFiring returns all currently firing alerts.
func (r *AlertRepository) ListFiring(ctx context.Context) ([]*domain.Alert, error) {
	query := `
		SELECT id, rule_id, rule_name, metric, current_value, threshold,
			   severity, status, message, acknowledgments, triggered_at, resolved_at
		FROM alerts
		WHERE status = 'firing'
		ORDER BY triggered_at ASC
	`

	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list firing alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// ListHistory returns the most recent ledger entries, most recent first.
func (r *AlertRepository) ListHistory(ctx context.Context, limit int) ([]*domain.Alert, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT id, rule_id, rule_name, metric, current_value, threshold,
			   severity, status, message, acknowledgments, triggered_at, resolved_at
		FROM alerts
		ORDER BY triggered_at DESC
		LIMIT $1
	`

	rows, err := r.db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// Acknowledge appends an acknowledgment to the alert with the given id.
func (r *AlertRepository) Acknowledge(ctx context.Context, alertID string, ack domain.Acknowledgment) (*domain.Alert, error) {
	alert, err := r.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	alert.Acknowledge(ack)

	acks, err := json.Marshal(alert.Acknowledgments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal acknowledgments: %w", err)
	}

	result, err := r.db.pool.Exec(ctx,
		`UPDATE alerts SET acknowledgments = $2 WHERE id = $1`, alertID, acks)
	if err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, domain.ErrAlertNotFound
	}

	return alert, nil
}

// scanAlert scans a single row into an Alert.
func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var alert domain.Alert
	var acks []byte

	err := row.Scan(
		&alert.ID,
		&alert.RuleID,
		&alert.RuleName,
		&alert.Metric,
		&alert.CurrentValue,
		&alert.Threshold,
		&alert.Severity,
		&alert.Status,
		&alert.Message,
		&acks,
		&alert.TriggeredAt,
		&alert.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(acks) > 0 {
		if err := json.Unmarshal(acks, &alert.Acknowledgments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal acknowledgments: %w", err)
		}
	}

	return &alert, nil
}

// scanAlerts scans multiple rows into a slice of Alerts.
func scanAlerts(rows pgx.Rows) ([]*domain.Alert, error) {
	var alerts []*domain.Alert

	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}
