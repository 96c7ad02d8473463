package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"vigil-go/internal/domain"
)

// RuleRepository implements store.RuleRepository using PostgreSQL.
type RuleRepository struct {
	db *DB
}

// NewRuleRepository creates a new PostgreSQL-backed rule repository.
func NewRuleRepository(db *DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// Save inserts a rule or replaces an existing one with the same id.
func (r *RuleRepository) Save(ctx context.Context, rule *domain.AlertRule) error {
	channels, err := json.Marshal(rule.Channels)
	if err != nil {
		return fmt.Errorf("failed to marshal channels: %w", err)
	}
	tags, err := json.Marshal(rule.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		INSERT INTO alert_rules (
			id, name, description, metric, condition, threshold, severity,
			channels, enabled, tags, duration_seconds, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			metric = EXCLUDED.metric,
			condition = EXCLUDED.condition,
			threshold = EXCLUDED.threshold,
			severity = EXCLUDED.severity,
			channels = EXCLUDED.channels,
			enabled = EXCLUDED.enabled,
			tags = EXCLUDED.tags,
			duration_seconds = EXCLUDED.duration_seconds,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.pool.Exec(ctx, query,
		rule.ID,
		rule.Name,
		rule.Description,
		rule.Metric,
		rule.Condition,
		rule.Threshold,
		rule.Severity,
		channels,
		rule.Enabled,
		tags,
		rule.DurationSeconds,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	return nil
}

// Get retrieves a rule by id.
func (r *RuleRepository) Get(ctx context.Context, id string) (*domain.AlertRule, error) {
	query := `
		SELECT id, name, description, metric, condition, threshold, severity,
			   channels, enabled, tags, duration_seconds, created_at, updated_at
		FROM alert_rules
		WHERE id = $1
	`

	rule, err := scanRule(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

// Delete removes a rule by id.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM alert_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}

	return nil
}

// List returns all rules in registration order.
func (r *RuleRepository) List(ctx context.Context) ([]*domain.AlertRule, error) {
	query := `
		SELECT id, name, description, metric, condition, threshold, severity,
			   channels, enabled, tags, duration_seconds, created_at, updated_at
		FROM alert_rules
		ORDER BY position ASC
	`

	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []*domain.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// scanRule scans a single row into an AlertRule.
func scanRule(row pgx.Row) (*domain.AlertRule, error) {
	var rule domain.AlertRule
	var description *string
	var channels, tags []byte

	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&description,
		&rule.Metric,
		&rule.Condition,
		&rule.Threshold,
		&rule.Severity,
		&channels,
		&rule.Enabled,
		&tags,
		&rule.DurationSeconds,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		rule.Description = *description
	}
	if len(channels) > 0 {
		if err := json.Unmarshal(channels, &rule.Channels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal channels: %w", err)
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &rule.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}

	return &rule, nil
}
