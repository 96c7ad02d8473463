package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"vigil-go/internal/domain"
	"vigil-go/internal/store"
)

// RuleHandler handles HTTP requests for alert rule operations.
type RuleHandler struct {
	repo   store.RuleRepository
	logger *slog.Logger
}

// NewRuleHandler creates a new rule handler.
func NewRuleHandler(repo store.RuleRepository, logger *slog.Logger) *RuleHandler {
	return &RuleHandler{
		repo:   repo,
		logger: logger,
	}
}

// Create handles POST /v1/rules
// Registers a new rule, or replaces an existing one with the same id.
func (h *RuleHandler) Create(c *fiber.Ctx) error {
	var rule domain.AlertRule
	if err := c.BodyParser(&rule); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	if err := rule.Validate(); err != nil {
		h.logger.Debug("validation failed", "error", err)
		return ValidationError(c, err.Error())
	}
	rule.Normalize()

	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	if err := h.repo.Save(c.Context(), &rule); err != nil {
		h.logger.Error("failed to save rule", "id", rule.ID, "error", err)
		return InternalError(c, "failed to save rule")
	}

	h.logger.Info("registered rule", "id", rule.ID, "metric", rule.Metric)
	return Created(c, rule)
}

// List handles GET /v1/rules
// Returns all rules in registration order.
func (h *RuleHandler) List(c *fiber.Ctx) error {
	rules, err := h.repo.List(c.Context())
	if err != nil {
		h.logger.Error("failed to list rules", "error", err)
		return InternalError(c, "failed to list rules")
	}

	return Success(c, rules)
}

// GetByID handles GET /v1/rules/:id
// Returns a single rule by ID.
func (h *RuleHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	rule, err := h.repo.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NotFound(c, "rule not found")
		}
		h.logger.Error("failed to get rule", "id", id, "error", err)
		return InternalError(c, "failed to get rule")
	}

	return Success(c, rule)
}

// Update handles PUT /v1/rules/:id
// Applies a partial update to an existing rule.
func (h *RuleHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	var req domain.UpdateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}

	rule, err := h.repo.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NotFound(c, "rule not found")
		}
		h.logger.Error("failed to get rule", "id", id, "error", err)
		return InternalError(c, "failed to get rule")
	}

	req.ApplyTo(rule)

	if err := rule.Validate(); err != nil {
		return ValidationError(c, err.Error())
	}

	if err := h.repo.Save(c.Context(), rule); err != nil {
		h.logger.Error("failed to update rule", "id", id, "error", err)
		return InternalError(c, "failed to update rule")
	}

	h.logger.Info("updated rule", "id", rule.ID)
	return Success(c, rule)
}

// Delete handles DELETE /v1/rules/:id
// Removes a rule. The evaluator stops considering it on the next pass.
// An alert already firing for the rule stays in the ledger as firing;
// without the rule there is nothing left to resolve it.
func (h *RuleHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	if err := h.repo.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NotFound(c, "rule not found")
		}
		h.logger.Error("failed to delete rule", "id", id, "error", err)
		return InternalError(c, "failed to delete rule")
	}

	h.logger.Info("deleted rule", "id", id)
	return NoContent(c)
}
