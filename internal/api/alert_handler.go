package api

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"vigil-go/internal/domain"
	"vigil-go/internal/store"
)

// AlertHandler handles HTTP requests for alert operations.
type AlertHandler struct {
	repo   store.AlertRepository
	logger *slog.Logger
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(repo store.AlertRepository, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		repo:   repo,
		logger: logger,
	}
}

// List handles GET /v1/alerts
// Returns all currently firing alerts.
func (h *AlertHandler) List(c *fiber.Ctx) error {
	alerts, err := h.repo.ListFiring(c.Context())
	if err != nil {
		h.logger.Error("failed to list firing alerts", "error", err)
		return InternalError(c, "failed to list alerts")
	}

	return Success(c, alerts)
}

// History handles GET /v1/alerts/history
// Returns recent ledger entries, most recent first. The optional limit
// query parameter caps the result size.
func (h *AlertHandler) History(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l < 0 {
			return BadRequest(c, "limit must be a non-negative integer")
		}
		limit = l
	}

	alerts, err := h.repo.ListHistory(c.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list alert history", "error", err)
		return InternalError(c, "failed to list alert history")
	}

	return Success(c, alerts)
}

// GetByID handles GET /v1/alerts/:id
// Returns a single alert, firing or resolved.
func (h *AlertHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	alert, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			return NotFound(c, "alert not found")
		}
		h.logger.Error("failed to get alert", "id", id, "error", err)
		return InternalError(c, "failed to get alert")
	}

	return Success(c, alert)
}

// acknowledgeRequest is the body for the acknowledge endpoint.
type acknowledgeRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Message  string `json:"message"`
}

// Acknowledge handles POST /v1/alerts/:id/acknowledge
// Records that a person has seen the alert. Acknowledging never changes
// alert status; a resolved alert can still be acknowledged.
func (h *AlertHandler) Acknowledge(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return BadRequest(c, "id is required")
	}

	var req acknowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("failed to parse request body", "error", err)
		return BadRequest(c, "invalid request body")
	}
	if req.UserID == "" {
		return ValidationError(c, "user_id is required")
	}

	ack := domain.Acknowledgment{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		UserName:       req.UserName,
		Message:        req.Message,
		AcknowledgedAt: time.Now().UTC(),
	}

	alert, err := h.repo.Acknowledge(c.Context(), id, ack)
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			return NotFound(c, "alert not found")
		}
		h.logger.Error("failed to acknowledge alert", "id", id, "error", err)
		return InternalError(c, "failed to acknowledge alert")
	}

	h.logger.Info("alert acknowledged",
		"alertID", id,
		"userID", req.UserID,
		"ackID", ack.ID,
	)
	return Success(c, alert)
}
