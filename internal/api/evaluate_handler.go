package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"vigil-go/internal/domain"
	"vigil-go/internal/evaluator"
)

// EvaluateHandler exposes on-demand evaluation. Operators and tests can
// push a snapshot directly instead of waiting for the periodic loop.
type EvaluateHandler struct {
	service *evaluator.Service
	logger  *slog.Logger
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(service *evaluator.Service, logger *slog.Logger) *EvaluateHandler {
	return &EvaluateHandler{
		service: service,
		logger:  logger,
	}
}

// evaluateResponse reports what a pass changed.
type evaluateResponse struct {
	Transitions []domain.StateTransition `json:"transitions"`
	Count       int                      `json:"count"`
}

// Evaluate handles POST /v1/evaluate
// Runs one evaluation pass over the snapshot in the request body.
func (h *EvaluateHandler) Evaluate(c *fiber.Ctx) error {
	var snapshot domain.Snapshot
	if err := c.BodyParser(&snapshot); err != nil {
		h.logger.Debug("failed to parse snapshot", "error", err)
		return BadRequest(c, "invalid snapshot body")
	}
	if len(snapshot) == 0 {
		return ValidationError(c, "snapshot must contain at least one metric")
	}

	transitions, err := h.service.Evaluate(c.Context(), snapshot)
	if err != nil {
		h.logger.Error("evaluation pass failed", "error", err)
		return InternalError(c, "evaluation failed")
	}

	return Success(c, evaluateResponse{
		Transitions: transitions,
		Count:       len(transitions),
	})
}
