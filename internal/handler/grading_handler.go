package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classly/classly-api/internal/middleware"
	"github.com/classly/classly-api/internal/models"
	"github.com/classly/classly-api/internal/service"
	"github.com/classly/classly-api/internal/utils"
)

// GradingHandler wires the auto-grading HTTP routes.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(gradingService service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: gradingService,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// RegisterAssignmentRoutes attaches the assignment-scoped grading
// endpoints. Both are teacher only; autocheck is rate limited since each
// call fans out to the model provider.
func (h *GradingHandler) RegisterAssignmentRoutes(router fiber.Router) {
	limit := middleware.RateLimit("autocheck", 3, time.Minute)
	router.Post("/:id/autocheck", middleware.RequireRole(models.RoleTeacher), limit, h.autocheck)
	router.Post("/:id/reset-scores", middleware.RequireRole(models.RoleTeacher), h.resetScores)
}

func (h *GradingHandler) autocheck(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.AutoGrade(c.Context(), currentUser(c), assignmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "auto-grading completed", submissions)
}

func (h *GradingHandler) resetScores(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	count, err := h.service.ResetScores(c.Context(), currentUser(c), assignmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "scores reset", fiber.Map{"reset": count})
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrNotClassOwner):
		return utils.SendError(c, fiber.StatusForbidden, "not the owner of this class")
	case errors.Is(err, service.ErrMissingArtifacts):
		return utils.SendError(c, fiber.StatusBadRequest, "assignment is missing its task or solution file")
	case errors.Is(err, service.ErrNoUngradedSubmissions):
		return utils.SendError(c, fiber.StatusNotFound, "no unchecked submissions found")
	case errors.Is(err, service.ErrNoGradedSubmissions):
		return utils.SendError(c, fiber.StatusNotFound, "no graded submissions found")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
