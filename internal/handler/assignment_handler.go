package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classly/classly-api/internal/dto"
	"github.com/classly/classly-api/internal/middleware"
	"github.com/classly/classly-api/internal/models"
	"github.com/classly/classly-api/internal/service"
	"github.com/classly/classly-api/internal/utils"
)

// AssignmentHandler wires assignment HTTP routes.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(assignmentService service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: assignmentService,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// RegisterClassRoutes attaches the class-scoped assignment endpoints.
func (h *AssignmentHandler) RegisterClassRoutes(router fiber.Router) {
	router.Get("/:id/assignments", h.listByClass)
	router.Post("/:id/assignments", middleware.RequireRole(models.RoleTeacher), h.create)
}

// Register attaches the assignment-scoped endpoints.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Patch("/:id", middleware.RequireRole(models.RoleTeacher), h.update)
}

func (h *AssignmentHandler) listByClass(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignments, err := h.service.ListByClass(c.Context(), currentUser(c), classID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.AssignmentCreateRequest{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Deadline:    c.FormValue("deadline"),
	}
	if raw := c.FormValue("max_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid max score")
		}
		payload.MaxScore = score
	}

	assignment, err := h.service.Create(c.Context(), currentUser(c), classID, payload, h.formFiles(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Get(c.Context(), currentUser(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.AssignmentUpdateRequest{}
	if name := c.FormValue("name"); name != "" {
		payload.Name = &name
	}
	if description := c.FormValue("description"); description != "" {
		payload.Description = &description
	}
	if deadline := c.FormValue("deadline"); deadline != "" {
		payload.Deadline = &deadline
	}
	if raw := c.FormValue("max_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid max score")
		}
		payload.MaxScore = &score
	}

	assignment, err := h.service.Update(c.Context(), currentUser(c), id, payload, h.formFiles(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) formFiles(c *fiber.Ctx) service.AssignmentFiles {
	files := service.AssignmentFiles{}
	if task, err := c.FormFile("task_file"); err == nil {
		files.Task = task
	}
	if solution, err := c.FormFile("solution_file"); err == nil {
		files.Solution = solution
	}
	return files
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrNotClassMember):
		return utils.SendError(c, fiber.StatusForbidden, "not a member of this class")
	case errors.Is(err, service.ErrNotClassOwner):
		return utils.SendError(c, fiber.StatusForbidden, "not the owner of this class")
	case errors.Is(err, service.ErrTaskFileRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "task file is required")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
