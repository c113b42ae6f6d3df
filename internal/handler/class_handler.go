package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classly/classly-api/internal/dto"
	"github.com/classly/classly-api/internal/middleware"
	"github.com/classly/classly-api/internal/models"
	"github.com/classly/classly-api/internal/service"
	"github.com/classly/classly-api/internal/utils"
)

// ClassHandler wires class and enrollment HTTP routes.
type ClassHandler struct {
	service service.ClassService
	logger  zerolog.Logger
}

// NewClassHandler constructs the handler.
func NewClassHandler(classService service.ClassService, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		service: classService,
		logger:  logger.With().Str("component", "class_handler").Logger(),
	}
}

// Register attaches class endpoints to the router group.
func (h *ClassHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", middleware.RequireRole(models.RoleTeacher), h.create)
	router.Post("/join", middleware.RequireRole(models.RoleStudent), h.join)
	router.Get("/:id", h.get)
}

func (h *ClassHandler) list(c *fiber.Ctx) error {
	classes, err := h.service.ListForUser(c.Context(), currentUser(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "classes retrieved", classes)
}

func (h *ClassHandler) create(c *fiber.Ctx) error {
	var payload dto.ClassCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	class, err := h.service.Create(c.Context(), currentUser(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class created", class)
}

func (h *ClassHandler) join(c *fiber.Ctx) error {
	var payload dto.JoinClassRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	class, err := h.service.Join(c.Context(), currentUser(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class joined", class)
}

func (h *ClassHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	class, err := h.service.Get(c.Context(), currentUser(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class retrieved", class)
}

func (h *ClassHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrInvalidInviteCode):
		return utils.SendError(c, fiber.StatusNotFound, "invalid invite code")
	case errors.Is(err, service.ErrNotClassMember):
		return utils.SendError(c, fiber.StatusForbidden, "not a member of this class")
	case errors.Is(err, service.ErrNotClassOwner):
		return utils.SendError(c, fiber.StatusForbidden, "not the owner of this class")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *ClassHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
