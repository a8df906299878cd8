package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edumesh/campus-api/internal/dto"
	"github.com/edumesh/campus-api/internal/middleware"
	"github.com/edumesh/campus-api/internal/service"
	"github.com/edumesh/campus-api/internal/utils"
)

// ReminderHandler wires reminder CRUD plus the administrative scheduler
// endpoints.
type ReminderHandler struct {
	service   service.ReminderService
	scheduler service.ReminderScheduler
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewReminderHandler creates a reminder handler instance.
func NewReminderHandler(service service.ReminderService, scheduler service.ReminderScheduler, validator *validator.Validate, logger zerolog.Logger) *ReminderHandler {
	return &ReminderHandler{
		service:   service,
		scheduler: scheduler,
		validator: validator,
		logger:    logger.With().Str("component", "reminder_handler").Logger(),
	}
}

// Register binds reminder routes under the provided router group.
func (h *ReminderHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/", h.list)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.deactivate)
}

// RegisterAdmin binds the manual scheduler triggers, intended for an
// admin-guarded group.
func (h *ReminderHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/tick", h.tick)
	router.Post("/cleanup", h.cleanup)
}

func (h *ReminderHandler) create(c *fiber.Ctx) error {
	var payload dto.ReminderCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	identity := middleware.IdentityFromLocals(c)
	reminder, err := h.service.Create(c.UserContext(), identity, payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create reminder")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create reminder")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reminder created", reminder)
}

func (h *ReminderHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	identity := middleware.IdentityFromLocals(c)
	reminders, err := h.service.List(c.UserContext(), identity, limit, offset)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list reminders")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list reminders")
	}

	return utils.SendSuccess(c, "reminders", reminders)
}

func (h *ReminderHandler) update(c *fiber.Ctx) error {
	id, err := parsePathID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid reminder id")
	}

	var payload dto.ReminderUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	identity := middleware.IdentityFromLocals(c)
	reminder, err := h.service.Update(c.UserContext(), identity, id, payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "reminder not found")
		case errors.Is(err, service.ErrReminderNotOwned):
			return utils.SendError(c, fiber.StatusForbidden, "reminder not owned by caller")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to update reminder")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to update reminder")
		}
	}

	return utils.SendSuccess(c, "reminder updated", reminder)
}

func (h *ReminderHandler) deactivate(c *fiber.Ctx) error {
	id, err := parsePathID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid reminder id")
	}

	identity := middleware.IdentityFromLocals(c)
	if err := h.service.Deactivate(c.UserContext(), identity, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "reminder not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to deactivate reminder")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to deactivate reminder")
	}

	return utils.SendSuccess(c, "reminder deactivated", nil)
}

func (h *ReminderHandler) tick(c *fiber.Ctx) error {
	report := h.scheduler.Tick(c.UserContext(), time.Now().UTC())
	return utils.SendSuccess(c, "tick completed", report)
}

func (h *ReminderHandler) cleanup(c *fiber.Ctx) error {
	olderThan, err := parseQueryInt(c, "older_than_days")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid older_than_days")
	}

	purged, err := h.scheduler.Cleanup(c.UserContext(), olderThan)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("reminder cleanup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "reminder cleanup failed")
	}

	return utils.SendSuccess(c, "cleanup completed", fiber.Map{"purged": purged})
}
