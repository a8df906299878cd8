package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edumesh/campus-api/internal/dto"
	"github.com/edumesh/campus-api/internal/middleware"
	"github.com/edumesh/campus-api/internal/service"
	"github.com/edumesh/campus-api/internal/utils"
)

// DeviceHandler wires device token registration for push delivery.
type DeviceHandler struct {
	service   service.DeviceService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDeviceHandler creates a device handler instance.
func NewDeviceHandler(service service.DeviceService, validator *validator.Validate, logger zerolog.Logger) *DeviceHandler {
	return &DeviceHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "device_handler").Logger(),
	}
}

// Register binds device token routes under the provided router group.
func (h *DeviceHandler) Register(router fiber.Router) {
	router.Post("/", h.register)
	router.Delete("/:token", h.remove)
}

func (h *DeviceHandler) register(c *fiber.Ctx) error {
	var payload dto.DeviceTokenRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	identity := middleware.IdentityFromLocals(c)
	if err := h.service.Register(c.UserContext(), identity, payload); err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to register device token")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to register device token")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "device registered", nil)
}

func (h *DeviceHandler) remove(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "token required")
	}

	identity := middleware.IdentityFromLocals(c)
	if err := h.service.Remove(c.UserContext(), identity, token); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to remove device token")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to remove device token")
	}

	return utils.SendSuccess(c, "device removed", nil)
}
