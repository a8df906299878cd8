package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edumesh/campus-api/internal/dto"
	"github.com/edumesh/campus-api/internal/middleware"
	"github.com/edumesh/campus-api/internal/service"
	"github.com/edumesh/campus-api/internal/utils"
)

// RoomHandler wires persistent chat room endpoints.
type RoomHandler struct {
	service   service.RoomService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRoomHandler creates a room handler instance.
func NewRoomHandler(service service.RoomService, validator *validator.Validate, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "room_handler").Logger(),
	}
}

// Register binds room routes under the provided router group.
func (h *RoomHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/", h.list)
	router.Get("/:room_id", h.get)
	router.Post("/:room_id/members", h.addMember)
	router.Delete("/:room_id/members/:user_id", h.removeMember)
}

func (h *RoomHandler) create(c *fiber.Ctx) error {
	var payload dto.RoomCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	identity := middleware.IdentityFromLocals(c)
	room, err := h.service.Create(c.UserContext(), identity, payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create room")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create room")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "room created", room)
}

func (h *RoomHandler) list(c *fiber.Ctx) error {
	identity := middleware.IdentityFromLocals(c)
	rooms, err := h.service.ListForUser(c.UserContext(), identity)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list rooms")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list rooms")
	}

	return utils.SendSuccess(c, "rooms", rooms)
}

func (h *RoomHandler) get(c *fiber.Ctx) error {
	roomID := strings.TrimSpace(c.Params("room_id"))
	identity := middleware.IdentityFromLocals(c)

	room, err := h.service.Get(c.UserContext(), identity, roomID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "room not found")
		case errors.Is(err, service.ErrRoomAccessDenied):
			return utils.SendError(c, fiber.StatusForbidden, "not a room member")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch room")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch room")
		}
	}

	return utils.SendSuccess(c, "room", room)
}

func (h *RoomHandler) addMember(c *fiber.Ctx) error {
	roomID := strings.TrimSpace(c.Params("room_id"))

	var payload dto.RoomMemberRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	identity := middleware.IdentityFromLocals(c)
	if err := h.service.AddMember(c.UserContext(), identity, roomID, payload.UserID); err != nil {
		if errors.Is(err, service.ErrRoomAccessDenied) {
			return utils.SendError(c, fiber.StatusForbidden, "not a room member")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to add room member")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to add room member")
	}

	return utils.SendSuccess(c, "member added", nil)
}

func (h *RoomHandler) removeMember(c *fiber.Ctx) error {
	roomID := strings.TrimSpace(c.Params("room_id"))
	userID := strings.TrimSpace(c.Params("user_id"))

	identity := middleware.IdentityFromLocals(c)
	if err := h.service.RemoveMember(c.UserContext(), identity, roomID, userID); err != nil {
		if errors.Is(err, service.ErrRoomAccessDenied) {
			return utils.SendError(c, fiber.StatusForbidden, "not a room member")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to remove room member")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to remove room member")
	}

	return utils.SendSuccess(c, "member removed", nil)
}
