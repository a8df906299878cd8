package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/edumesh/campus-api/internal/dto"
	"github.com/edumesh/campus-api/internal/models"
	"github.com/edumesh/campus-api/internal/realtime"
	"github.com/edumesh/campus-api/internal/repository"
)

// DeviceService registers and removes push-delivery device tokens.
type DeviceService interface {
	Register(ctx context.Context, identity realtime.Identity, payload dto.DeviceTokenRequest) error
	Remove(ctx context.Context, identity realtime.Identity, token string) error
}

type deviceService struct {
	repo      repository.DeviceTokenRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDeviceService constructs a device token service.
func NewDeviceService(repo repository.DeviceTokenRepository, validate *validator.Validate, logger zerolog.Logger) DeviceService {
	return &deviceService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "device_service").Logger(),
	}
}

func (s *deviceService) Register(ctx context.Context, identity realtime.Identity, payload dto.DeviceTokenRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	token := models.DeviceToken{
		UserID:   identity.UserID,
		CampusID: identity.CampusID,
		Token:    strings.TrimSpace(payload.Token),
		Platform: strings.ToLower(strings.TrimSpace(payload.Platform)),
	}
	return s.repo.Upsert(ctx, &token)
}

func (s *deviceService) Remove(ctx context.Context, identity realtime.Identity, token string) error {
	return s.repo.Remove(ctx, identity.UserID, strings.TrimSpace(token))
}
