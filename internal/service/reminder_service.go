package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/edumesh/campus-api/internal/dto"
	"github.com/edumesh/campus-api/internal/models"
	"github.com/edumesh/campus-api/internal/realtime"
	"github.com/edumesh/campus-api/internal/repository"
)

// ErrReminderNotOwned indicates the caller attempted to touch a reminder
// belonging to someone else.
var ErrReminderNotOwned = errors.New("reminder not owned by caller")

// ReminderService manages reminder CRUD for owners. Dispatch is the
// scheduler's concern.
type ReminderService interface {
	Create(ctx context.Context, identity realtime.Identity, payload dto.ReminderCreateRequest) (dto.ReminderResponse, error)
	Update(ctx context.Context, identity realtime.Identity, id uint, payload dto.ReminderUpdateRequest) (dto.ReminderResponse, error)
	List(ctx context.Context, identity realtime.Identity, limit, offset int) ([]dto.ReminderResponse, error)
	Deactivate(ctx context.Context, identity realtime.Identity, id uint) error
}

type reminderService struct {
	repo      repository.ReminderRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewReminderService constructs a reminder CRUD service.
func NewReminderService(repo repository.ReminderRepository, validate *validator.Validate, logger zerolog.Logger) ReminderService {
	return &reminderService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "reminder_service").Logger(),
	}
}

func (s *reminderService) Create(ctx context.Context, identity realtime.Identity, payload dto.ReminderCreateRequest) (dto.ReminderResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReminderResponse{}, err
	}

	title := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	if title == "" {
		return dto.ReminderResponse{}, errors.New("reminder title empty after sanitization")
	}

	frequency := payload.Frequency
	if frequency == "" {
		frequency = models.FrequencyOneTime
	}

	model := models.Reminder{
		OwnerID:   identity.UserID,
		CampusID:  identity.CampusID,
		Title:     title,
		Note:      strings.TrimSpace(s.sanitizer.Sanitize(payload.Note)),
		RemindAt:  payload.RemindAt.UTC(),
		Frequency: frequency,
		IsActive:  true,
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		return dto.ReminderResponse{}, err
	}

	s.logger.Info().Uint("reminder_id", model.ID).Str("owner_id", identity.UserID).Msg("reminder created")
	return dto.NewReminderResponse(model), nil
}

func (s *reminderService) Update(ctx context.Context, identity realtime.Identity, id uint, payload dto.ReminderUpdateRequest) (dto.ReminderResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReminderResponse{}, err
	}

	reminder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ReminderResponse{}, err
	}
	if reminder.OwnerID != identity.UserID {
		return dto.ReminderResponse{}, ErrReminderNotOwned
	}

	if payload.Title != nil {
		title := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Title))
		if title == "" {
			return dto.ReminderResponse{}, errors.New("reminder title empty after sanitization")
		}
		reminder.Title = title
	}
	if payload.Note != nil {
		reminder.Note = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Note))
	}
	if payload.RemindAt != nil {
		reminder.RemindAt = payload.RemindAt.UTC()
		reminder.IsSent = false
		reminder.SentAt = nil
	}
	if payload.Frequency != nil {
		reminder.Frequency = *payload.Frequency
	}
	if payload.IsActive != nil {
		reminder.IsActive = *payload.IsActive
	}

	if err := s.repo.Update(ctx, &reminder); err != nil {
		return dto.ReminderResponse{}, err
	}

	return dto.NewReminderResponse(reminder), nil
}

func (s *reminderService) List(ctx context.Context, identity realtime.Identity, limit, offset int) ([]dto.ReminderResponse, error) {
	reminders, err := s.repo.ListByOwner(ctx, identity.CampusID, identity.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewReminderResponseSlice(reminders), nil
}

func (s *reminderService) Deactivate(ctx context.Context, identity realtime.Identity, id uint) error {
	return s.repo.Deactivate(ctx, id, identity.UserID)
}
