package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/edumesh/campus-api/internal/dto"
	"github.com/edumesh/campus-api/internal/models"
	"github.com/edumesh/campus-api/internal/realtime"
	"github.com/edumesh/campus-api/internal/repository"
)

// ErrRoomAccessDenied indicates the caller is not a member of the room.
var ErrRoomAccessDenied = errors.New("caller is not a room member")

// RoomService manages persistent chat rooms and their durable membership.
type RoomService interface {
	Create(ctx context.Context, identity realtime.Identity, payload dto.RoomCreateRequest) (dto.RoomResponse, error)
	Get(ctx context.Context, identity realtime.Identity, roomID string) (dto.RoomResponse, error)
	ListForUser(ctx context.Context, identity realtime.Identity) ([]dto.RoomResponse, error)
	AddMember(ctx context.Context, identity realtime.Identity, roomID, userID string) error
	RemoveMember(ctx context.Context, identity realtime.Identity, roomID, userID string) error
}

type roomService struct {
	repo      repository.RoomRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRoomService constructs a room service.
func NewRoomService(repo repository.RoomRepository, validate *validator.Validate, logger zerolog.Logger) RoomService {
	return &roomService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "room_service").Logger(),
	}
}

func (s *roomService) Create(ctx context.Context, identity realtime.Identity, payload dto.RoomCreateRequest) (dto.RoomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RoomResponse{}, err
	}

	var metadata datatypes.JSONMap
	if len(payload.Metadata) > 0 {
		metadata = datatypes.JSONMap{}
		for key, value := range payload.Metadata {
			metadata[key] = value
		}
	}

	room := models.ChatRoom{
		ID:        uuid.NewString(),
		CampusID:  identity.CampusID,
		Name:      strings.TrimSpace(payload.Name),
		Type:      payload.Type,
		ClassID:   payload.ClassID,
		SubjectID: payload.SubjectID,
		CreatedBy: identity.UserID,
		Metadata:  metadata,
	}

	memberIDs := payload.MemberIDs
	if !containsString(memberIDs, identity.UserID) {
		memberIDs = append(memberIDs, identity.UserID)
	}
	for _, userID := range memberIDs {
		room.Members = append(room.Members, models.RoomMember{UserID: userID, Role: "member"})
	}

	if err := s.repo.Create(ctx, &room); err != nil {
		return dto.RoomResponse{}, err
	}

	s.logger.Info().Str("room_id", room.ID).Str("type", room.Type).Int("members", len(room.Members)).Msg("room created")
	return dto.NewRoomResponse(room), nil
}

func (s *roomService) Get(ctx context.Context, identity realtime.Identity, roomID string) (dto.RoomResponse, error) {
	room, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return dto.RoomResponse{}, err
	}

	if !roomHasMember(room, identity.UserID) {
		return dto.RoomResponse{}, ErrRoomAccessDenied
	}
	return dto.NewRoomResponse(room), nil
}

func (s *roomService) ListForUser(ctx context.Context, identity realtime.Identity) ([]dto.RoomResponse, error) {
	rooms, err := s.repo.ListForUser(ctx, identity.CampusID, identity.UserID)
	if err != nil {
		return nil, err
	}
	return dto.NewRoomResponseSlice(rooms), nil
}

func (s *roomService) AddMember(ctx context.Context, identity realtime.Identity, roomID, userID string) error {
	if err := s.requireMembership(ctx, roomID, identity); err != nil {
		return err
	}
	return s.repo.AddMember(ctx, roomID, userID)
}

func (s *roomService) RemoveMember(ctx context.Context, identity realtime.Identity, roomID, userID string) error {
	if err := s.requireMembership(ctx, roomID, identity); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, roomID, userID)
}

func (s *roomService) requireMembership(ctx context.Context, roomID string, identity realtime.Identity) error {
	if strings.EqualFold(identity.Role, "admin") {
		return nil
	}

	member, err := s.repo.IsMember(ctx, roomID, identity.UserID)
	if err != nil {
		return err
	}
	if !member {
		return ErrRoomAccessDenied
	}
	return nil
}

func roomHasMember(room models.ChatRoom, userID string) bool {
	for _, member := range room.Members {
		if member.UserID == userID {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
