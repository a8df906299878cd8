package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edumesh/campus-api/internal/models"
)

// RoomRepository persists chat rooms and their durable membership.
type RoomRepository interface {
	Create(ctx context.Context, room *models.ChatRoom) error
	GetByID(ctx context.Context, id string) (models.ChatRoom, error)
	ListForUser(ctx context.Context, campusID, userID string) ([]models.ChatRoom, error)
	AddMember(ctx context.Context, roomID, userID string) error
	RemoveMember(ctx context.Context, roomID, userID string) error
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository constructs a room repository backed by GORM.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *models.ChatRoom) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.WithContext(ctx).Preload("Members").First(&room, "id = ?", id).Error
	if err != nil {
		return models.ChatRoom{}, err
	}
	return room, nil
}

func (r *roomRepository) ListForUser(ctx context.Context, campusID, userID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := r.db.WithContext(ctx).
		Preload("Members").
		Joins("JOIN room_members ON room_members.room_id = chat_rooms.id").
		Where("chat_rooms.campus_id = ? AND room_members.user_id = ?", campusID, userID).
		Order("chat_rooms.updated_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *roomRepository) AddMember(ctx context.Context, roomID, userID string) error {
	member := models.RoomMember{RoomID: roomID, UserID: userID}
	return r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		FirstOrCreate(&member).Error
}

func (r *roomRepository) RemoveMember(ctx context.Context, roomID, userID string) error {
	return r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.RoomMember{}).Error
}

func (r *roomRepository) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
