package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edumesh/campus-api/internal/models"
)

// ChatRepository persists chat messages for history and reconnect catch-up.
type ChatRepository interface {
	Save(ctx context.Context, message *models.ChatMessage) error
	ListByRoom(ctx context.Context, roomID string, before time.Time, limit int) ([]models.ChatMessage, error)
	MarkSeen(ctx context.Context, roomID string, messageIDs []uint, at time.Time) (int64, error)
	LatestByRoom(ctx context.Context, roomID string) (models.ChatMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository constructs a chat repository backed by GORM.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Save(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *chatRepository) ListByRoom(ctx context.Context, roomID string, before time.Time, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Where("room_id = ?", roomID)
	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var messages []models.ChatMessage
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	// Reverse to chronological order ascending for clients.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *chatRepository) MarkSeen(ctx context.Context, roomID string, messageIDs []uint, at time.Time) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("room_id = ? AND id IN ? AND seen = ?", roomID, messageIDs, false).
		Updates(map[string]interface{}{"seen": true, "seen_at": at})
	return result.RowsAffected, result.Error
}

func (r *chatRepository) LatestByRoom(ctx context.Context, roomID string) (models.ChatMessage, error) {
	var message models.ChatMessage
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("created_at DESC").First(&message).Error
	if err != nil {
		return models.ChatMessage{}, err
	}
	return message, nil
}
