package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edumesh/campus-api/internal/models"
)

// DeviceTokenRepository tracks push-delivery targets per user.
type DeviceTokenRepository interface {
	Upsert(ctx context.Context, token *models.DeviceToken) error
	ListByUser(ctx context.Context, userID string) ([]models.DeviceToken, error)
	Remove(ctx context.Context, userID, token string) error
}

type deviceTokenRepository struct {
	db *gorm.DB
}

// NewDeviceTokenRepository constructs a device token repository backed by GORM.
func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) Upsert(ctx context.Context, token *models.DeviceToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "campus_id", "platform", "updated_at"}),
		}).
		Create(token).Error
}

func (r *deviceTokenRepository) ListByUser(ctx context.Context, userID string) ([]models.DeviceToken, error) {
	var tokens []models.DeviceToken
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *deviceTokenRepository) Remove(ctx context.Context, userID, token string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.DeviceToken{}).Error
}
