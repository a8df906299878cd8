package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edumesh/campus-api/internal/models"
)

// ReminderRepository persists scheduled reminders and the scheduler's
// occurrence bookkeeping.
type ReminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	GetByID(ctx context.Context, id uint) (models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder) error
	ListByOwner(ctx context.Context, campusID, ownerID string, limit, offset int) ([]models.Reminder, error)
	Deactivate(ctx context.Context, id uint, ownerID string) error
	ListDue(ctx context.Context, now time.Time) ([]models.Reminder, error)
	MarkSent(ctx context.Context, id uint, sentAt time.Time, notificationID string) error
	Reschedule(ctx context.Context, id uint, nextDue time.Time) error
	DeactivateSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository constructs a reminder repository backed by GORM.
func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *reminderRepository) GetByID(ctx context.Context, id uint) (models.Reminder, error) {
	var reminder models.Reminder
	if err := r.db.WithContext(ctx).First(&reminder, id).Error; err != nil {
		return models.Reminder{}, err
	}
	return reminder, nil
}

func (r *reminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	return r.db.WithContext(ctx).Save(reminder).Error
}

func (r *reminderRepository) ListByOwner(ctx context.Context, campusID, ownerID string, limit, offset int) ([]models.Reminder, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var reminders []models.Reminder
	err := r.db.WithContext(ctx).
		Where("campus_id = ? AND owner_id = ? AND is_active = ?", campusID, ownerID, true).
		Order("remind_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&reminders).Error
	if err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *reminderRepository) Deactivate(ctx context.Context, id uint, ownerID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reminderRepository) ListDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_sent = ? AND remind_at <= ?", true, false, now).
		Order("remind_at ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *reminderRepository) MarkSent(ctx context.Context, id uint, sentAt time.Time, notificationID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_sent":         true,
			"sent_at":         sentAt,
			"notification_id": notificationID,
		}).Error
}

func (r *reminderRepository) Reschedule(ctx context.Context, id uint, nextDue time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"remind_at": nextDue,
			"is_sent":   false,
			"sent_at":   nil,
		}).Error
}

func (r *reminderRepository) DeactivateSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("frequency = ? AND is_sent = ? AND sent_at < ? AND is_active = ?", models.FrequencyOneTime, true, cutoff, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
