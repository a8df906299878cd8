package models

import "time"

// Reminder frequencies.
const (
	FrequencyOneTime = "one_time"
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
)

// Reminder is a scheduled notification owned by a user. For recurring
// reminders IsSent reflects only the current due occurrence; after a
// successful dispatch RemindAt is advanced and IsSent reset.
type Reminder struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OwnerID        string     `gorm:"size:64;index" json:"owner_id"`
	CampusID       string     `gorm:"size:64;index" json:"campus_id"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Note           string     `gorm:"type:text" json:"note"`
	RemindAt       time.Time  `gorm:"index" json:"remind_at"`
	Frequency      string     `gorm:"size:16;default:one_time" json:"frequency"`
	IsActive       bool       `gorm:"not null;default:true" json:"is_active"`
	IsSent         bool       `gorm:"not null;default:false" json:"is_sent"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	NotificationID string     `gorm:"size:64" json:"notification_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DeviceToken is a push-delivery target registered by one of a user's devices.
type DeviceToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	CampusID  string    `gorm:"size:64;index" json:"campus_id"`
	Token     string    `gorm:"size:512;uniqueIndex" json:"token"`
	Platform  string    `gorm:"size:32" json:"platform"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
