package models

import "time"

// ChatMessage represents a single persisted chat payload within a room.
type ChatMessage struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	RoomID    string     `gorm:"size:64;index" json:"room_id"`
	CampusID  string     `gorm:"size:64;index" json:"campus_id"`
	SenderID  string     `gorm:"size:64;index" json:"sender_id"`
	Content   string     `gorm:"type:text" json:"content"`
	Type      string     `gorm:"size:32;default:text" json:"type"`
	ReplyToID *uint      `gorm:"index" json:"reply_to_id,omitempty"`
	Seen      bool       `gorm:"not null;default:false" json:"seen"`
	SeenAt    *time.Time `json:"seen_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
