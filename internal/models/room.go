package models

import (
	"time"

	"gorm.io/datatypes"
)

// Room types mirror the chat entities a campus works with.
const (
	RoomTypePersonal     = "personal"
	RoomTypeClassGroup   = "class_group"
	RoomTypeSubjectGroup = "subject_group"
	RoomTypeCustomGroup  = "custom_group"
)

// ChatRoom is a persistent chat grouping: a 1:1 thread, a class or subject
// group, or a custom group.
type ChatRoom struct {
	ID        string            `gorm:"primaryKey;size:64" json:"id"`
	CampusID  string            `gorm:"size:64;index" json:"campus_id"`
	Name      string            `gorm:"size:255" json:"name"`
	Type      string            `gorm:"size:32;not null" json:"type"`
	ClassID   string            `gorm:"size:64;index" json:"class_id,omitempty"`
	SubjectID string            `gorm:"size:64;index" json:"subject_id,omitempty"`
	CreatedBy string            `gorm:"size:64" json:"created_by"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Members   []RoomMember      `gorm:"foreignKey:RoomID" json:"members,omitempty"`
}

// RoomMember is persistent group membership, distinct from the live
// membership edges a connection holds while joined for delivery.
type RoomMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    string    `gorm:"size:64;index:idx_room_user,unique" json:"room_id"`
	UserID    string    `gorm:"size:64;index:idx_room_user,unique;index" json:"user_id"`
	Role      string    `gorm:"size:32;default:member" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
