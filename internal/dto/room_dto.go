package dto

import (
	"time"

	"github.com/edumesh/campus-api/internal/models"
)

// RoomCreateRequest describes the payload to create a chat room.
type RoomCreateRequest struct {
	Name      string            `json:"name" validate:"omitempty,max=255"`
	Type      string            `json:"type" validate:"required,oneof=personal class_group subject_group custom_group"`
	ClassID   string            `json:"class_id" validate:"omitempty,max=64"`
	SubjectID string            `json:"subject_id" validate:"omitempty,max=64"`
	MemberIDs []string          `json:"member_ids" validate:"required,min=1,max=500,dive,min=1,max=64"`
	Metadata  map[string]string `json:"metadata" validate:"omitempty,max=20"`
}

// RoomMemberRequest adds or removes a single member.
type RoomMemberRequest struct {
	UserID string `json:"user_id" validate:"required,min=1,max=64"`
}

// RoomResponse is the serialized representation of a chat room.
type RoomResponse struct {
	ID        string    `json:"id"`
	CampusID  string    `json:"campus_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	ClassID   string    `json:"class_id,omitempty"`
	SubjectID string    `json:"subject_id,omitempty"`
	CreatedBy string    `json:"created_by"`
	MemberIDs []string  `json:"member_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRoomResponse converts a room model into a DTO.
func NewRoomResponse(room models.ChatRoom) RoomResponse {
	memberIDs := make([]string, 0, len(room.Members))
	for _, member := range room.Members {
		memberIDs = append(memberIDs, member.UserID)
	}

	return RoomResponse{
		ID:        room.ID,
		CampusID:  room.CampusID,
		Name:      room.Name,
		Type:      room.Type,
		ClassID:   room.ClassID,
		SubjectID: room.SubjectID,
		CreatedBy: room.CreatedBy,
		MemberIDs: memberIDs,
		CreatedAt: room.CreatedAt,
	}
}

// NewRoomResponseSlice converts a slice of room models into DTOs.
func NewRoomResponseSlice(rooms []models.ChatRoom) []RoomResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, NewRoomResponse(room))
	}
	return out
}
