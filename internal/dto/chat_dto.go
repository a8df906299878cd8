package dto

import (
	"time"

	"github.com/edumesh/campus-api/internal/models"
)

// Websocket frame actions accepted on the chat connection.
const (
	ChatActionJoin    = "join"
	ChatActionLeave   = "leave"
	ChatActionMessage = "message"
	ChatActionTyping  = "typing"
	ChatActionSeen    = "seen"
	ChatActionStatus  = "status"
)

// ChatFrame is one inbound websocket frame. Fields beyond Action are
// interpreted per action.
type ChatFrame struct {
	Action    string   `json:"action" validate:"required,oneof=join leave message typing seen status"`
	RoomIDs   []string `json:"room_ids" validate:"omitempty,max=50,dive,min=1,max=128"`
	RoomID    string   `json:"room_id" validate:"omitempty,min=1,max=128"`
	Content   string   `json:"content" validate:"omitempty,max=4000"`
	Type      string   `json:"type" validate:"omitempty,oneof=text image file audio system"`
	ReplyToID uint     `json:"reply_to_id" validate:"omitempty"`
	IsTyping  bool     `json:"is_typing"`
	SeenIDs   []uint   `json:"seen_ids" validate:"omitempty,max=200"`
	Status    string   `json:"status" validate:"omitempty,oneof=online away busy"`
}

// ChatHistoryQuery represents query filters for retrieving chat history.
type ChatHistoryQuery struct {
	RoomID string     `query:"room_id" validate:"required,min=1,max=128"`
	Before *time.Time `query:"before"`
	Limit  int        `query:"limit" validate:"omitempty,min=1,max=100"`
}

// ChatMessageResponse is the serialized representation of a chat message.
type ChatMessageResponse struct {
	ID        uint      `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	ReplyToID *uint     `json:"reply_to_id,omitempty"`
	Seen      bool      `json:"seen"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChatMessageResponse converts a model into a DTO.
func NewChatMessageResponse(message models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        message.ID,
		RoomID:    message.RoomID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		Type:      message.Type,
		ReplyToID: message.ReplyToID,
		Seen:      message.Seen,
		CreatedAt: message.CreatedAt,
	}
}

// NewChatMessageResponseSlice converts a slice of models into DTOs.
func NewChatMessageResponseSlice(messages []models.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewChatMessageResponse(message))
	}
	return out
}

// PresenceResponse reports an identity's current availability.
type PresenceResponse struct {
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`
	LastChangedAt time.Time `json:"last_changed_at"`
}
