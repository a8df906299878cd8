package dto

import (
	"time"

	"github.com/edumesh/campus-api/internal/models"
)

// ReminderCreateRequest describes the payload to schedule a reminder.
type ReminderCreateRequest struct {
	Title     string    `json:"title" validate:"required,min=1,max=255"`
	Note      string    `json:"note" validate:"omitempty,max=2000"`
	RemindAt  time.Time `json:"remind_at" validate:"required"`
	Frequency string    `json:"frequency" validate:"omitempty,oneof=one_time daily weekly"`
}

// ReminderUpdateRequest carries partial updates for an existing reminder.
type ReminderUpdateRequest struct {
	Title     *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Note      *string    `json:"note" validate:"omitempty,max=2000"`
	RemindAt  *time.Time `json:"remind_at"`
	Frequency *string    `json:"frequency" validate:"omitempty,oneof=one_time daily weekly"`
	IsActive  *bool      `json:"is_active"`
}

// ReminderResponse is the serialized representation of a reminder.
type ReminderResponse struct {
	ID             uint       `json:"id"`
	OwnerID        string     `json:"owner_id"`
	CampusID       string     `json:"campus_id"`
	Title          string     `json:"title"`
	Note           string     `json:"note,omitempty"`
	RemindAt       time.Time  `json:"remind_at"`
	Frequency      string     `json:"frequency"`
	IsActive       bool       `json:"is_active"`
	IsSent         bool       `json:"is_sent"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	NotificationID string     `json:"notification_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewReminderResponse converts a reminder model into a DTO.
func NewReminderResponse(reminder models.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:             reminder.ID,
		OwnerID:        reminder.OwnerID,
		CampusID:       reminder.CampusID,
		Title:          reminder.Title,
		Note:           reminder.Note,
		RemindAt:       reminder.RemindAt,
		Frequency:      reminder.Frequency,
		IsActive:       reminder.IsActive,
		IsSent:         reminder.IsSent,
		SentAt:         reminder.SentAt,
		NotificationID: reminder.NotificationID,
		CreatedAt:      reminder.CreatedAt,
	}
}

// NewReminderResponseSlice converts a slice of reminder models into DTOs.
func NewReminderResponseSlice(reminders []models.Reminder) []ReminderResponse {
	out := make([]ReminderResponse, 0, len(reminders))
	for _, reminder := range reminders {
		out = append(out, NewReminderResponse(reminder))
	}
	return out
}

// DeviceTokenRequest registers a push-delivery target for the caller.
type DeviceTokenRequest struct {
	Token    string `json:"token" validate:"required,min=8,max=512"`
	Platform string `json:"platform" validate:"omitempty,oneof=ios android web"`
}

// TickReportResponse aggregates one scheduler pass over due reminders.
type TickReportResponse struct {
	Processed  int       `json:"processed"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	RanAt      time.Time `json:"ran_at"`
}
