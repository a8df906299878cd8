package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/edumesh/campus-api/internal/models"
)

func seedChatMessages(t *testing.T, repo ChatRepository, roomID string, count int, start time.Time) []models.ChatMessage {
	t.Helper()

	out := make([]models.ChatMessage, 0, count)
	for i := 0; i < count; i++ {
		message := models.ChatMessage{
			RoomID:    roomID,
			CampusID:  "campus-1",
			SenderID:  fmt.Sprintf("user-%d", i%2),
			Content:   fmt.Sprintf("message %d", i),
			Type:      "text",
			CreatedAt: start.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Save(context.Background(), &message))
		out = append(out, message)
	}
	return out
}

func TestChatRepositoryListByRoomChronological(t *testing.T) {
	db := setupCampusTestDB(t, &models.ChatMessage{})
	repo := NewChatRepository(db)

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seedChatMessages(t, repo, "room-a", 5, start)
	seedChatMessages(t, repo, "room-b", 2, start)

	messages, err := repo.ListByRoom(context.Background(), "room-a", time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, messages, 5)
	for i, message := range messages {
		require.Equal(t, fmt.Sprintf("message %d", i), message.Content, "history is chronological ascending")
	}
}

func TestChatRepositoryListByRoomLimitKeepsNewest(t *testing.T) {
	db := setupCampusTestDB(t, &models.ChatMessage{})
	repo := NewChatRepository(db)

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seedChatMessages(t, repo, "room-a", 5, start)

	messages, err := repo.ListByRoom(context.Background(), "room-a", time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "message 3", messages[0].Content)
	require.Equal(t, "message 4", messages[1].Content)
}

func TestChatRepositoryListByRoomBeforeCursor(t *testing.T) {
	db := setupCampusTestDB(t, &models.ChatMessage{})
	repo := NewChatRepository(db)

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seedChatMessages(t, repo, "room-a", 5, start)

	messages, err := repo.ListByRoom(context.Background(), "room-a", start.Add(3*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	require.Equal(t, "message 2", messages[len(messages)-1].Content)
}

func TestChatRepositoryMarkSeen(t *testing.T) {
	db := setupCampusTestDB(t, &models.ChatMessage{})
	repo := NewChatRepository(db)

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seeded := seedChatMessages(t, repo, "room-a", 3, start)
	foreign := seedChatMessages(t, repo, "room-b", 1, start)

	at := start.Add(time.Minute)
	updated, err := repo.MarkSeen(context.Background(), "room-a", []uint{seeded[0].ID, seeded[1].ID, foreign[0].ID}, at)
	require.NoError(t, err)
	require.EqualValues(t, 2, updated, "ids outside the room are ignored")

	// Marking the same ids again touches nothing.
	updated, err = repo.MarkSeen(context.Background(), "room-a", []uint{seeded[0].ID, seeded[1].ID}, at)
	require.NoError(t, err)
	require.Zero(t, updated)

	updated, err = repo.MarkSeen(context.Background(), "room-a", nil, at)
	require.NoError(t, err)
	require.Zero(t, updated)

	messages, err := repo.ListByRoom(context.Background(), "room-a", time.Time{}, 10)
	require.NoError(t, err)
	require.True(t, messages[0].Seen)
	require.NotNil(t, messages[0].SeenAt)
	require.False(t, messages[2].Seen)
}

func TestChatRepositoryLatestByRoom(t *testing.T) {
	db := setupCampusTestDB(t, &models.ChatMessage{})
	repo := NewChatRepository(db)

	_, err := repo.LatestByRoom(context.Background(), "room-a")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seedChatMessages(t, repo, "room-a", 3, start)

	latest, err := repo.LatestByRoom(context.Background(), "room-a")
	require.NoError(t, err)
	require.Equal(t, "message 2", latest.Content)
}
