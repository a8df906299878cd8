package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/edumesh/campus-api/internal/dto"
	"github.com/edumesh/campus-api/internal/handler"
	"github.com/edumesh/campus-api/internal/service"
)

type stubChatService struct {
	history  []dto.ChatMessageResponse
	presence dto.PresenceResponse
}

func (s stubChatService) ServeConnection(conn *websocket.Conn, opts service.ChatConnectionOptions) {
}

func (s stubChatService) History(context.Context, dto.ChatHistoryQuery) ([]dto.ChatMessageResponse, error) {
	return s.history, nil
}

func (s stubChatService) PresenceOf(string) dto.PresenceResponse {
	return s.presence
}

func (s stubChatService) Start(context.Context) {}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func fetchJSON(t *testing.T, app *fiber.App, path string) interface{} {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

func TestChatHistoryContract(t *testing.T) {
	schema := compileSchema(t, "chat_history.schema.json")

	replyTo := uint(3)
	serviceStub := stubChatService{
		history: []dto.ChatMessageResponse{
			{ID: 4, RoomID: "room-a", SenderID: "user-1", Content: "hello", Type: "text", Seen: true, CreatedAt: time.Now().UTC()},
			{ID: 5, RoomID: "room-a", SenderID: "user-2", Content: "hi", Type: "text", ReplyToID: &replyTo, CreatedAt: time.Now().UTC()},
		},
	}

	app := fiber.New()
	chatHandler := handler.NewChatHandler(serviceStub, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	chatHandler.Register(app.Group("/api/v1/chat"))

	payload := fetchJSON(t, app, "/api/v1/chat/history?room_id=room-a&limit=50")
	require.NoError(t, schema.Validate(payload))
}

func TestChatPresenceContract(t *testing.T) {
	schema := compileSchema(t, "presence.schema.json")

	serviceStub := stubChatService{
		presence: dto.PresenceResponse{UserID: "user-1", Status: "busy", LastChangedAt: time.Now().UTC()},
	}

	app := fiber.New()
	chatHandler := handler.NewChatHandler(serviceStub, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	chatHandler.Register(app.Group("/api/v1/chat"))

	payload := fetchJSON(t, app, "/api/v1/chat/presence/user-1")
	require.NoError(t, schema.Validate(payload))
}
