package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/edumesh/campus-api/internal/dto"
	"github.com/edumesh/campus-api/internal/handler"
	"github.com/edumesh/campus-api/internal/realtime"
)

type stubReminderService struct {
	reminder dto.ReminderResponse
}

func (s stubReminderService) Create(context.Context, realtime.Identity, dto.ReminderCreateRequest) (dto.ReminderResponse, error) {
	return s.reminder, nil
}

func (s stubReminderService) Update(context.Context, realtime.Identity, uint, dto.ReminderUpdateRequest) (dto.ReminderResponse, error) {
	return s.reminder, nil
}

func (s stubReminderService) List(context.Context, realtime.Identity, int, int) ([]dto.ReminderResponse, error) {
	return []dto.ReminderResponse{s.reminder}, nil
}

func (s stubReminderService) Deactivate(context.Context, realtime.Identity, uint) error {
	return nil
}

type stubReminderScheduler struct {
	report dto.TickReportResponse
}

func (s stubReminderScheduler) Start(time.Duration) {}

func (s stubReminderScheduler) Stop() {}

func (s stubReminderScheduler) Tick(context.Context, time.Time) dto.TickReportResponse {
	return s.report
}

func (s stubReminderScheduler) Cleanup(context.Context, int) (int64, error) {
	return 0, nil
}

func withIdentity(app *fiber.App) {
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		c.Locals("user_role", "teacher")
		c.Locals("campus_id", "campus-1")
		return c.Next()
	})
}

func TestReminderCreateContract(t *testing.T) {
	schema := compileSchema(t, "reminder.schema.json")

	serviceStub := stubReminderService{
		reminder: dto.ReminderResponse{
			ID:        1,
			OwnerID:   "user-1",
			CampusID:  "campus-1",
			Title:     "Submit homework",
			Note:      "chapter 4",
			RemindAt:  time.Now().UTC().Add(time.Hour),
			Frequency: "daily",
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		},
	}

	app := fiber.New()
	withIdentity(app)
	reminderHandler := handler.NewReminderHandler(serviceStub, stubReminderScheduler{}, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	reminderHandler.Register(app.Group("/api/v1/reminders"))

	body := strings.NewReader(`{"title":"Submit homework","remind_at":"2025-09-01T08:00:00Z","frequency":"daily"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reminders/", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestReminderTickContract(t *testing.T) {
	schema := compileSchema(t, "tick_report.schema.json")

	schedulerStub := stubReminderScheduler{
		report: dto.TickReportResponse{Processed: 3, Successful: 2, Failed: 1, RanAt: time.Now().UTC()},
	}

	app := fiber.New()
	withIdentity(app)
	reminderHandler := handler.NewReminderHandler(stubReminderService{}, schedulerStub, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	reminderHandler.RegisterAdmin(app.Group("/api/v1/admin/reminders"))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/admin/reminders/tick", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, schema.Validate(payload))
}
