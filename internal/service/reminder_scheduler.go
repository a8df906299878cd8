package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/edumesh/campus-api/internal/dto"
	"github.com/edumesh/campus-api/internal/models"
	"github.com/edumesh/campus-api/internal/observability"
	"github.com/edumesh/campus-api/internal/repository"
)

const reminderDispatchTimeout = 10 * time.Second

// ReminderScheduler runs the periodic reminder-dispatch loop. Ticks never
// overlap; a tick in flight when Stop is called finishes gracefully.
type ReminderScheduler interface {
	Start(interval time.Duration)
	Stop()
	Tick(ctx context.Context, now time.Time) dto.TickReportResponse
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

type reminderScheduler struct {
	repo      repository.ReminderRepository
	deliverer Deliverer
	logger    zerolog.Logger
	tracer    trace.Tracer

	tickMu    sync.Mutex
	startStop sync.Mutex
	stop      chan struct{}
	done      chan struct{}
}

// NewReminderScheduler constructs the reminder dispatch loop.
func NewReminderScheduler(repo repository.ReminderRepository, deliverer Deliverer, logger zerolog.Logger) ReminderScheduler {
	return &reminderScheduler{
		repo:      repo,
		deliverer: deliverer,
		logger:    logger.With().Str("component", "reminder_scheduler").Logger(),
		tracer:    otel.Tracer("github.com/edumesh/campus-api/internal/service/reminder"),
	}
}

func (s *reminderScheduler) Start(interval time.Duration) {
	s.startStop.Lock()
	defer s.startStop.Unlock()

	if s.stop != nil {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(interval, s.stop, s.done)
	s.logger.Info().Dur("interval", interval).Msg("reminder scheduler started")
}

func (s *reminderScheduler) Stop() {
	s.startStop.Lock()
	defer s.startStop.Unlock()

	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	s.done = nil
	s.logger.Info().Msg("reminder scheduler stopped")
}

func (s *reminderScheduler) run(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			report := s.Tick(context.Background(), time.Now().UTC())
			if report.Processed > 0 {
				s.logger.Info().
					Int("processed", report.Processed).
					Int("successful", report.Successful).
					Int("failed", report.Failed).
					Msg("reminder tick completed")
			}
		}
	}
}

// Tick dispatches every due reminder occurrence once. Per-item failures are
// isolated: the reminder stays unsent and is retried on the next tick while
// the rest of the batch proceeds.
func (s *reminderScheduler) Tick(ctx context.Context, now time.Time) dto.TickReportResponse {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	report := dto.TickReportResponse{RanAt: now}

	spanCtx, span := s.tracer.Start(ctx, "reminders.tick", trace.WithAttributes(
		attribute.String("tick.now", now.Format(time.RFC3339)),
	))
	defer span.End()

	due, err := s.repo.ListDue(spanCtx, now)
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Msg("failed to query due reminders")
		return report
	}

	for _, reminder := range due {
		report.Processed++
		if err := s.dispatch(spanCtx, reminder, now); err != nil {
			report.Failed++
			observability.RemindersDispatched().WithLabelValues("failed").Inc()
			s.logger.Warn().Err(err).Uint("reminder_id", reminder.ID).Msg("reminder dispatch failed, will retry next tick")
			continue
		}
		report.Successful++
		observability.RemindersDispatched().WithLabelValues("sent").Inc()
	}

	span.SetAttributes(
		attribute.Int("tick.processed", report.Processed),
		attribute.Int("tick.successful", report.Successful),
		attribute.Int("tick.failed", report.Failed),
	)
	return report
}

func (s *reminderScheduler) dispatch(ctx context.Context, reminder models.Reminder, now time.Time) error {
	dispatchCtx, cancel := context.WithTimeout(ctx, reminderDispatchTimeout)
	defer cancel()

	if err := s.deliverer.Deliver(dispatchCtx, reminder.OwnerID, reminder.Title, reminder.Note); err != nil {
		return err
	}

	notificationID := uuid.NewString()
	if err := s.repo.MarkSent(dispatchCtx, reminder.ID, now, notificationID); err != nil {
		return err
	}

	switch reminder.Frequency {
	case models.FrequencyDaily:
		return s.repo.Reschedule(dispatchCtx, reminder.ID, reminder.RemindAt.Add(24*time.Hour))
	case models.FrequencyWeekly:
		return s.repo.Reschedule(dispatchCtx, reminder.ID, reminder.RemindAt.Add(7*24*time.Hour))
	default:
		// One-time reminders are terminal once sent.
		return s.repo.Deactivate(dispatchCtx, reminder.ID, reminder.OwnerID)
	}
}

// Cleanup deactivates one-time reminders whose dispatch completed longer ago
// than the retention window. Maintenance only, not part of the tick path.
func (s *reminderScheduler) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		olderThanDays = 30
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	purged, err := s.repo.DeactivateSentBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if purged > 0 {
		s.logger.Info().Int64("purged", purged).Time("cutoff", cutoff).Msg("cleaned up completed reminders")
	}
	return purged, nil
}
