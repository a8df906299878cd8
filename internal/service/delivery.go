package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/edumesh/campus-api/internal/repository"
)

// ErrDelivererUnavailable indicates no delivery transport is configured.
var ErrDelivererUnavailable = errors.New("notification deliverer unavailable")

// Deliverer hands a notification to the external push/email gateway. The
// scheduler treats a nil error as a successful dispatch; anything else is
// retried on the next tick.
type Deliverer interface {
	Deliver(ctx context.Context, userID, title, body string) error
}

// pushPayload is the envelope handed to the push gateway over NATS.
type pushPayload struct {
	UserID  string    `json:"user_id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Tokens  []string  `json:"tokens,omitempty"`
	QueueAt time.Time `json:"queued_at"`
}

type natsDeliverer struct {
	conn    *nats.Conn
	subject string
	tokens  repository.DeviceTokenRepository
	logger  zerolog.Logger
}

// NewNATSDeliverer creates a deliverer that resolves the target's device
// tokens and publishes the notification to the push gateway subject.
func NewNATSDeliverer(conn *nats.Conn, channelBase string, tokens repository.DeviceTokenRepository, logger zerolog.Logger) Deliverer {
	subject := "push"
	if channelBase != "" {
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".push"
	}

	return &natsDeliverer{
		conn:    conn,
		subject: subject,
		tokens:  tokens,
		logger:  logger.With().Str("component", "nats_deliverer").Logger(),
	}
}

func (d *natsDeliverer) Deliver(ctx context.Context, userID, title, body string) error {
	if d.conn == nil {
		return ErrDelivererUnavailable
	}

	payload := pushPayload{
		UserID:  userID,
		Title:   title,
		Body:    body,
		QueueAt: time.Now().UTC(),
	}

	if d.tokens != nil {
		registered, err := d.tokens.ListByUser(ctx, userID)
		if err != nil {
			d.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to resolve device tokens")
		} else {
			for _, token := range registered {
				payload.Tokens = append(payload.Tokens, token.Token)
			}
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return d.conn.Publish(d.subject, data)
}
