package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/edumesh/campus-api/internal/dto"
	"github.com/edumesh/campus-api/internal/models"
	"github.com/edumesh/campus-api/internal/observability"
	"github.com/edumesh/campus-api/internal/realtime"
	"github.com/edumesh/campus-api/internal/repository"
)

const (
	chatRedisTTL       = 30 * time.Minute
	chatSendBufferSize = 32
)

// ErrChatNotAuthorised indicates the sender attempted to act on a room it is
// not a member of.
var ErrChatNotAuthorised = errors.New("sender not authorised for room")

// ChatConnectionOptions wraps metadata extracted during the HTTP upgrade.
type ChatConnectionOptions struct {
	Identity      realtime.Identity
	CorrelationID string
	Context       context.Context
}

// ChatService manages websocket chat connections, presence and live delivery.
type ChatService interface {
	ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions)
	History(ctx context.Context, query dto.ChatHistoryQuery) ([]dto.ChatMessageResponse, error)
	PresenceOf(userID string) dto.PresenceResponse
	Start(ctx context.Context)
}

type chatService struct {
	repo        repository.ChatRepository
	roomRepo    repository.RoomRepository
	registry    *realtime.Registry
	rooms       *realtime.Rooms
	presence    *realtime.Presence
	engine      *realtime.Engine
	redis       *redis.Client
	redisStream string
	redisCache  string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	nodeID      string
}

// chatClient is one live websocket session. It implements realtime.Sink so
// the fan-out engine can hand events off without touching the transport.
type chatClient struct {
	id      string
	conn    *websocket.Conn
	send    chan realtime.Event
	options ChatConnectionOptions
	service *chatService
	closed  chan struct{}
	once    sync.Once
	baseCtx context.Context
}

// chatEvent is the cross-node envelope carried over redis pub/sub and NATS.
// RoomID is empty for globally broadcast events such as presence changes.
type chatEvent struct {
	Source string         `json:"source"`
	RoomID string         `json:"room_id,omitempty"`
	Event  realtime.Event `json:"event"`
	SentAt time.Time      `json:"sent_at"`
}

// NewChatService creates a websocket chat service over the realtime core.
func NewChatService(repo repository.ChatRepository, roomRepo repository.RoomRepository, registry *realtime.Registry, rooms *realtime.Rooms, presence *realtime.Presence, engine *realtime.Engine, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) ChatService {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("br")

	streamChannel := ""
	cachePrefix := ""
	natsSubject := ""
	if channelBase != "" {
		streamChannel = channelBase + ":chat"
		cachePrefix = channelBase + ":chat:last"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".chat"
	}

	return &chatService{
		repo:        repo,
		roomRepo:    roomRepo,
		registry:    registry,
		rooms:       rooms,
		presence:    presence,
		engine:      engine,
		redis:       redisClient,
		redisStream: streamChannel,
		redisCache:  cachePrefix,
		nats:        natsConn,
		natsSubject: natsSubject,
		validator:   validate,
		logger:      logger.With().Str("component", "chat_service").Logger(),
		tracer:      otel.Tracer("github.com/edumesh/campus-api/internal/service/chat"),
		sanitizer:   sanitizer,
		nodeID:      uuid.NewString(),
	}
}

func (s *chatService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *chatService) ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	client := &chatClient{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan realtime.Event, chatSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
		baseCtx: baseCtx,
	}

	change, err := s.registry.Register(client.id, opts.Identity, client)
	if err != nil {
		s.logger.Error().Err(err).Str("conn_id", client.id).Msg("failed to register chat connection")
		_ = conn.Close()
		return
	}
	observability.ChatConnectionsActive().Inc()
	s.announcePresence(baseCtx, client.id, change)

	go client.writer()
	client.reader()
}

func (s *chatService) History(ctx context.Context, query dto.ChatHistoryQuery) ([]dto.ChatMessageResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	before := time.Time{}
	if query.Before != nil {
		before = *query.Before
	}

	messages, err := s.repo.ListByRoom(ctx, query.RoomID, before, query.Limit)
	if err != nil {
		return nil, err
	}

	return dto.NewChatMessageResponseSlice(messages), nil
}

func (s *chatService) PresenceOf(userID string) dto.PresenceResponse {
	return dto.PresenceResponse{
		UserID:        userID,
		Status:        string(s.presence.StatusOf(userID)),
		LastChangedAt: s.presence.LastChangedAt(userID),
	}
}

func (s *chatService) handleFrame(ctx context.Context, client *chatClient, frame dto.ChatFrame) error {
	if err := s.validator.Struct(frame); err != nil {
		return err
	}

	switch frame.Action {
	case dto.ChatActionJoin:
		return s.handleJoin(ctx, client, frame.RoomIDs)
	case dto.ChatActionLeave:
		s.rooms.Leave(client.id, strings.TrimSpace(frame.RoomID))
		return nil
	case dto.ChatActionMessage:
		return s.handleMessage(ctx, client, frame)
	case dto.ChatActionTyping:
		return s.handleTyping(ctx, client, frame)
	case dto.ChatActionSeen:
		return s.handleSeen(ctx, client, frame)
	case dto.ChatActionStatus:
		s.handleStatus(ctx, client, realtime.Status(frame.Status))
		return nil
	default:
		return fmt.Errorf("unknown chat action %q", frame.Action)
	}
}

func (s *chatService) handleJoin(ctx context.Context, client *chatClient, roomIDs []string) error {
	for _, roomID := range roomIDs {
		roomID = strings.TrimSpace(roomID)
		if roomID == "" {
			continue
		}

		member, err := s.roomRepo.IsMember(ctx, roomID, client.options.Identity.UserID)
		if err != nil {
			return err
		}
		if !member {
			return ErrChatNotAuthorised
		}

		s.rooms.Join(client.id, roomID)

		if last := s.fetchLastMessage(ctx, roomID); last != nil {
			if !client.TrySend(*last) {
				s.logger.Debug().Str("room_id", roomID).Msg("dropping cached chat message due to slow consumer")
			}
		}
	}
	return nil
}

func (s *chatService) handleMessage(ctx context.Context, client *chatClient, frame dto.ChatFrame) error {
	roomID := strings.TrimSpace(frame.RoomID)
	if roomID == "" {
		return fmt.Errorf("room_id required for message")
	}
	if err := s.authorise(ctx, client, roomID); err != nil {
		return err
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(frame.Content))
	if clean == "" {
		return fmt.Errorf("message content empty after sanitization")
	}

	messageType := frame.Type
	if messageType == "" {
		messageType = "text"
	}

	attrs := []attribute.KeyValue{
		attribute.String("chat.room_id", roomID),
		attribute.String("chat.sender_id", client.options.Identity.UserID),
		attribute.String("chat.type", messageType),
	}
	if client.options.CorrelationID != "" {
		attrs = append(attrs, attribute.String("correlation_id", client.options.CorrelationID))
	}

	spanCtx, span := s.tracer.Start(ctx, "chat.broadcast", trace.WithAttributes(attrs...))
	defer span.End()

	model := models.ChatMessage{
		RoomID:   roomID,
		CampusID: client.options.Identity.CampusID,
		SenderID: client.options.Identity.UserID,
		Content:  clean,
		Type:     messageType,
	}
	if frame.ReplyToID != 0 {
		replyTo := frame.ReplyToID
		model.ReplyToID = &replyTo
	}

	if err := s.repo.Save(spanCtx, &model); err != nil {
		span.RecordError(err)
		return err
	}

	event := realtime.Event{
		Kind:      realtime.EventMessage,
		RoomID:    roomID,
		SenderID:  client.options.Identity.UserID,
		MessageID: model.ID,
		Content:   clean,
		Type:      messageType,
		ReplyToID: frame.ReplyToID,
		At:        model.CreatedAt.UTC(),
	}

	s.cacheLastMessage(spanCtx, event)
	report := s.engine.Publish(roomID, client.id, event)
	if len(report.Failed) > 0 {
		observability.ChatDeliveryFailures().Add(float64(len(report.Failed)))
	}
	if err := s.publish(spanCtx, roomID, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish chat event")
	}

	observability.ChatMessagesSent().WithLabelValues(messageType).Inc()

	// Ack back to the sender with the persisted message id.
	if !client.TrySend(event) {
		s.logger.Warn().Msg("sender queue full, dropping ack message")
	}
	return nil
}

func (s *chatService) handleTyping(ctx context.Context, client *chatClient, frame dto.ChatFrame) error {
	roomID := strings.TrimSpace(frame.RoomID)
	if roomID == "" {
		return fmt.Errorf("room_id required for typing")
	}

	event := realtime.Event{
		Kind:     realtime.EventTyping,
		RoomID:   roomID,
		SenderID: client.options.Identity.UserID,
		IsTyping: frame.IsTyping,
		At:       time.Now().UTC(),
	}
	s.engine.Publish(roomID, client.id, event)
	return s.publish(ctx, roomID, event)
}

func (s *chatService) handleSeen(ctx context.Context, client *chatClient, frame dto.ChatFrame) error {
	roomID := strings.TrimSpace(frame.RoomID)
	if roomID == "" || len(frame.SeenIDs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if _, err := s.repo.MarkSeen(ctx, roomID, frame.SeenIDs, now); err != nil {
		return err
	}

	event := realtime.Event{
		Kind:     realtime.EventSeen,
		RoomID:   roomID,
		SenderID: client.options.Identity.UserID,
		SeenIDs:  frame.SeenIDs,
		At:       now,
	}
	s.engine.Publish(roomID, client.id, event)
	return s.publish(ctx, roomID, event)
}

func (s *chatService) handleStatus(ctx context.Context, client *chatClient, status realtime.Status) {
	change := s.presence.SetStatus(client.options.Identity.UserID, status)
	s.announcePresence(ctx, client.id, change)
}

// announcePresence broadcasts an actual presence transition to every live
// connection and propagates it across nodes. Nil changes are no-ops.
func (s *chatService) announcePresence(ctx context.Context, senderConnID string, change *realtime.PresenceChange) {
	if change == nil {
		return
	}

	observability.PresenceTransitions().WithLabelValues(string(change.Status)).Inc()

	event := realtime.Event{
		Kind:     realtime.EventStatusChange,
		SenderID: change.UserID,
		Status:   change.Status,
		At:       change.At,
	}
	s.engine.Broadcast(senderConnID, event)
	if err := s.publish(ctx, "", event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish presence event")
	}
}

func (s *chatService) authorise(ctx context.Context, client *chatClient, roomID string) error {
	member, err := s.roomRepo.IsMember(ctx, roomID, client.options.Identity.UserID)
	if err != nil {
		return err
	}
	if !member {
		return ErrChatNotAuthorised
	}
	return nil
}

func (s *chatService) cacheLastMessage(ctx context.Context, event realtime.Event) {
	if s.redis == nil || s.redisCache == "" {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal chat message for cache")
		return
	}

	key := fmt.Sprintf("%s:%s", s.redisCache, event.RoomID)
	if err := s.redis.Set(ctx, key, payload, chatRedisTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache chat message")
	}
}

func (s *chatService) fetchLastMessage(ctx context.Context, roomID string) *realtime.Event {
	if s.redis == nil || s.redisCache == "" {
		return nil
	}

	key := fmt.Sprintf("%s:%s", s.redisCache, roomID)
	result, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var event realtime.Event
	if err := json.Unmarshal([]byte(result), &event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached chat message")
		return nil
	}

	return &event
}

func (s *chatService) publish(ctx context.Context, roomID string, event realtime.Event) error {
	envelope := chatEvent{
		Source: s.nodeID,
		RoomID: roomID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *chatService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("chat redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *chatService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "campus-chat", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats chat subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain chat nats subscription")
		}
	}()
}

// handleEvent replays an event originating on another node into the local
// fan-out scope. Events this node produced are skipped.
func (s *chatService) handleEvent(data []byte) {
	var envelope chatEvent
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid chat event")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	if envelope.RoomID != "" {
		s.engine.Publish(envelope.RoomID, "", envelope.Event)
	} else {
		s.engine.Broadcast("", envelope.Event)
	}

	if envelope.Event.Kind == realtime.EventMessage {
		messageType := envelope.Event.Type
		if messageType == "" {
			messageType = "text"
		}
		observability.ChatMessagesSent().WithLabelValues(messageType).Inc()
	}
}

// TrySend implements realtime.Sink with a non-blocking channel handoff.
func (c *chatClient) TrySend(event realtime.Event) bool {
	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *chatClient) reader() {
	defer c.close()

	connCtx := c.baseCtx
	if connCtx == nil {
		connCtx = context.Background()
	}

	for {
		var frame dto.ChatFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			c.service.logger.Debug().Err(err).Msg("chat read loop ended")
			return
		}

		if err := c.service.handleFrame(connCtx, c, frame); err != nil {
			c.service.logger.Warn().Err(err).Str("action", frame.Action).Msg("failed to process chat frame")
			continue
		}
	}
}

func (c *chatClient) writer() {
	defer c.close()

	for {
		select {
		case event := <-c.send:
			if err := c.conn.WriteJSON(event); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

// close tears the connection down as one logical unit: unregister, purge
// every joined room, and announce offline when this was the identity's last
// connection. Late fan-out attempts after this simply fail the handoff.
func (c *chatClient) close() {
	c.once.Do(func() {
		close(c.closed)

		_, change, err := c.service.registry.Unregister(c.id)
		if err == nil {
			observability.ChatConnectionsActive().Dec()
		}
		c.service.rooms.Purge(c.id)
		c.service.announcePresence(c.baseCtx, c.id, change)
		_ = c.conn.Close()
	})
}
