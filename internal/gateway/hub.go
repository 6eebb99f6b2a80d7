package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Events on the wire.
const (
	EventChatMessage     = "chat_message"
	EventChannelArchived = "channel_archived"
)

// ErrChannelClosed is returned when sending into an archived or
// unknown channel.
var ErrChannelClosed = errors.New("channel is archived or does not exist")

// MessageHandler receives every inbound chat message (command routing,
// session dispatch). It must not block.
type MessageHandler func(msg models.ChatMessage)

// RedisPublisher publishes channel events for cross-instance broadcast.
type RedisPublisher interface {
	PublishChannelEvent(channelID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to a channel's events from other instances.
type RedisSubscriber interface {
	SubscribeChannel(channelID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

type channelState struct {
	meta    models.Channel
	clients map[string]*Client
}

// Hub maintains chat channels and their connected clients. Private
// intake channels are visible to their owner and admins only; the hub
// bridges broadcasts through Redis pub/sub for horizontal scaling.
type Hub struct {
	mu       sync.RWMutex
	channels map[uuid.UUID]*channelState
	byName   map[string]uuid.UUID
	subs     map[uuid.UUID]func() // cancel Redis subscription per channel

	logger    *zap.Logger
	redisPub  RedisPublisher
	redisSub  RedisSubscriber
	onMessage MessageHandler
}

// NewHub creates a chat hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		channels: make(map[uuid.UUID]*channelState),
		byName:   make(map[string]uuid.UUID),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redisPub: redisPub,
		redisSub: redisSub,
	}
}

// SetMessageHandler sets the inbound message callback.
func (h *Hub) SetMessageHandler(fn MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = fn
}

// EnsureChannel returns the ID of the named shared channel, creating it
// if needed. Used at startup for the lobby and announce channels.
func (h *Hub) EnsureChannel(name string, kind models.ChannelKind) uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.byName[name]; ok {
		return id
	}
	id := uuid.New()
	h.channels[id] = &channelState{
		meta: models.Channel{
			ID:        id,
			Name:      name,
			Kind:      kind,
			CreatedAt: time.Now(),
		},
		clients: make(map[string]*Client),
	}
	h.byName[name] = id
	return id
}

// CreatePrivateChannel creates a per-applicant intake channel. Only the
// owner and admins may connect to it.
func (h *Hub) CreatePrivateChannel(ctx context.Context, ownerID uuid.UUID, name string) (uuid.UUID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, taken := h.byName[name]; taken {
		name = fmt.Sprintf("%s-%s", name, uuid.New().String()[:8])
	}
	id := uuid.New()
	h.channels[id] = &channelState{
		meta: models.Channel{
			ID:        id,
			Name:      name,
			Kind:      models.ChannelIntake,
			OwnerID:   ownerID,
			CreatedAt: time.Now(),
		},
		clients: make(map[string]*Client),
	}
	h.byName[name] = id
	h.logger.Debug("private channel created",
		zap.String("channel_id", id.String()), zap.String("name", name))
	return id, nil
}

// Channel returns channel metadata.
func (h *Hub) Channel(id uuid.UUID) (models.Channel, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.channels[id]
	if !ok {
		return models.Channel{}, false
	}
	return ch.meta, true
}

// Archive marks a channel archived and disconnects its clients.
// Safe to call on already-archived or unknown channels.
func (h *Hub) Archive(ctx context.Context, channelID uuid.UUID) error {
	h.mu.Lock()
	ch, ok := h.channels[channelID]
	if !ok {
		h.mu.Unlock()
		return nil
	}
	ch.meta.Archived = true
	clients := make([]*Client, 0, len(ch.clients))
	for _, c := range ch.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.broadcast(channelID, EventChannelArchived, nil)
	for _, c := range clients {
		c.close()
	}
	h.logger.Debug("channel archived", zap.String("channel_id", channelID.String()))
	return nil
}

// Send posts a plain text service message into a channel. Implements
// the intake transport contract.
func (h *Hub) Send(ctx context.Context, channelID uuid.UUID, content string) error {
	msg := models.ChatMessage{
		ID:         uuid.New(),
		ChannelID:  channelID,
		AuthorName: "eventdesk",
		Content:    content,
		SentAt:     time.Now(),
	}
	return h.Publish(ctx, channelID, EventChatMessage, msg)
}

// Publish broadcasts a structured event to a channel's local clients
// and to other instances via Redis. Implements the notification
// publisher contract.
func (h *Hub) Publish(ctx context.Context, channelID uuid.UUID, event string, payload any) error {
	h.mu.RLock()
	ch, ok := h.channels[channelID]
	archived := ok && ch.meta.Archived
	h.mu.RUnlock()
	if !ok || archived {
		return ErrChannelClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	h.broadcast(channelID, event, data)
	if h.redisPub != nil {
		if err := h.redisPub.PublishChannelEvent(channelID, event, data); err != nil {
			h.logger.Warn("redis publish", zap.Error(err), zap.String("event", event))
		}
	}
	return nil
}

// broadcast delivers to local clients only.
func (h *Hub) broadcast(channelID uuid.UUID, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	ch := h.channels[channelID]
	if ch == nil {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(ch.clients))
	for _, c := range ch.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// register adds a connected client to its channel, enforcing intake
// channel visibility. Starts the Redis subscription on first client.
func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	ch, ok := h.channels[c.ChannelID]
	if !ok || ch.meta.Archived {
		h.mu.Unlock()
		return ErrChannelClosed
	}
	if ch.meta.Kind == models.ChannelIntake && ch.meta.OwnerID != c.UserID && c.Role != models.RoleAdmin {
		h.mu.Unlock()
		return fmt.Errorf("user %s may not join private channel %s", c.UserID, c.ChannelID)
	}
	if len(ch.clients) == 0 && h.redisSub != nil {
		if cancel, err := h.redisSub.SubscribeChannel(c.ChannelID, func(event string, payload []byte) {
			h.broadcast(c.ChannelID, event, payload)
		}); err == nil {
			h.subs[c.ChannelID] = cancel
		}
	}
	ch.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined channel",
		zap.String("client_id", c.ID), zap.String("channel_id", c.ChannelID.String()))
	return nil
}

// unregister removes a client; cancels the Redis subscription when the
// last client leaves.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if ch, ok := h.channels[c.ChannelID]; ok {
		delete(ch.clients, c.ID)
		if len(ch.clients) == 0 {
			if cancel, ok := h.subs[c.ChannelID]; ok {
				cancel()
				delete(h.subs, c.ChannelID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left channel",
		zap.String("client_id", c.ID), zap.String("channel_id", c.ChannelID.String()))
}

// inbound handles a chat message read from a client connection: hands
// it to the message handler (commands, intake sessions) which decides
// whether it is consumed or broadcast.
func (h *Hub) inbound(c *Client, content string, attachments []models.Attachment) {
	h.mu.RLock()
	handler := h.onMessage
	ch, ok := h.channels[c.ChannelID]
	archived := ok && ch.meta.Archived
	h.mu.RUnlock()
	if !ok || archived {
		return
	}

	msg := models.ChatMessage{
		ID:          uuid.New(),
		ChannelID:   c.ChannelID,
		AuthorID:    c.UserID,
		AuthorName:  c.Username,
		AuthorRole:  c.Role,
		Content:     content,
		Attachments: attachments,
		SentAt:      time.Now(),
	}
	if handler != nil {
		handler(msg)
	}
}
