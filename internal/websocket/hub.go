package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"medibot-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// ChatPush is what connected clients receive when a message lands in one of
// their conversations.
type ChatPush struct {
	Type           string   `json:"type"`
	ConversationId string   `json:"conversation_id"`
	Role           string   `json:"role"`
	Content        string   `json:"content"`
	Sources        []string `json:"sources,omitempty"`
}

// Hub fans chat events out to websocket clients. Clients are keyed by the
// opaque session key, multi-tab: one session can hold several connections.
// With Redis configured, events are mirrored across instances.
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance delivery, may be nil
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionKey] = append(h.clients[client.SessionKey], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_key": client.SessionKey})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionKey]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionKey] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionKey]) == 0 {
					delete(h.clients, client.SessionKey)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers a push to every connection of one session.
func (h *Hub) Send(sessionKey string, push ChatPush) {
	data, _ := json.Marshal(push)

	h.mu.RLock()
	clients, localFound := h.clients[sessionKey]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				// Drop and evict; Run's unregister case owns the close.
				h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"session_key": sessionKey})
				h.unregister <- client
			}
		}
	}

	// Another instance may hold this session's connection. Only relay when
	// the session is not local, so this instance's own subscription does not
	// deliver the push twice.
	if !localFound && h.rdb != nil {
		payload := map[string]interface{}{
			"target_session": sessionKey,
			"message":        json.RawMessage(data),
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "chat_events", jsonPayload)
	}
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to the shared channel and delivers to the
	// sessions it holds locally; others ignore the message.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "chat_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			TargetSession string          `json:"target_session"`
			Message       json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		h.mu.RLock()
		clients, found := h.clients[payload.TargetSession]
		h.mu.RUnlock()
		if !found {
			continue
		}
		for _, client := range clients {
			select {
			case client.Send <- payload.Message:
			default:
				h.unregister <- client
			}
		}
	}
}
