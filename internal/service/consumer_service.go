package service

import (
	"context"
	"encoding/json"
	"log"

	"medibot-be/internal/websocket"
	"medibot-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService bridges the watermill bus to the websocket hub: every
// message-appended event becomes a push to that session's connections.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	hub       *websocket.Hub
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	hub *websocket.Hub,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		hub:       hub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	defer msg.Ack()

	var envelope struct {
		Type    string                 `json:"type"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		log.Printf("Consumer: failed to decode event: %v", err)
		return
	}

	if envelope.Type != events.TypeMessageAppended {
		return
	}

	sessionKey, _ := envelope.Payload["session_key"].(string)
	if sessionKey == "" {
		return
	}

	push := websocket.ChatPush{
		Type:           "chat_message",
		ConversationId: stringField(envelope.Payload, "conversation_id"),
		Role:           stringField(envelope.Payload, "role"),
		Content:        stringField(envelope.Payload, "content"),
	}
	if raw, ok := envelope.Payload["sources"].([]interface{}); ok {
		for _, s := range raw {
			if str, ok := s.(string); ok {
				push.Sources = append(push.Sources, str)
			}
		}
	}

	cs.hub.Send(sessionKey, push)
}

func stringField(payload map[string]interface{}, key string) string {
	s, _ := payload[key].(string)
	return s
}
