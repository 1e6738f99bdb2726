package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "MESSAGE_APPENDED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	TypeMessageAppended     = "MESSAGE_APPENDED"
	TypeConversationCreated = "CONVERSATION_CREATED"
	TypeConversationDeleted = "CONVERSATION_DELETED"
)

// NewMessageAppended is emitted after any message lands in a conversation so
// connected clients can re-render without polling.
func NewMessageAppended(sessionKey, conversationId, role, content string, sources []string) Event {
	return BaseEvent{
		Type: TypeMessageAppended,
		Data: map[string]interface{}{
			"session_key":     sessionKey,
			"conversation_id": conversationId,
			"role":            role,
			"content":         content,
			"sources":         sources,
		},
		OccurredAt: time.Now(),
	}
}

func NewConversationCreated(sessionKey, conversationId, title string) Event {
	return BaseEvent{
		Type: TypeConversationCreated,
		Data: map[string]interface{}{
			"session_key":     sessionKey,
			"conversation_id": conversationId,
			"title":           title,
		},
		OccurredAt: time.Now(),
	}
}

func NewConversationDeleted(sessionKey, conversationId string) Event {
	return BaseEvent{
		Type: TypeConversationDeleted,
		Data: map[string]interface{}{
			"session_key":     sessionKey,
			"conversation_id": conversationId,
		},
		OccurredAt: time.Now(),
	}
}
