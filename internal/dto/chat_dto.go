package dto

import (
	"time"
)

type CreateConversationResponse struct {
	Id    string `json:"id"`
	Title string `json:"title"`
}

type ConversationSummaryResponse struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
	Messages  int       `json:"messages"`
}

type MessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChatRequest struct {
	// ConversationId is optional; when empty the active conversation is used
	// (and created if none exists).
	ConversationId string `json:"conversation_id,omitempty"`
	Content        string `json:"content" validate:"required"`
}

type SendChatResponse struct {
	ConversationId    string           `json:"conversation_id"`
	ConversationTitle string           `json:"title"`
	Sent              *MessageResponse `json:"sent"`
	Reply             *MessageResponse `json:"reply"`
}

type StatsResponse struct {
	ConversationId string `json:"conversation_id"`
	Messages       int    `json:"messages"`
	Questions      int    `json:"questions"`
}

type SampleQuestionsResponse struct {
	Questions []string `json:"questions"`
}
