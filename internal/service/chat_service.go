package service

import (
	"context"
	"log"

	"medibot-be/internal/constant"
	"medibot-be/internal/dto"
	"medibot-be/internal/pkg/logger"
	"medibot-be/internal/pkg/serverutils"
	"medibot-be/internal/repository/memory"
	"medibot-be/pkg/events"
	pktNats "medibot-be/pkg/nats"
	"medibot-be/pkg/rag"
)

// Answerer is the pipeline surface the chat service needs. Under the lazy
// init strategy the implementation builds its clients on first call.
type Answerer interface {
	Answer(ctx context.Context, question string) (*rag.AnswerResult, error)
}

type IChatService interface {
	CreateConversation(ctx context.Context, sessionKey string) *dto.CreateConversationResponse
	GetConversations(ctx context.Context, sessionKey string) []*dto.ConversationSummaryResponse
	GetHistory(ctx context.Context, sessionKey, conversationId string) ([]*dto.MessageResponse, error)
	SelectConversation(ctx context.Context, sessionKey, conversationId string) error
	DeleteConversation(ctx context.Context, sessionKey, conversationId string) error
	ClearAll(ctx context.Context, sessionKey string)
	SendChat(ctx context.Context, sessionKey string, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	Stats(ctx context.Context, sessionKey string) *dto.StatsResponse
	SampleQuestions() *dto.SampleQuestionsResponse
}

type chatService struct {
	sessionRepo    *memory.SessionRepository
	pipeline       Answerer
	publisher      IPublisherService
	eventPublisher *pktNats.Publisher // may be nil when NATS is not configured
	logger         logger.ILogger
}

func NewChatService(
	sessionRepo *memory.SessionRepository,
	pipeline Answerer,
	publisher IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		sessionRepo:    sessionRepo,
		pipeline:       pipeline,
		publisher:      publisher,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (cs *chatService) CreateConversation(ctx context.Context, sessionKey string) *dto.CreateConversationResponse {
	store := cs.sessionRepo.GetOrCreate(sessionKey)
	id := store.CreateConversation()
	conv, _ := store.Conversation(id)

	cs.emit(ctx, events.NewConversationCreated(sessionKey, id, conv.Title))

	return &dto.CreateConversationResponse{Id: id, Title: conv.Title}
}

func (cs *chatService) GetConversations(ctx context.Context, sessionKey string) []*dto.ConversationSummaryResponse {
	// Read-only: listing for a session that never chatted should not
	// allocate a store for it.
	store, ok := cs.sessionRepo.Get(sessionKey)
	if !ok {
		return []*dto.ConversationSummaryResponse{}
	}
	activeId := store.ActiveId()

	conversations := store.Conversations()
	out := make([]*dto.ConversationSummaryResponse, len(conversations))
	for i, conv := range conversations {
		out[i] = &dto.ConversationSummaryResponse{
			Id:        conv.Id,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			Active:    conv.Id == activeId,
			Messages:  len(conv.Messages),
		}
	}
	return out
}

func (cs *chatService) GetHistory(ctx context.Context, sessionKey, conversationId string) ([]*dto.MessageResponse, error) {
	store := cs.sessionRepo.GetOrCreate(sessionKey)

	conv, err := store.Conversation(conversationId)
	if err != nil {
		return nil, serverutils.NewNotFoundError("conversation not found")
	}

	out := make([]*dto.MessageResponse, len(conv.Messages))
	for i, msg := range conv.Messages {
		out[i] = &dto.MessageResponse{
			Role:      msg.Role,
			Content:   msg.Content,
			Sources:   msg.Sources,
			CreatedAt: msg.CreatedAt,
		}
	}
	return out, nil
}

func (cs *chatService) SelectConversation(ctx context.Context, sessionKey, conversationId string) error {
	store := cs.sessionRepo.GetOrCreate(sessionKey)
	if err := store.SelectConversation(conversationId); err != nil {
		return serverutils.NewNotFoundError("conversation not found")
	}
	return nil
}

func (cs *chatService) DeleteConversation(ctx context.Context, sessionKey, conversationId string) error {
	store := cs.sessionRepo.GetOrCreate(sessionKey)
	if err := store.DeleteConversation(conversationId); err != nil {
		return serverutils.NewNotFoundError("conversation not found")
	}

	cs.emit(ctx, events.NewConversationDeleted(sessionKey, conversationId))
	return nil
}

// ClearAll drops the session's whole store. The next request starts from a
// fresh store, numbering conversations from the beginning again.
func (cs *chatService) ClearAll(ctx context.Context, sessionKey string) {
	cs.sessionRepo.Delete(sessionKey)
}

// SendChat appends the user message, runs the pipeline, and appends exactly
// one assistant message. A pipeline failure becomes an apologetic assistant
// reply instead of an error; the session stays usable.
func (cs *chatService) SendChat(ctx context.Context, sessionKey string, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	store := cs.sessionRepo.GetOrCreate(sessionKey)

	if request.ConversationId != "" {
		if err := store.SelectConversation(request.ConversationId); err != nil {
			return nil, serverutils.NewNotFoundError("conversation not found")
		}
	}

	store.AppendMessage(constant.ChatMessageRoleUser, request.Content)
	activeId := store.ActiveId()
	cs.emit(ctx, events.NewMessageAppended(sessionKey, activeId, constant.ChatMessageRoleUser, request.Content, nil))

	replyText, sources := cs.answer(ctx, request.Content)

	store.AppendMessage(constant.ChatMessageRoleAssistant, replyText, sources...)
	cs.emit(ctx, events.NewMessageAppended(sessionKey, activeId, constant.ChatMessageRoleAssistant, replyText, sources))

	conv, err := store.Conversation(activeId)
	if err != nil {
		return nil, err
	}

	messages := conv.Messages
	sent := messages[len(messages)-2]
	reply := messages[len(messages)-1]

	return &dto.SendChatResponse{
		ConversationId:    conv.Id,
		ConversationTitle: conv.Title,
		Sent: &dto.MessageResponse{
			Role:      sent.Role,
			Content:   sent.Content,
			CreatedAt: sent.CreatedAt,
		},
		Reply: &dto.MessageResponse{
			Role:      reply.Role,
			Content:   reply.Content,
			Sources:   reply.Sources,
			CreatedAt: reply.CreatedAt,
		},
	}, nil
}

// answer runs the pipeline and flattens any stage failure into the contained
// error reply.
func (cs *chatService) answer(ctx context.Context, question string) (string, []string) {
	result, err := cs.pipeline.Answer(ctx, question)
	if err != nil {
		cs.logger.Error("chat", "pipeline failed, replying with contained error", map[string]interface{}{
			"error": err.Error(),
		})
		return constant.PipelineErrorMessage, nil
	}

	sources := make([]string, len(result.Evidence))
	for i, ev := range result.Evidence {
		sources[i] = ev.Text
	}
	return result.Text, sources
}

func (cs *chatService) Stats(ctx context.Context, sessionKey string) *dto.StatsResponse {
	store := cs.sessionRepo.GetOrCreate(sessionKey)
	messages := store.ActiveMessages()

	questions := 0
	for _, msg := range messages {
		if msg.Role == constant.ChatMessageRoleUser {
			questions++
		}
	}

	return &dto.StatsResponse{
		ConversationId: store.ActiveId(),
		Messages:       len(messages),
		Questions:      questions,
	}
}

func (cs *chatService) SampleQuestions() *dto.SampleQuestionsResponse {
	return &dto.SampleQuestionsResponse{
		Questions: []string{
			"What are the common symptoms of influenza?",
			"How can I manage type 2 diabetes?",
			"What are the health benefits of regular exercise?",
		},
	}
}

// emit publishes to the in-process bus and mirrors to NATS when connected.
// Event delivery never blocks or fails the chat flow.
func (cs *chatService) emit(ctx context.Context, event events.Event) {
	if cs.publisher != nil {
		if err := cs.publisher.Publish(ctx, event); err != nil {
			log.Printf("failed to publish %s: %v", event.EventType(), err)
		}
	}
	if cs.eventPublisher != nil {
		if err := cs.eventPublisher.Publish(ctx, event); err != nil {
			log.Printf("failed to mirror %s to NATS: %v", event.EventType(), err)
		}
	}
}
