package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot-be/internal/constant"
	"medibot-be/internal/dto"
	"medibot-be/internal/repository/memory"
	"medibot-be/pkg/rag"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakePipeline struct {
	result *rag.AnswerResult
	err    error
	calls  int
}

func (f *fakePipeline) Answer(ctx context.Context, question string) (*rag.AnswerResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestService(p Answerer) IChatService {
	return NewChatService(memory.NewSessionRepository(), p, nil, nil, nopLogger{})
}

func TestSendChatSuccess(t *testing.T) {
	pipeline := &fakePipeline{result: &rag.AnswerResult{
		Text: "Flu symptoms include fever, chills and fatigue.",
		Evidence: []rag.Evidence{
			{Text: "Influenza passage", Rank: 1},
			{Text: "Treatment passage", Rank: 2},
		},
	}}
	svc := newTestService(pipeline)
	ctx := context.Background()

	res, err := svc.SendChat(ctx, "sess", &dto.SendChatRequest{Content: "What are the symptoms of flu?"})
	require.NoError(t, err)

	assert.Equal(t, constant.ChatMessageRoleUser, res.Sent.Role)
	assert.Equal(t, "What are the symptoms of flu?", res.Sent.Content)
	assert.Equal(t, constant.ChatMessageRoleAssistant, res.Reply.Role)
	assert.Equal(t, "Flu symptoms include fever, chills and fatigue.", res.Reply.Content)
	assert.Equal(t, []string{"Influenza passage", "Treatment passage"}, res.Reply.Sources)

	// Title comes from the first user message (29 chars, kept whole).
	assert.Equal(t, "What are the symptoms of flu?", res.ConversationTitle)

	history, err := svc.GetHistory(ctx, "sess", res.ConversationId)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSendChatContainsPipelineFailure(t *testing.T) {
	for _, stageErr := range []error{
		&rag.EmbeddingError{Err: errors.New("down")},
		&rag.RetrievalError{Err: errors.New("down")},
		&rag.CompletionError{Err: errors.New("down")},
	} {
		pipeline := &fakePipeline{err: stageErr}
		svc := newTestService(pipeline)
		ctx := context.Background()

		res, err := svc.SendChat(ctx, "sess", &dto.SendChatRequest{Content: "question"})
		require.NoError(t, err, "pipeline failures must not escape the service")

		assert.Equal(t, constant.ChatMessageRoleAssistant, res.Reply.Role)
		assert.Equal(t, constant.PipelineErrorMessage, res.Reply.Content)
		assert.Empty(t, res.Reply.Sources)

		// Exactly one assistant message follows the user message.
		history, err := svc.GetHistory(ctx, "sess", res.ConversationId)
		require.NoError(t, err)
		assert.Len(t, history, 2)

		// The session stays usable.
		pipeline.err = nil
		pipeline.result = &rag.AnswerResult{Text: "recovered"}
		res2, err := svc.SendChat(ctx, "sess", &dto.SendChatRequest{Content: "retry"})
		require.NoError(t, err)
		assert.Equal(t, "recovered", res2.Reply.Content)
	}
}

func TestSendChatUnknownConversation(t *testing.T) {
	svc := newTestService(&fakePipeline{result: &rag.AnswerResult{Text: "ok"}})

	_, err := svc.SendChat(context.Background(), "sess", &dto.SendChatRequest{
		ConversationId: "chat_42",
		Content:        "hello",
	})
	assert.Error(t, err)
}

func TestSendChatImplicitConversation(t *testing.T) {
	svc := newTestService(&fakePipeline{result: &rag.AnswerResult{Text: "ok"}})
	ctx := context.Background()

	res, err := svc.SendChat(ctx, "sess", &dto.SendChatRequest{Content: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ConversationId)

	list := svc.GetConversations(ctx, "sess")
	require.Len(t, list, 1)
	assert.True(t, list[0].Active)
}

func TestDeleteOnlyConversationThenChat(t *testing.T) {
	svc := newTestService(&fakePipeline{result: &rag.AnswerResult{Text: "ok"}})
	ctx := context.Background()

	created := svc.CreateConversation(ctx, "sess")
	require.NoError(t, svc.DeleteConversation(ctx, "sess", created.Id))

	stats := svc.Stats(ctx, "sess")
	assert.Equal(t, 0, stats.Messages, "a fresh conversation replaces the deleted one")
	assert.NotEqual(t, created.Id, stats.ConversationId)
}

func TestSessionsAreIsolated(t *testing.T) {
	svc := newTestService(&fakePipeline{result: &rag.AnswerResult{Text: "ok"}})
	ctx := context.Background()

	_, err := svc.SendChat(ctx, "alice", &dto.SendChatRequest{Content: "alice question"})
	require.NoError(t, err)

	assert.Len(t, svc.GetConversations(ctx, "alice"), 1)
	assert.Empty(t, svc.GetConversations(ctx, "bob"))
}

func TestStatsCountsQuestions(t *testing.T) {
	svc := newTestService(&fakePipeline{result: &rag.AnswerResult{Text: "ok"}})
	ctx := context.Background()

	_, err := svc.SendChat(ctx, "sess", &dto.SendChatRequest{Content: "q1"})
	require.NoError(t, err)
	_, err = svc.SendChat(ctx, "sess", &dto.SendChatRequest{Content: "q2"})
	require.NoError(t, err)

	stats := svc.Stats(ctx, "sess")
	assert.Equal(t, 4, stats.Messages)
	assert.Equal(t, 2, stats.Questions)
}

func TestClearAllDropsStore(t *testing.T) {
	svc := newTestService(&fakePipeline{result: &rag.AnswerResult{Text: "ok"}})
	ctx := context.Background()

	first := svc.CreateConversation(ctx, "sess")
	svc.CreateConversation(ctx, "sess")
	svc.ClearAll(ctx, "sess")

	assert.Empty(t, svc.GetConversations(ctx, "sess"))

	// The whole store is gone, so numbering restarts.
	fresh := svc.CreateConversation(ctx, "sess")
	assert.Equal(t, first.Id, fresh.Id)
}

func TestGetConversationsDoesNotAllocateStores(t *testing.T) {
	svc := newTestService(&fakePipeline{result: &rag.AnswerResult{Text: "ok"}})
	ctx := context.Background()

	assert.Empty(t, svc.GetConversations(ctx, "ghost"))

	// Listing left no trace: the session's first conversation is still the
	// first one ever numbered.
	created := svc.CreateConversation(ctx, "ghost")
	assert.Equal(t, "chat_0", created.Id)

	list := svc.GetConversations(ctx, "ghost")
	require.Len(t, list, 1)
	assert.True(t, list[0].Active)
}

func TestSampleQuestions(t *testing.T) {
	svc := newTestService(&fakePipeline{})
	samples := svc.SampleQuestions()
	require.Len(t, samples.Questions, 3)
	for _, q := range samples.Questions {
		assert.False(t, strings.TrimSpace(q) == "")
	}
}
