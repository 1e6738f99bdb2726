package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot-be/pkg/llm"
	"medibot-be/pkg/vectorindex"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

type fakeIndex struct {
	hits        []vectorindex.SearchHit
	searchErr   error
	ensureErr   error
	ensureCalls int
}

func (f *fakeIndex) EnsureExists(ctx context.Context) error {
	f.ensureCalls++
	return f.ensureErr
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, k int) ([]vectorindex.SearchHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k < len(f.hits) {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func (f *fakeIndex) Upsert(ctx context.Context, docs []vectorindex.Document) error {
	return nil
}

type fakeLLM struct {
	reply      string
	err        error
	lastPrompt []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.lastPrompt = history
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func newTestPipeline(e *fakeEmbedder, i *fakeIndex, l *fakeLLM) *Pipeline {
	return NewPipeline(e, i, l, PipelineConfig{TopK: 3, Temperature: 0.7, MaxTokens: 512}, nopLogger{})
}

func TestAnswer(t *testing.T) {
	idx := &fakeIndex{hits: []vectorindex.SearchHit{
		{Text: "Influenza causes fever and chills.", Score: 0.92},
		{Text: "Rest and fluids help recovery.", Score: 0.87},
	}}
	llmStub := &fakeLLM{reply: "Flu typically causes fever, chills and fatigue."}
	p := newTestPipeline(&fakeEmbedder{vec: []float32{0.1, 0.2}}, idx, llmStub)

	result, err := p.Answer(context.Background(), "What are flu symptoms?")
	require.NoError(t, err)

	assert.Equal(t, "Flu typically causes fever, chills and fatigue.", result.Text)
	require.Len(t, result.Evidence, 2)
	assert.Equal(t, 1, result.Evidence[0].Rank)
	assert.Equal(t, 2, result.Evidence[1].Rank)
	assert.Equal(t, "Influenza causes fever and chills.", result.Evidence[0].Text)

	// System instruction and retrieved passages reach the model.
	require.Len(t, llmStub.lastPrompt, 2)
	assert.Equal(t, "system", llmStub.lastPrompt[0].Role)
	assert.Contains(t, llmStub.lastPrompt[1].Content, "Influenza causes fever and chills.")
	assert.Contains(t, llmStub.lastPrompt[1].Content, "What are flu symptoms?")
}

func TestAnswerStageErrors(t *testing.T) {
	t.Run("embedding failure", func(t *testing.T) {
		p := newTestPipeline(
			&fakeEmbedder{err: errors.New("connection refused")},
			&fakeIndex{},
			&fakeLLM{},
		)

		_, err := p.Answer(context.Background(), "q")
		var embErr *EmbeddingError
		require.ErrorAs(t, err, &embErr)
	})

	t.Run("ensure failure", func(t *testing.T) {
		p := newTestPipeline(
			&fakeEmbedder{vec: []float32{1}},
			&fakeIndex{ensureErr: errors.New("index creation timed out")},
			&fakeLLM{},
		)

		_, err := p.Answer(context.Background(), "q")
		var retErr *RetrievalError
		require.ErrorAs(t, err, &retErr)
	})

	t.Run("search failure", func(t *testing.T) {
		p := newTestPipeline(
			&fakeEmbedder{vec: []float32{1}},
			&fakeIndex{searchErr: errors.New("service unavailable")},
			&fakeLLM{},
		)

		_, err := p.Answer(context.Background(), "q")
		var retErr *RetrievalError
		require.ErrorAs(t, err, &retErr)
	})

	t.Run("completion failure", func(t *testing.T) {
		p := newTestPipeline(
			&fakeEmbedder{vec: []float32{1}},
			&fakeIndex{hits: []vectorindex.SearchHit{{Text: "passage"}}},
			&fakeLLM{err: errors.New("quota exceeded")},
		)

		_, err := p.Answer(context.Background(), "q")
		var compErr *CompletionError
		require.ErrorAs(t, err, &compErr)
	})
}

func TestEnsureIndexRunsOnce(t *testing.T) {
	idx := &fakeIndex{hits: []vectorindex.SearchHit{{Text: "passage"}}}
	p := newTestPipeline(&fakeEmbedder{vec: []float32{1}}, idx, &fakeLLM{reply: "ok"})

	for n := 0; n < 3; n++ {
		_, err := p.Answer(context.Background(), "q")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, idx.ensureCalls, "index creation is a one-time side effect")
}

func TestTruncatePassage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "short passage unchanged",
			in:   "short passage",
			want: "short passage",
		},
		{
			name: "exactly 300 runes unchanged",
			in:   strings.Repeat("x", 300),
			want: strings.Repeat("x", 300),
		},
		{
			name: "long passage cut at 300 with marker",
			in:   strings.Repeat("x", 301),
			want: strings.Repeat("x", 300) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncatePassage(tt.in))
		})
	}
}
