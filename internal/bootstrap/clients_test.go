package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibot-be/internal/config"
	"medibot-be/pkg/rag"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Ai.EmbeddingProvider = "huggingface"
	cfg.Ai.EmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"
	cfg.Ai.LLMProvider = "groq"
	cfg.Keys.HuggingFace = "hf-test"
	cfg.Keys.Groq = "groq-test"
	return cfg
}

func TestEmbedderIsMemoized(t *testing.T) {
	clients := NewClients(testConfig(), nopLogger{})

	first, err := clients.Embedder()
	require.NoError(t, err)
	second, err := clients.Embedder()
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestLLMIsMemoized(t *testing.T) {
	clients := NewClients(testConfig(), nopLogger{})

	first, err := clients.LLM()
	require.NoError(t, err)
	second, err := clients.LLM()
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestUnknownProviderErrorIsCached(t *testing.T) {
	cfg := testConfig()
	cfg.Ai.EmbeddingProvider = "carrier-pigeon"
	clients := NewClients(cfg, nopLogger{})

	_, err1 := clients.Embedder()
	require.Error(t, err1)
	_, err2 := clients.Embedder()
	assert.Equal(t, err1, err2)
}

func TestLazyAnswererContainsInitFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Ai.EmbeddingProvider = "carrier-pigeon"
	answerer := NewLazyAnswerer(NewClients(cfg, nopLogger{}))

	_, err := answerer.Answer(context.Background(), "question")
	require.Error(t, err)

	// A retrieval-stage error is what the chat service downgrades to an
	// apologetic reply, so init failures stay contained.
	var retrievalErr *rag.RetrievalError
	require.ErrorAs(t, err, &retrievalErr)

	// The failure is cached: later questions fail the same way instead of
	// retrying construction.
	_, err2 := answerer.Answer(context.Background(), "another question")
	assert.Equal(t, err.Error(), err2.Error())
}
