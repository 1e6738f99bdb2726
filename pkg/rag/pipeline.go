package rag

import (
	"context"
	"sync"

	"medibot-be/internal/constant"
	"medibot-be/internal/pkg/logger"
	"medibot-be/pkg/embedding"
	"medibot-be/pkg/llm"
	"medibot-be/pkg/rag/prompt"
	"medibot-be/pkg/vectorindex"
)

// Evidence is one retrieved passage, display-bounded, rank starting at 1.
type Evidence struct {
	Text string `json:"text"`
	Rank int    `json:"rank"`
}

type AnswerResult struct {
	Text     string     `json:"text"`
	Evidence []Evidence `json:"evidence"`
}

// Pipeline runs the three retrieval-augmented stages: embed the question,
// search the index, complete with the LLM. It holds no per-call state and is
// safe to share across sessions.
type Pipeline struct {
	embedder    embedding.EmbeddingProvider
	index       vectorindex.VectorIndex
	llmProvider llm.LLMProvider
	topK        int
	temperature float64
	maxTokens   int
	logger      logger.ILogger

	// The backing index is ensured lazily on first use; a failure is cached
	// and repeated until restart, mirroring the blocking-initialization
	// policy.
	ensureOnce sync.Once
	ensureErr  error
}

type PipelineConfig struct {
	TopK        int
	Temperature float64
	MaxTokens   int
}

func NewPipeline(
	embedder embedding.EmbeddingProvider,
	index vectorindex.VectorIndex,
	llmProvider llm.LLMProvider,
	cfg PipelineConfig,
	log logger.ILogger,
) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	return &Pipeline{
		embedder:    embedder,
		index:       index,
		llmProvider: llmProvider,
		topK:        cfg.TopK,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      log,
	}
}

// EnsureIndex creates the backing index if needed. Called implicitly before
// the first search; the eager init strategy calls it at startup instead.
func (p *Pipeline) EnsureIndex(ctx context.Context) error {
	p.ensureOnce.Do(func() {
		p.ensureErr = p.index.EnsureExists(ctx)
	})
	return p.ensureErr
}

// Answer runs the full pipeline for one question. Stage failures come back
// as *EmbeddingError, *RetrievalError or *CompletionError; callers decide how
// to surface them.
func (p *Pipeline) Answer(ctx context.Context, question string) (*AnswerResult, error) {
	vector, err := p.embedder.Embed(ctx, question)
	if err != nil {
		p.logger.Error("rag", "embedding failed", map[string]interface{}{"error": err.Error()})
		return nil, &EmbeddingError{Err: err}
	}

	if err := p.EnsureIndex(ctx); err != nil {
		p.logger.Error("rag", "index unavailable", map[string]interface{}{"error": err.Error()})
		return nil, &RetrievalError{Err: err}
	}

	hits, err := p.index.Search(ctx, vector, p.topK)
	if err != nil {
		p.logger.Error("rag", "search failed", map[string]interface{}{"error": err.Error()})
		return nil, &RetrievalError{Err: err}
	}

	passages := make([]string, len(hits))
	for i, hit := range hits {
		passages[i] = hit.Text
	}

	userPrompt := prompt.NewContextualBuilder(passages, question).Build()

	history := []llm.Message{
		{Role: "system", Content: constant.MedicalSystemPrompt},
		{Role: "user", Content: userPrompt},
	}

	reply, err := p.llmProvider.Chat(ctx, history,
		llm.WithTemperature(p.temperature),
		llm.WithMaxTokens(p.maxTokens),
	)
	if err != nil {
		p.logger.Error("rag", "completion failed", map[string]interface{}{"error": err.Error()})
		return nil, &CompletionError{Err: err}
	}

	evidence := make([]Evidence, len(hits))
	for i, hit := range hits {
		evidence[i] = Evidence{
			Text: TruncatePassage(hit.Text),
			Rank: i + 1,
		}
	}

	p.logger.Info("rag", "answered question", map[string]interface{}{
		"passages": len(hits),
		"chars":    len(reply),
	})

	return &AnswerResult{
		Text:     reply,
		Evidence: evidence,
	}, nil
}

// TruncatePassage bounds a retrieved passage for display.
func TruncatePassage(text string) string {
	runes := []rune(text)
	if len(runes) <= constant.EvidenceMaxLen {
		return text
	}
	return string(runes[:constant.EvidenceMaxLen]) + constant.TruncationMarker
}
