package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"medibot-be/internal/config"
	"medibot-be/internal/pkg/logger"
	"medibot-be/internal/service"
	"medibot-be/pkg/database"
	"medibot-be/pkg/embedding"
	"medibot-be/pkg/llm"
	llmFactory "medibot-be/pkg/llm/factory"
	"medibot-be/pkg/rag"
	"medibot-be/pkg/vectorindex"
	pgvectorIndex "medibot-be/pkg/vectorindex/pgvector"
	qdrantIndex "medibot-be/pkg/vectorindex/qdrant"
)

// Clients hands out the external-service handles the pipeline depends on.
// Each handle is built at most once per process; every later access returns
// the same instance. Construction errors are cached the same way, so a
// misconfigured backend fails consistently instead of hammering the remote
// side with fresh connection attempts.
type Clients struct {
	cfg    *config.Config
	logger logger.ILogger

	embedderOnce sync.Once
	embedder     embedding.EmbeddingProvider
	embedderErr  error

	indexOnce sync.Once
	index     vectorindex.VectorIndex
	indexErr  error

	llmOnce sync.Once
	llm     llm.LLMProvider
	llmErr  error
}

func NewClients(cfg *config.Config, log logger.ILogger) *Clients {
	return &Clients{cfg: cfg, logger: log}
}

func (c *Clients) Embedder() (embedding.EmbeddingProvider, error) {
	c.embedderOnce.Do(func() {
		switch c.cfg.Ai.EmbeddingProvider {
		case "ollama":
			c.embedder = embedding.NewOllamaProvider(c.cfg.Ai.OllamaBaseURL, c.cfg.Ai.OllamaModel)
		case "huggingface":
			c.embedder = embedding.NewHuggingFaceProvider(c.cfg.Keys.HuggingFace, c.cfg.Ai.EmbeddingModel)
		default:
			c.embedderErr = fmt.Errorf("unknown embedding provider: %s", c.cfg.Ai.EmbeddingProvider)
			return
		}
		c.logger.Info("bootstrap", "embedding provider ready", map[string]interface{}{
			"provider": c.cfg.Ai.EmbeddingProvider,
		})
	})
	return c.embedder, c.embedderErr
}

func (c *Clients) Index() (vectorindex.VectorIndex, error) {
	c.indexOnce.Do(func() {
		switch c.cfg.Vector.Backend {
		case "pgvector":
			db, err := database.NewGormDBFromDSN(c.cfg.Vector.PostgresDSN)
			if err != nil {
				c.indexErr = fmt.Errorf("failed to connect to postgres: %w", err)
				return
			}
			c.index = pgvectorIndex.NewIndex(db)
		case "qdrant":
			idx, err := qdrantIndex.NewIndex(qdrantIndex.Config{
				Host:          c.cfg.Vector.QdrantHost,
				Port:          c.cfg.Vector.QdrantPort,
				APIKey:        c.cfg.Vector.QdrantKey,
				Collection:    c.cfg.Vector.IndexName,
				Dimension:     c.cfg.Vector.Dimension,
				EnsureTimeout: c.cfg.Vector.EnsureTimeout,
			})
			if err != nil {
				c.indexErr = err
				return
			}
			c.index = idx
		default:
			c.indexErr = fmt.Errorf("unknown vector backend: %s", c.cfg.Vector.Backend)
			return
		}
		c.logger.Info("bootstrap", "vector index ready", map[string]interface{}{
			"backend": c.cfg.Vector.Backend,
			"index":   c.cfg.Vector.IndexName,
		})
	})
	return c.index, c.indexErr
}

func (c *Clients) LLM() (llm.LLMProvider, error) {
	c.llmOnce.Do(func() {
		c.llm, c.llmErr = llmFactory.NewLLMProvider(
			c.cfg.Ai.LLMProvider,
			c.cfg.Ai.LLMModel,
			c.cfg.Ai.OllamaBaseURL,
			c.cfg.Keys.Groq,
			c.cfg.Ai.RequestTimeout,
			c.cfg.Ai.MaxRetries,
		)
		if c.llmErr == nil {
			c.logger.Info("bootstrap", "llm provider ready", map[string]interface{}{
				"provider": c.cfg.Ai.LLMProvider,
				"model":    c.cfg.Ai.LLMModel,
			})
		}
	})
	return c.llm, c.llmErr
}

// Pipeline assembles the answer pipeline from the memoized clients.
func (c *Clients) Pipeline(ctx context.Context) (*rag.Pipeline, error) {
	embedder, err := c.Embedder()
	if err != nil {
		return nil, err
	}
	index, err := c.Index()
	if err != nil {
		return nil, err
	}
	provider, err := c.LLM()
	if err != nil {
		return nil, err
	}

	pipeline := rag.NewPipeline(embedder, index, provider, rag.PipelineConfig{
		TopK:        c.cfg.Ai.TopK,
		Temperature: c.cfg.Ai.Temperature,
		MaxTokens:   c.cfg.Ai.MaxTokens,
	}, c.logger)

	if c.cfg.App.InitStrategy != "lazy" {
		if err := pipeline.EnsureIndex(ctx); err != nil {
			return nil, err
		}
	}
	return pipeline, nil
}

// lazyAnswerer defers client construction until the first question arrives.
// The first call pays the full init cost; a failed init is cached, and the
// chat service turns the error into a contained reply.
type lazyAnswerer struct {
	clients *Clients

	once     sync.Once
	pipeline *rag.Pipeline
	initErr  error
}

var _ service.Answerer = &lazyAnswerer{}

func NewLazyAnswerer(clients *Clients) service.Answerer {
	return &lazyAnswerer{clients: clients}
}

func (l *lazyAnswerer) Answer(ctx context.Context, question string) (*rag.AnswerResult, error) {
	l.once.Do(func() {
		l.pipeline, l.initErr = l.clients.Pipeline(ctx)
	})
	if l.initErr != nil {
		return nil, &rag.RetrievalError{Err: fmt.Errorf("pipeline initialization failed: %w", l.initErr)}
	}
	return l.pipeline.Answer(ctx, question)
}
