package pgvector

import (
	"context"
	"fmt"
	"time"

	"medibot-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Passage is one indexed chunk of the medical corpus.
type Passage struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Content   string          `gorm:"type:text"`
	Embedding pgvector.Vector `gorm:"type:vector(384)"` // all-MiniLM-L6-v2 dimension
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (Passage) TableName() string {
	return "medical_passages"
}

// Index is a VectorIndex backed by a Postgres table with a pgvector column.
// The pgvector extension must be installed; the table itself is created on
// EnsureExists.
type Index struct {
	db *gorm.DB
}

var _ vectorindex.VectorIndex = &Index{}

func NewIndex(db *gorm.DB) *Index {
	return &Index{db: db}
}

func (i *Index) EnsureExists(ctx context.Context) error {
	if err := i.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %w", err)
	}
	if err := i.db.WithContext(ctx).AutoMigrate(&Passage{}); err != nil {
		return fmt.Errorf("failed to migrate passages table: %w", err)
	}
	return nil
}

func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]vectorindex.SearchHit, error) {
	if k <= 0 {
		k = 3
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query) gives the similarity score.
	type result struct {
		Content    string
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	err := i.db.WithContext(ctx).
		Table("medical_passages").
		Select("content, 1 - (embedding <=> ?) as similarity", queryVector).
		Order(gorm.Expr("embedding <=> ?", queryVector)).
		Limit(k).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search passages: %w", err)
	}

	hits := make([]vectorindex.SearchHit, len(results))
	for n, res := range results {
		hits[n] = vectorindex.SearchHit{
			Text:  res.Content,
			Score: float32(res.Similarity),
		}
	}
	return hits, nil
}

func (i *Index) Upsert(ctx context.Context, docs []vectorindex.Document) error {
	passages := make([]Passage, len(docs))
	for n, doc := range docs {
		id, err := uuid.Parse(doc.Id)
		if err != nil {
			id = uuid.New()
		}
		passages[n] = Passage{
			Id:        id,
			Content:   doc.Text,
			Embedding: pgvector.NewVector(doc.Vector),
		}
	}
	if err := i.db.WithContext(ctx).Save(&passages).Error; err != nil {
		return fmt.Errorf("failed to upsert passages: %w", err)
	}
	return nil
}
