package qdrant

import (
	"context"
	"fmt"
	"time"

	"medibot-be/pkg/vectorindex"

	"github.com/qdrant/go-client/qdrant"
)

// Index is a VectorIndex backed by a Qdrant collection with cosine distance.
type Index struct {
	client        *qdrant.Client
	collection    string
	dimension     uint64
	ensureTimeout time.Duration
}

var _ vectorindex.VectorIndex = &Index{}

type Config struct {
	Host          string
	Port          int
	APIKey        string
	Collection    string
	Dimension     int
	EnsureTimeout time.Duration
}

func NewIndex(cfg Config) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.APIKey != "", // hosted clusters require TLS
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	ensureTimeout := cfg.EnsureTimeout
	if ensureTimeout <= 0 {
		ensureTimeout = 20 * time.Second
	}

	return &Index{
		client:        client,
		collection:    cfg.Collection,
		dimension:     uint64(cfg.Dimension),
		ensureTimeout: ensureTimeout,
	}, nil
}

// EnsureExists creates the collection if it is missing, then polls until it
// answers queries or the bounded wait runs out.
func (i *Index) EnsureExists(ctx context.Context) error {
	existing, err := i.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	found := false
	for _, name := range existing {
		if name == i.collection {
			found = true
			break
		}
	}

	if !found {
		err := i.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: i.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     i.dimension,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", i.collection, err)
		}
	}

	return i.waitForReady(ctx)
}

func (i *Index) waitForReady(ctx context.Context) error {
	deadline := time.Now().Add(i.ensureTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := i.client.GetCollectionInfo(ctx, i.collection)
		if err == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for collection %s to become queryable", i.collection)
}

func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]vectorindex.SearchHit, error) {
	limit := uint64(k)
	points, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query qdrant: %w", err)
	}

	hits := make([]vectorindex.SearchHit, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		if payload == nil {
			continue
		}
		hits = append(hits, vectorindex.SearchHit{
			Text:  payload["text"].GetStringValue(),
			Score: point.GetScore(),
		})
	}
	return hits, nil
}

func (i *Index) Upsert(ctx context.Context, docs []vectorindex.Document) error {
	points := make([]*qdrant.PointStruct, len(docs))
	for n, doc := range docs {
		points[n] = &qdrant.PointStruct{
			Id:      qdrant.NewID(doc.Id),
			Vectors: qdrant.NewVectors(doc.Vector...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				"text": doc.Text,
			}),
		}
	}

	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert documents: %w", err)
	}
	return nil
}

func (i *Index) Close() error {
	return i.client.Close()
}
