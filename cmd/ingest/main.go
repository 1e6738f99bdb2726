package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"medibot-be/internal/bootstrap"
	"medibot-be/internal/config"
	"medibot-be/pkg/utils"
	"medibot-be/pkg/vectorindex"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
	upsertBatch  = 32
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// Loads a directory of plain-text or markdown medical documents, chunks them,
// embeds every chunk and upserts the vectors into the configured index.
func main() {
	docsDir := flag.String("dir", "docs", "directory of .txt/.md documents to ingest")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	clients := bootstrap.NewClients(cfg, nopLogger{})

	embedder, err := clients.Embedder()
	if err != nil {
		log.Fatalf("Failed to initialize embedding provider: %v", err)
	}
	index, err := clients.Index()
	if err != nil {
		log.Fatalf("Failed to initialize vector index: %v", err)
	}

	ctx := context.Background()
	color.Cyan("🚀 Ingesting documents from %s into index %q\n", *docsDir, cfg.Vector.IndexName)

	if err := index.EnsureExists(ctx); err != nil {
		color.Red("Failed to prepare index: %v", err)
		os.Exit(1)
	}

	entries, err := os.ReadDir(*docsDir)
	if err != nil {
		color.Red("Failed to read directory: %v", err)
		os.Exit(1)
	}

	var batch []vectorindex.Document
	totalChunks := 0
	totalFiles := 0

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := index.Upsert(ctx, batch); err != nil {
			color.Red("Upsert failed: %v", err)
			os.Exit(1)
		}
		batch = batch[:0]
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		color.Yellow("\n[FILE] %s", entry.Name())
		raw, err := os.ReadFile(filepath.Join(*docsDir, entry.Name()))
		if err != nil {
			color.Red("Failed to read %s: %v", entry.Name(), err)
			continue
		}

		chunks := utils.SplitText(string(raw), chunkSize, chunkOverlap)
		for _, chunk := range chunks {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}

			vector, err := embedder.Embed(ctx, chunk)
			if err != nil {
				color.Red("Embedding failed for a chunk of %s: %v", entry.Name(), err)
				os.Exit(1)
			}

			batch = append(batch, vectorindex.Document{
				Id:     uuid.NewString(),
				Text:   chunk,
				Vector: vector,
			})
			totalChunks++

			if len(batch) >= upsertBatch {
				flush()
			}
		}

		totalFiles++
		color.Green("Indexed %d chunk(s)", len(chunks))
	}
	flush()

	color.Cyan("\n✅ Done: %d file(s), %d chunk(s) indexed", totalFiles, totalChunks)
}
