// Command load-courses loads course transcripts into the vector store
// without starting the API server. Useful for (re)indexing a docs folder.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"course-assistant/internal/config"
	"course-assistant/internal/db"
	"course-assistant/internal/repositories"
	"course-assistant/internal/services"
)

func main() {
	clear := flag.Bool("clear", false, "clear existing course data before loading")
	docsPath := flag.String("docs", "", "docs folder to load (defaults to DOCS_PATH)")
	flag.Parse()

	logger := log.New(os.Stdout, "[LOADER] ", log.LstdFlags)
	cfg := config.Load()

	path := *docsPath
	if path == "" {
		path = cfg.DocsPath
	}
	if _, err := os.Stat(path); err != nil {
		logger.Fatalf("Docs folder not found: %s", path)
	}

	ctx := context.Background()

	chromaClient := db.NewChromaClient(db.ChromaConfig{
		Host: cfg.ChromaHost,
		Port: cfg.ChromaPort,
	})
	defer chromaClient.Close()
	if err := chromaClient.Heartbeat(ctx); err != nil {
		logger.Fatalf("ChromaDB unreachable at %s:%d: %v", cfg.ChromaHost, cfg.ChromaPort, err)
	}

	vectorRepo := repositories.NewChromaVectorRepository(chromaClient)
	embedder := services.NewEmbeddingClient(cfg.EmbeddingBaseURL, cfg.EmbeddingModel)
	store := services.NewCourseStore(vectorRepo, embedder, cfg.MaxResults, cfg.CourseMatchMaxDistance, logger)
	if err := store.EnsureCollections(ctx); err != nil {
		logger.Fatalf("Failed to prepare collections: %v", err)
	}

	processor := services.NewDocumentProcessor(cfg.ChunkSize, cfg.ChunkOverlap, logger)
	sessions := repositories.NewMemorySessionRepository(cfg.MaxHistory)
	generator := services.NewAIGenerator(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.MaxToolRounds, logger)

	rag := services.NewRAGService(processor, store, generator, sessions, logger)

	logger.Printf("Current vector store state: %d courses", store.GetCourseCount(ctx))
	for _, title := range store.GetExistingCourseTitles(ctx) {
		logger.Printf("  - %s", title)
	}

	courses, chunks, err := rag.AddCourseFolder(ctx, path, *clear)
	if err != nil {
		logger.Fatalf("Loading failed: %v", err)
	}

	fmt.Printf("Loaded %d new courses (%d chunks) from %s\n", courses, chunks, path)
	fmt.Printf("Total courses in store: %d\n", store.GetCourseCount(ctx))

	// Probe search to confirm the freshly indexed content is retrievable.
	results, err := store.Search(ctx, "introduction", services.SearchOptions{})
	switch {
	case err != nil:
		logger.Printf("Warning: verification search failed: %v", err)
	case results.IsEmpty():
		logger.Printf("Warning: verification search returned no results")
	default:
		logger.Printf("Verification search returned %d results", len(results.Documents))
	}
}
