package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"course-assistant/internal/config"
	"course-assistant/internal/db"
	"course-assistant/internal/handlers"
	"course-assistant/internal/repositories"
	"course-assistant/internal/routes"
	"course-assistant/internal/services"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "course-assistant/docs"
)

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewServer assembles the full application: vector store, session storage,
// answer generation, handlers and routes. The RAG service is returned
// alongside the HTTP server so callers can trigger document loading.
func NewServer(cfg *config.Config) (*http.Server, *services.RAGService, error) {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chromaClient := db.NewChromaClient(db.ChromaConfig{
		Host: cfg.ChromaHost,
		Port: cfg.ChromaPort,
	})
	if err := chromaClient.Heartbeat(ctx); err != nil {
		chromaClient.Close()
		logger.Printf("ChromaDB connection failed: %v", err)
		logger.Println("Hint: ensure ChromaDB is running (docker run -d -p 8001:8000 chromadb/chroma)")
		return nil, nil, err
	}
	logger.Printf("ChromaDB connected: %s:%d", cfg.ChromaHost, cfg.ChromaPort)

	vectorRepo := repositories.NewChromaVectorRepository(chromaClient)
	embedder := services.NewEmbeddingClient(cfg.EmbeddingBaseURL, cfg.EmbeddingModel)

	store := services.NewCourseStore(vectorRepo, embedder, cfg.MaxResults, cfg.CourseMatchMaxDistance, logger)
	if err := store.EnsureCollections(ctx); err != nil {
		return nil, nil, err
	}

	sessions := initializeSessions(ctx, cfg, logger)
	generator := services.NewAIGenerator(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.MaxToolRounds, logger)
	processor := services.NewDocumentProcessor(cfg.ChunkSize, cfg.ChunkOverlap, logger)

	rag := services.NewRAGService(processor, store, generator, sessions, logger)

	h := &routes.Handlers{
		Health:         handlers.HealthCheckHandler,
		QueryHandler:   handlers.NewQueryHandler(rag, logger),
		CoursesHandler: handlers.NewCoursesHandler(rag, logger),
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h)

	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("http://localhost"+cfg.HTTPAddr+"/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(router),
	}, rag, nil
}

// initializeSessions connects to Redis for session history, falling back to
// the in-memory repository when Redis is unavailable.
func initializeSessions(ctx context.Context, cfg *config.Config, logger *log.Logger) repositories.SessionRepository {
	redisConfig := db.DefaultRedisConfig()
	redisConfig.Host = cfg.RedisHost
	redisConfig.Port = cfg.RedisPort
	redisConfig.Password = cfg.RedisPassword
	redisConfig.DB = cfg.RedisDB

	redisClient, err := db.NewRedisClient(redisConfig)
	if err == nil {
		err = redisClient.Ping(ctx)
	}
	if err != nil {
		logger.Printf("Redis unavailable, using in-memory session storage: %v", err)
		logger.Println("Hint: start Redis to persist sessions (docker run -d -p 6379:6379 redis:7-alpine)")
		return repositories.NewMemorySessionRepository(cfg.MaxHistory)
	}

	logger.Printf("Redis connected: %s:%d (DB %d)", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)
	return repositories.NewRedisSessionRepository(redisClient.GetClient(), cfg.MaxHistory)
}
