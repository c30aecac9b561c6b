package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the course assistant. Values come
// from environment variables, optionally seeded from a .env file.
type Config struct {
	// Document processing
	ChunkSize    int // target chunk size in characters
	ChunkOverlap int // character overlap between consecutive chunks
	DocsPath     string

	// Retrieval
	MaxResults             int     // default limit for content searches
	CourseMatchMaxDistance float32 // catalog matches above this distance are rejected

	// Conversations
	MaxHistory int // exchanges kept per session

	// Agent loop
	MaxToolRounds int // hard cap on tool-use rounds per query

	// Anthropic
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string

	// Embedding service (OpenAI-compatible /v1/embeddings)
	EmbeddingBaseURL string
	EmbeddingModel   string

	// ChromaDB
	ChromaHost string
	ChromaPort int

	// Redis (session storage; optional)
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// HTTP server
	HTTPAddr string
}

// Load reads configuration from the environment, applying defaults for
// anything unset. A .env file in the working directory is honored but not
// required.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ChunkSize:    getInt("CHUNK_SIZE", 800),
		ChunkOverlap: getInt("CHUNK_OVERLAP", 100),
		DocsPath:     getString("DOCS_PATH", "./docs"),

		MaxResults:             getInt("MAX_RESULTS", 5),
		CourseMatchMaxDistance: getFloat("COURSE_MATCH_MAX_DISTANCE", 1.2),

		MaxHistory: getInt("MAX_HISTORY", 2),

		MaxToolRounds: getInt("MAX_TOOL_ROUNDS", 2),

		AnthropicAPIKey:  getString("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getString("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		AnthropicBaseURL: getString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),

		EmbeddingBaseURL: getString("EMBEDDING_BASE_URL", "http://localhost:8000"),
		EmbeddingModel:   getString("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),

		ChromaHost: getString("CHROMA_HOST", "localhost"),
		ChromaPort: getInt("CHROMA_PORT", 8001),

		RedisHost:     getString("REDIS_HOST", "localhost"),
		RedisPort:     getInt("REDIS_PORT", 6379),
		RedisPassword: getString("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		HTTPAddr: getString("HTTP_ADDR", ":8080"),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}
