package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Keys   APIKeys
	Ai     AIConfig
	Vector VectorConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	InitStrategy       string // "eager" or "lazy"
}

type APIKeys struct {
	Groq        string
	HuggingFace string
}

type AIConfig struct {
	EmbeddingProvider string // "huggingface" or "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "groq" or "ollama"
	LLMModel          string
	Temperature       float64
	MaxTokens         int
	RequestTimeout    time.Duration
	MaxRetries        int
	TopK              int
}

type VectorConfig struct {
	Backend     string // "qdrant" or "pgvector"
	IndexName   string
	Dimension   int
	QdrantHost  string
	QdrantPort  int
	QdrantKey   string
	PostgresDSN string
	// How long to wait for a freshly created index to become queryable.
	EnsureTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/medibot.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			InitStrategy:       getEnv("CLIENT_INIT_STRATEGY", "eager"),
		},
		Keys: APIKeys{
			Groq:        getEnv("GROQ_API_KEY", ""),
			HuggingFace: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "huggingface"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "all-minilm"),
			LLMProvider:       getEnv("LLM_PROVIDER", "groq"),
			LLMModel:          getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
			Temperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:         getEnvAsInt("LLM_MAX_TOKENS", 512),
			RequestTimeout:    getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
			MaxRetries:        getEnvAsInt("LLM_MAX_RETRIES", 2),
			TopK:              getEnvAsInt("RETRIEVAL_TOP_K", 3),
		},
		Vector: VectorConfig{
			Backend:       getEnv("VECTOR_BACKEND", "qdrant"),
			IndexName:     getEnv("VECTOR_INDEX_NAME", "medical-chatbot-index"),
			Dimension:     getEnvAsInt("VECTOR_DIMENSION", 384),
			QdrantHost:    getEnv("QDRANT_HOST", "localhost"),
			QdrantPort:    getEnvAsInt("QDRANT_PORT", 6334),
			QdrantKey:     getEnv("QDRANT_API_KEY", ""),
			PostgresDSN:   getEnv("DB_CONNECTION_STRING", ""),
			EnsureTimeout: getEnvAsDuration("VECTOR_ENSURE_TIMEOUT", 20*time.Second),
		},
	}
}

// Validate checks the secrets the pipeline cannot run without. Called once at
// startup; a missing key here is fatal, not recoverable.
func (c *Config) Validate() error {
	if c.Ai.LLMProvider == "groq" && c.Keys.Groq == "" {
		return &MissingSecretError{Name: "GROQ_API_KEY"}
	}
	if c.Ai.EmbeddingProvider == "huggingface" && c.Keys.HuggingFace == "" {
		return &MissingSecretError{Name: "HUGGINGFACE_API_KEY"}
	}
	if c.Vector.Backend == "pgvector" && c.Vector.PostgresDSN == "" {
		return &MissingSecretError{Name: "DB_CONNECTION_STRING"}
	}
	return nil
}

type MissingSecretError struct {
	Name string
}

func (e *MissingSecretError) Error() string {
	return "missing required environment variable: " + e.Name
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
