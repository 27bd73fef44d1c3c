package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Gemini / embeddings
	GeminiAPIKey          string
	GeminiModel           string
	GeminiTier            string
	GoogleEmbeddingsModel string
	GenerateTimeout       int // seconds

	// Retrieval tuning
	MaxChunkSize       int
	TopK               int
	RelevanceThreshold float64

	// Image catalog
	ImageCatalogPath string
	StaticImagesDir  string
	ImageCategory    string

	// Storage
	DataDir             string
	TopicsDir           string
	FileStorageDir      string
	MaxFileSize         int64
	SyncProcessingLimit int64
	TempFileTTLMinutes  int

	// Redis (rate limiting, answer cache, task queue)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	AnswerCacheTTLMinutes int
	RateLimitReqs         int
	RateLimitWindow       int

	// Telemetry
	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Port:        getEnv("PORT", "4000"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTier:            getEnv("GEMINI_TIER", "free"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GenerateTimeout:       getEnvInt("GENERATE_TIMEOUT", 60),

		MaxChunkSize:       getEnvInt("MAX_CHUNK_SIZE", 800),
		TopK:               getEnvInt("RETRIEVAL_TOP_K", 4),
		RelevanceThreshold: getEnvFloat64("RELEVANCE_THRESHOLD", 0.3),

		ImageCatalogPath: getEnv("IMAGE_CATALOG_PATH", filepath.Join(dataDir, "images.json")),
		StaticImagesDir:  getEnv("STATIC_IMAGES_DIR", "./public/images"),
		ImageCategory:    getEnv("IMAGE_CATEGORY", "sound"),

		DataDir:             dataDir,
		TopicsDir:           getEnv("TOPICS_DIR", filepath.Join(dataDir, "topics")),
		FileStorageDir:      getEnv("FILE_STORAGE_DIR", "./storage"),
		MaxFileSize:         getEnvInt64("MAX_FILE_SIZE", 104857600), // 100MB
		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 20971520),
		TempFileTTLMinutes:  getEnvInt("TEMP_FILE_TTL_MINUTES", 60),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AnswerCacheTTLMinutes: getEnvInt("ANSWER_CACHE_TTL_MINUTES", 30),
		RateLimitReqs:         getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:       getEnvInt("RATE_LIMIT_WINDOW", 60),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}
	if cfg.MaxChunkSize <= 0 {
		return nil, fmt.Errorf("MAX_CHUNK_SIZE must be positive")
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_TOP_K must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
