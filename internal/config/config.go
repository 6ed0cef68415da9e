package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"mindpulse-backend/internal/scoring"
	"mindpulse-backend/internal/telemetry"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiEmbeddingModel string
	GeminiConcurrentReqs int

	// Qdrant vector memory
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	EmbeddingDim     int

	// Scoring policy (named values, tunable without touching the algorithm)
	LatencyThresholdMs int
	LatencyPoints      int
	BackspaceThreshold int
	BackspacePoints    int
	IdleThresholdMs    int
	IdlePoints         int
	VentingWordCount   int
	VentingWeight      float64
	DefaultWeight      float64

	// Telemetry
	IdleGapMs int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiEmbeddingModel: getEnvOrDefault("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),

		QdrantURL:        mustGetEnv("QDRANT_URL"),
		QdrantAPIKey:     getEnvOrDefault("QDRANT_API_KEY", ""),
		QdrantCollection: getEnvOrDefault("QDRANT_COLLECTION", "mindpulse_memories"),
		EmbeddingDim:     getEnvAsIntOrDefault("EMBEDDING_DIM", 768),

		LatencyThresholdMs: getEnvAsIntOrDefault("SCORE_LATENCY_THRESHOLD_MS", 8000),
		LatencyPoints:      getEnvAsIntOrDefault("SCORE_LATENCY_POINTS", 30),
		BackspaceThreshold: getEnvAsIntOrDefault("SCORE_BACKSPACE_THRESHOLD", 5),
		BackspacePoints:    getEnvAsIntOrDefault("SCORE_BACKSPACE_POINTS", 40),
		IdleThresholdMs:    getEnvAsIntOrDefault("SCORE_IDLE_THRESHOLD_MS", 10000),
		IdlePoints:         getEnvAsIntOrDefault("SCORE_IDLE_POINTS", 20),
		VentingWordCount:   getEnvAsIntOrDefault("SCORE_VENTING_WORD_COUNT", 20),
		VentingWeight:      getEnvAsFloatOrDefault("SCORE_VENTING_WEIGHT", 0.1),
		DefaultWeight:      getEnvAsFloatOrDefault("SCORE_DEFAULT_WEIGHT", 0.2),

		IdleGapMs: getEnvAsIntOrDefault("TELEMETRY_IDLE_GAP_MS", telemetry.DefaultIdleGapMs),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// ScoringPolicy assembles the scoring constants into a policy value.
func (c *Config) ScoringPolicy() scoring.Policy {
	return scoring.Policy{
		LatencyThresholdMs: int64(c.LatencyThresholdMs),
		LatencyPoints:      c.LatencyPoints,
		BackspaceThreshold: c.BackspaceThreshold,
		BackspacePoints:    c.BackspacePoints,
		IdleThresholdMs:    int64(c.IdleThresholdMs),
		IdlePoints:         c.IdlePoints,
		VentingWordCount:   c.VentingWordCount,
		VentingWeight:      c.VentingWeight,
		DefaultWeight:      c.DefaultWeight,
	}
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
