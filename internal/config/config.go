package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Discovery DiscoveryConfig
	Session   SessionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string // empty disables the event bus
	RedisURL           string // empty disables cross-instance websocket fan-out
	JWTSecret          string
	OtelEnabled        bool
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type DatabaseConfig struct {
	Connection string // empty selects the in-memory store
}

type APIKeys struct {
	GoogleGemini string
	OpenAI       string
	HuggingFace  string
	Jina         string
}

type AIConfig struct {
	EmbeddingProvider    string // "gemini", "ollama", "openai" or "jina"
	EmbeddingModel       string
	EmbeddingDimension   int // 0 lets the first indexed vector decide
	OllamaBaseURL        string
	OllamaEmbeddingModel string
	OpenAIBaseURL        string
	LLMProvider          string // "ollama", "openai", "huggingface" or "gemini"
	LLMModel             string
	CallTimeout          time.Duration
}

type DiscoveryConfig struct {
	ContextThreshold    float64
	SuggestionThreshold float64
	ContextLimit        int
	SuggestionLimit     int
}

type SessionConfig struct {
	InactivityTimeout time.Duration
	ReaperInterval    time.Duration
	PopularityWindow  time.Duration
	TrackingTimeout   time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.json"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:       getEnv("OPENAI_EMBEDDING_MODEL", ""),
			EmbeddingDimension:   getEnvAsInt("EMBEDDING_DIMENSION", 0),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", ""),
			LLMProvider:          getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:             getEnv("LLM_MODEL", "llama3"),
			CallTimeout:          getEnvAsDuration("AI_CALL_TIMEOUT", 20*time.Second),
		},
		Discovery: DiscoveryConfig{
			ContextThreshold:    getEnvAsFloat("CONTEXT_THRESHOLD", 0.5),
			SuggestionThreshold: getEnvAsFloat("SUGGESTION_THRESHOLD", 0.7),
			ContextLimit:        getEnvAsInt("CONTEXT_LIMIT", 5),
			SuggestionLimit:     getEnvAsInt("SUGGESTION_LIMIT", 3),
		},
		Session: SessionConfig{
			InactivityTimeout: getEnvAsDuration("SESSION_INACTIVITY_TIMEOUT", 10*time.Minute),
			ReaperInterval:    getEnvAsDuration("REAPER_INTERVAL", 2*time.Minute),
			PopularityWindow:  getEnvAsDuration("POPULARITY_WINDOW", 30*24*time.Hour),
			TrackingTimeout:   getEnvAsDuration("SESSION_TRACKING_TIMEOUT", 5*time.Second),
		},
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var problems []string

	d := c.Discovery
	if d.SuggestionThreshold < d.ContextThreshold {
		problems = append(problems, fmt.Sprintf("SUGGESTION_THRESHOLD (%.2f) must be >= CONTEXT_THRESHOLD (%.2f)",
			d.SuggestionThreshold, d.ContextThreshold))
	}
	if d.ContextLimit <= 0 || d.SuggestionLimit <= 0 {
		problems = append(problems, "CONTEXT_LIMIT and SUGGESTION_LIMIT must be positive")
	}
	if c.Session.InactivityTimeout <= 0 || c.Session.ReaperInterval <= 0 {
		problems = append(problems, "SESSION_INACTIVITY_TIMEOUT and REAPER_INTERVAL must be positive")
	}
	if c.Ai.EmbeddingDimension < 0 {
		problems = append(problems, "EMBEDDING_DIMENSION must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s", "10m").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
