package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	CORSAllowOrigins   string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	EventSubjectPrefix string
	JWTSecret          string
	JWTTTL             time.Duration
	AdminUsername      string
	AdminPasswordHash  string
	AdminPassword      string
	AIBaseURL          string
	AIAPIKey           string
	AIModel            string
	AIEmbeddingModel   string
	AITemperature      float32
	AIMaxTokens        int
	AIMaxSteps         int
	AITimeout          time.Duration
	KnowledgeIndexPath string
	KnowledgeFAQPath   string
	KnowledgeTopK      int
	MemoryWindow       int
	MemoryTTL          time.Duration
	ChatRateLimit      int
	ChatRateWindow     time.Duration
	StreamChunkSize    int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// AIEnabled reports whether a completion service credential is configured.
func (c Config) AIEnabled() bool {
	return strings.TrimSpace(c.AIAPIKey) != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AdminUsername == "" {
		return Config{}, fmt.Errorf("admin username must not be empty")
	}

	if cfg.AdminPasswordHash == "" && cfg.AdminPassword == "" {
		return Config{}, fmt.Errorf("admin password or password hash must be provided")
	}

	return cfg, nil
}

// LoadAI reads configuration without the server requirements, for offline tooling.
func LoadAI() (Config, error) {
	return read()
}

func read() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CAMPUS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")

	v.SetDefault("app.name", "Campus Admin API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8000")
	v.SetDefault("cors.allow_origins", "http://localhost:3000")
	v.SetDefault("events.subject_prefix", "campus")
	v.SetDefault("jwt.ttl", "60m")
	v.SetDefault("admin.username", "admin")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.embedding_model", "text-embedding-3-small")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("ai.max_steps", 6)
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("knowledge.index_path", "data/index.json")
	v.SetDefault("knowledge.top_k", 3)
	v.SetDefault("memory.window", 5)
	v.SetDefault("memory.ttl", "30m")
	v.SetDefault("chat.rate_limit", 20)
	v.SetDefault("chat.rate_window", "1m")
	v.SetDefault("chat.stream_chunk", 50)

	jwtTTL, err := parseDuration(v, "jwt.ttl", time.Hour)
	if err != nil {
		return Config{}, err
	}
	aiTimeout, err := parseDuration(v, "ai.timeout", time.Minute)
	if err != nil {
		return Config{}, err
	}
	memoryTTL, err := parseDuration(v, "memory.ttl", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "chat.rate_window", time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		CORSAllowOrigins:   v.GetString("cors.allow_origins"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		EventSubjectPrefix: v.GetString("events.subject_prefix"),
		JWTSecret:          v.GetString("jwt.secret"),
		JWTTTL:             jwtTTL,
		AdminUsername:      strings.TrimSpace(v.GetString("admin.username")),
		AdminPasswordHash:  v.GetString("admin.password_hash"),
		AdminPassword:      v.GetString("admin.password"),
		AIBaseURL:          v.GetString("ai.base_url"),
		AIAPIKey:           v.GetString("ai.api_key"),
		AIModel:            v.GetString("ai.model"),
		AIEmbeddingModel:   v.GetString("ai.embedding_model"),
		AITemperature:      float32(v.GetFloat64("ai.temperature")),
		AIMaxTokens:        v.GetInt("ai.max_tokens"),
		AIMaxSteps:         v.GetInt("ai.max_steps"),
		AITimeout:          aiTimeout,
		KnowledgeIndexPath: v.GetString("knowledge.index_path"),
		KnowledgeFAQPath:   v.GetString("knowledge.faq_path"),
		KnowledgeTopK:      v.GetInt("knowledge.top_k"),
		MemoryWindow:       v.GetInt("memory.window"),
		MemoryTTL:          memoryTTL,
		ChatRateLimit:      v.GetInt("chat.rate_limit"),
		ChatRateWindow:     rateWindow,
		StreamChunkSize:    v.GetInt("chat.stream_chunk"),
	}

	if cfg.AIAPIKey == "" {
		cfg.AIAPIKey = v.GetString("openai_api_key")
	}

	if cfg.AIMaxSteps <= 0 {
		cfg.AIMaxSteps = 6
	}

	if cfg.KnowledgeTopK <= 0 {
		cfg.KnowledgeTopK = 3
	}

	if cfg.MemoryWindow <= 0 {
		cfg.MemoryWindow = 5
	}

	if cfg.StreamChunkSize <= 0 {
		cfg.StreamChunkSize = 50
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}
