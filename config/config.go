package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// LLM providers.
const (
	ProviderGoogleAI  = "googleai"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

type Config struct {
	Server   ServerConfig
	Facebook FacebookConfig
	Admin    AdminConfig
	Storage  StorageConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Worker   WorkerConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// FacebookConfig holds the webhook secrets and Graph API settings. Empty
// secrets are allowed here; the handlers that need them fail closed.
type FacebookConfig struct {
	AppSecret          string
	VerifyToken        string
	GraphURL           string
	GraphVersion       string
	Timeout            time.Duration
	FetchCustomerNames bool
}

type AdminConfig struct {
	APIKey     string
	RateLimit  int
	// TrustProxy makes the rate limiter key clients by X-Forwarded-For.
	TrustProxy bool
}

type StorageConfig struct {
	Driver        string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
}

type RedisConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	TTL      time.Duration
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type LLMConfig struct {
	Provider        string
	Model           string
	GoogleAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string
	Timeout         time.Duration
}

type WorkerConfig struct {
	Concurrency int
	QueueSize   int
}

type LogConfig struct {
	Level      slog.Level
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load reads configuration from the environment. A .env file is loaded first
// when present; platform environment variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "8080"),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Facebook: FacebookConfig{
			AppSecret:          os.Getenv("FACEBOOK_APP_SECRET"),
			VerifyToken:        getEnvOrDefault("FACEBOOK_VERIFY_TOKEN", os.Getenv("VERIFY_TOKEN")),
			GraphURL:           strings.TrimRight(getEnvOrDefault("FACEBOOK_GRAPH_URL", "https://graph.facebook.com"), "/"),
			GraphVersion:       getEnvOrDefault("FACEBOOK_GRAPH_VERSION", "v25.0"),
			Timeout:            getDuration("FACEBOOK_TIMEOUT", 10*time.Second),
			FetchCustomerNames: getBool("FETCH_CUSTOMER_NAMES", true),
		},
		Admin: AdminConfig{
			APIKey:     os.Getenv("ADMIN_API_KEY"),
			RateLimit:  getInt("ADMIN_RATE_LIMIT", 120),
			TrustProxy: getBool("TRUST_PROXY", false),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", DriverMemory)),
			DatabaseURL:   os.Getenv("DATABASE_URL"),
			MongoURI:      os.Getenv("MONGODB_URI"),
			MongoDatabase: getEnvOrDefault("MONGODB_DATABASE", "airdrop"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Username: os.Getenv("REDIS_USERNAME"),
			Password: os.Getenv("REDIS_PASSWORD"),
			TTL:      getDuration("CACHE_TTL", 5*time.Minute),
		},
		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderGoogleAI)),
			Model:           os.Getenv("LLM_MODEL"),
			GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", os.Getenv("GEMINI_API_KEY")),
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
			OllamaHost:      getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"),
			Timeout:         getDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Worker: WorkerConfig{
			Concurrency: getInt("WORKER_CONCURRENCY", 4),
			QueueSize:   getInt("WORKER_QUEUE_SIZE", 256),
		},
		Log: LogConfig{
			Level:      ParseLogLevel(getEnvOrDefault("LOG_LEVEL", "INFO")),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getInt("LOG_MAX_SIZE", 100),
			MaxBackups: getInt("LOG_MAX_BACKUPS", 7),
			MaxAgeDays: getInt("LOG_MAX_AGE", 7),
			Compress:   getBool("LOG_COMPRESS", true),
		},
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that make the process unable to start. Missing
// webhook or admin secrets are not errors.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for storage driver %q", c.Storage.Driver)
		}
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for storage driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	switch c.LLM.Provider {
	case ProviderGoogleAI, ProviderOpenAI, ProviderAnthropic, ProviderOllama:
	default:
		return fmt.Errorf("unsupported LLM provider %q", c.LLM.Provider)
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}
	if c.Worker.QueueSize < 1 {
		return fmt.Errorf("WORKER_QUEUE_SIZE must be at least 1")
	}
	return nil
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderOllama:
		return "llama3.1"
	default:
		return "gemini-2.0-flash"
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

// ParseLogLevel maps DEBUG/INFO/WARN/ERROR to slog levels, defaulting to INFO.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
