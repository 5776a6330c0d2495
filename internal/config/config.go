// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/fd1az/deal-finder/internal/apperror"
)

// Planning modes.
const (
	ModePipeline = "pipeline"
	ModeAgent    = "agent"
)

// Memory backends.
const (
	MemoryFile  = "file"
	MemoryRedis = "redis"
)

// Notification styles.
const (
	StyleCrafted = "crafted"
	StyleAlert   = "alert"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Vector     VectorConfig     `mapstructure:"vector"`
	Specialist SpecialistConfig `mapstructure:"specialist"`
	Scanner    ScannerConfig    `mapstructure:"scanner"`
	Messaging  MessagingConfig  `mapstructure:"messaging"`
	Planning   PlanningConfig   `mapstructure:"planning"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	Journal    JournalConfig    `mapstructure:"journal"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Health     HealthConfig     `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// LLMConfig groups the two chat backends.
type LLMConfig struct {
	Remote RemoteLLMConfig `mapstructure:"remote"`
	Local  LocalLLMConfig  `mapstructure:"local"`
}

// RemoteLLMConfig configures the OpenAI-compatible hosted backend.
type RemoteLLMConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`      // estimates and the planning agent
	ScanModel         string        `mapstructure:"scan_model"` // deal selection
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// LocalLLMConfig configures the Ollama daemon.
type LocalLLMConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	EmbedModel string        `mapstructure:"embed_model"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// VectorConfig configures the Qdrant collection of priced products.
type VectorConfig struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Collection string        `mapstructure:"collection"`
	TopK       int           `mapstructure:"top_k"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// SpecialistConfig configures the hosted fine-tuned pricer.
type SpecialistConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ScannerConfig configures the deal feeds.
type ScannerConfig struct {
	Feeds          []string      `mapstructure:"feeds"`
	MaxPerFeed     int           `mapstructure:"max_per_feed"`
	FetchDetails   bool          `mapstructure:"fetch_details"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// MessagingConfig configures Pushover delivery.
type MessagingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	PushoverURL   string `mapstructure:"pushover_url"`
	PushoverUser  string `mapstructure:"pushover_user"`
	PushoverToken string `mapstructure:"pushover_token"`
	Sound         string `mapstructure:"sound"`
}

// PlanningConfig configures a run.
type PlanningConfig struct {
	Mode          string  `mapstructure:"mode"`
	DealThreshold float64 `mapstructure:"deal_threshold"`
	MaxTurns      int     `mapstructure:"max_turns"`
	Schedule      string  `mapstructure:"schedule"`
	MessageStyle  string  `mapstructure:"message_style"` // crafted (model summary) or alert (fixed format)
}

// DealThresholdDecimal returns the minimum discount as decimal.Decimal.
func (c *PlanningConfig) DealThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DealThreshold)
}

// MemoryConfig configures where surfaced opportunities are kept.
type MemoryConfig struct {
	Backend  string `mapstructure:"backend"`
	Path     string `mapstructure:"path"`
	RedisURL string `mapstructure:"redis_url"`
	RedisKey string `mapstructure:"redis_key"`
}

// JournalConfig configures the markdown deal journal.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig configures the health server.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), configPath)
}

// LoadFs is Load reading the config file from fs.
func LoadFs(fs afero.Fs, configPath string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("DEAL")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err),
				apperror.WithContext("failed to read config"))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("failed to unmarshal config"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "DEAL_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "DEAL_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "DEAL_LOG_LEVEL", "LOG_LEVEL")

	// LLM
	v.BindEnv("llm.remote.api_key", "DEAL_LLM_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("llm.remote.base_url", "DEAL_LLM_BASE_URL")
	v.BindEnv("llm.remote.model", "DEAL_LLM_MODEL")
	v.BindEnv("llm.local.base_url", "DEAL_OLLAMA_URL")
	v.BindEnv("llm.local.model", "DEAL_OLLAMA_MODEL")

	// Vector store
	v.BindEnv("vector.url", "DEAL_VECTOR_URL", "QDRANT_URL")
	v.BindEnv("vector.api_key", "DEAL_VECTOR_API_KEY", "QDRANT_API_KEY")
	v.BindEnv("vector.collection", "DEAL_VECTOR_COLLECTION")

	// Specialist
	v.BindEnv("specialist.url", "DEAL_SPECIALIST_URL", "PRICER_URL")
	v.BindEnv("specialist.token", "DEAL_SPECIALIST_TOKEN", "PRICER_TOKEN")

	// Messaging
	v.BindEnv("messaging.pushover_user", "DEAL_PUSHOVER_USER", "PUSHOVER_USER")
	v.BindEnv("messaging.pushover_token", "DEAL_PUSHOVER_TOKEN", "PUSHOVER_TOKEN")

	// Planning
	v.BindEnv("planning.mode", "DEAL_MODE")
	v.BindEnv("planning.deal_threshold", "DEAL_THRESHOLD")
	v.BindEnv("planning.schedule", "DEAL_SCHEDULE")

	// Memory
	v.BindEnv("memory.backend", "DEAL_MEMORY_BACKEND")
	v.BindEnv("memory.redis_url", "DEAL_REDIS_URL", "REDIS_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "DEAL_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "DEAL_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "DEAL_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "deal-finder")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Remote backend: Gemini through its OpenAI-compatible endpoint
	v.SetDefault("llm.remote.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("llm.remote.model", "gemini-2.5-flash")
	v.SetDefault("llm.remote.scan_model", "gemini-2.5-flash-lite")
	v.SetDefault("llm.remote.timeout", "60s")
	v.SetDefault("llm.remote.requests_per_minute", 15) // free tier quota

	// Local backend
	v.SetDefault("llm.local.base_url", "http://127.0.0.1:11436")
	v.SetDefault("llm.local.model", "llama3.2")
	v.SetDefault("llm.local.embed_model", "all-minilm")
	v.SetDefault("llm.local.timeout", "120s")

	// Vector store
	v.SetDefault("vector.url", "http://localhost:6333")
	v.SetDefault("vector.collection", "products")
	v.SetDefault("vector.top_k", 5)
	v.SetDefault("vector.timeout", "10s")

	// Specialist
	v.SetDefault("specialist.enabled", true)
	v.SetDefault("specialist.timeout", "60s")

	// Scanner
	v.SetDefault("scanner.feeds", DefaultFeeds)
	v.SetDefault("scanner.max_per_feed", 10)
	v.SetDefault("scanner.fetch_details", true)
	v.SetDefault("scanner.request_timeout", "15s")

	// Messaging
	v.SetDefault("messaging.enabled", true)
	v.SetDefault("messaging.pushover_url", "https://api.pushover.net")
	v.SetDefault("messaging.sound", "cashregister")

	// Planning
	v.SetDefault("planning.mode", ModePipeline)
	v.SetDefault("planning.deal_threshold", 50)
	v.SetDefault("planning.max_turns", 10)
	v.SetDefault("planning.message_style", StyleCrafted)

	// Memory
	v.SetDefault("memory.backend", MemoryFile)
	v.SetDefault("memory.path", "memory.json")
	v.SetDefault("memory.redis_url", "redis://localhost:6379/0")
	v.SetDefault("memory.redis_key", "deal-finder:memory")

	// Journal
	v.SetDefault("journal.path", "sandbox/deals.md")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "deal-finder")
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.prometheus_port", 9090)

	// Health
	v.SetDefault("health.enabled", false)
	v.SetDefault("health.port", 8081)
}

// DefaultFeeds are the DealNews category feeds scanned by default.
var DefaultFeeds = []string{
	"https://www.dealnews.com/c142/Electronics/?rss=1",
	"https://www.dealnews.com/c39/Computers/?rss=1",
	"https://www.dealnews.com/c238/Automotive/?rss=1",
	"https://www.dealnews.com/f1912/Smart-Home/?rss=1",
	"https://www.dealnews.com/c196/Home-Garden/?rss=1",
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	invalid := func(msg string) error {
		return apperror.New(apperror.CodeConfigurationError, apperror.WithContext(msg))
	}

	if c.LLM.Remote.APIKey == "" {
		return invalid("llm.remote.api_key is required (GEMINI_API_KEY)")
	}
	if c.LLM.Remote.BaseURL == "" {
		return invalid("llm.remote.base_url is required")
	}
	if c.LLM.Local.BaseURL == "" {
		return invalid("llm.local.base_url is required")
	}
	if c.Vector.URL == "" || c.Vector.Collection == "" {
		return invalid("vector.url and vector.collection are required")
	}
	if c.Vector.TopK <= 0 {
		return invalid(fmt.Sprintf("vector.top_k must be positive, got %d", c.Vector.TopK))
	}
	if c.Specialist.Enabled && c.Specialist.URL == "" {
		return invalid("specialist.url is required when the specialist is enabled")
	}
	if len(c.Scanner.Feeds) == 0 {
		return invalid("scanner.feeds cannot be empty")
	}
	if c.Messaging.Enabled && (c.Messaging.PushoverUser == "" || c.Messaging.PushoverToken == "") {
		return invalid("messaging.pushover_user and messaging.pushover_token are required (PUSHOVER_USER, PUSHOVER_TOKEN)")
	}
	switch c.Planning.Mode {
	case ModePipeline, ModeAgent:
	default:
		return invalid(fmt.Sprintf("planning.mode must be %q or %q, got %q", ModePipeline, ModeAgent, c.Planning.Mode))
	}
	switch c.Planning.MessageStyle {
	case "", StyleCrafted, StyleAlert:
	default:
		return invalid(fmt.Sprintf("planning.message_style must be %q or %q, got %q", StyleCrafted, StyleAlert, c.Planning.MessageStyle))
	}
	switch c.Memory.Backend {
	case MemoryFile:
	case MemoryRedis:
		if _, err := redis.ParseURL(c.Memory.RedisURL); err != nil {
			return apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("memory.redis_url is not a valid redis URL"),
				apperror.WithCause(err))
		}
	default:
		return invalid(fmt.Sprintf("memory.backend must be %q or %q, got %q", MemoryFile, MemoryRedis, c.Memory.Backend))
	}
	return nil
}
