// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ashureev/feedback-coach/internal/llm"
)

// Store drivers.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds all application configuration.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL"`
	AppEnv      string `env:"APP_ENV"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"file"`
	SessionsFile  string `env:"SESSIONS_FILE" envDefault:"./data/sessions.json"`
	DBPath        string `env:"DB_PATH" envDefault:"./data/sessions.db"`
	ScenariosFile string `env:"SCENARIOS_FILE"`

	AuthUsername string `env:"AUTH_USERNAME"`
	AuthPassword string `env:"AUTH_PASSWORD"`

	LLM LLMConfig

	PracticeIdleTTL time.Duration `env:"PRACTICE_IDLE_TTL" envDefault:"60m"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"1"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	MetricsAddr     string        `env:"METRICS_ADDR" envDefault:":9090"`

	ConversationLog ConversationLogConfig
}

// LLMConfig selects and configures the language model providers.
type LLMConfig struct {
	Provider         string        `env:"LLM_PROVIDER" envDefault:"openai"`
	FallbackProvider string        `env:"LLM_FALLBACK_PROVIDER"`
	OpenAIKey        string        `env:"OPENAI_API_KEY"`
	OpenAIModel      string        `env:"OPENAI_MODEL"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	GeminiKey        string        `env:"GEMINI_API_KEY"`
	GeminiModel      string        `env:"GEMINI_MODEL"`
	Timeout          time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
}

// ConversationLogConfig controls NDJSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool   `env:"CONVERSATION_LOG_ENABLED" envDefault:"true"`
	Dir       string `env:"CONVERSATION_LOG_DIR" envDefault:"./data/logs/conversations"`
	QueueSize int    `env:"CONVERSATION_LOG_QUEUE_SIZE" envDefault:"1000"`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{}, (*Config).Validate)
}

// LoadFrom reads configuration from vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars}, (*Config).Validate)
}

// LoadStorage reads configuration for offline tools that only touch the
// session store, so credentials and provider keys are not required.
func LoadStorage() (*Config, error) {
	return parse(env.Options{}, (*Config).ValidateStorage)
}

func parse(opts env.Options, validate func(*Config) error) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.LLM.FallbackProvider = strings.ToLower(strings.TrimSpace(cfg.LLM.FallbackProvider))
	if strings.TrimSpace(cfg.LLM.OpenAIModel) == "" {
		cfg.LLM.OpenAIModel = llm.DefaultOpenAIModel
	}
	if strings.TrimSpace(cfg.LLM.GeminiModel) == "" {
		cfg.LLM.GeminiModel = llm.DefaultGeminiModel
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ValidateStorage checks the session store settings.
func (c *Config) ValidateStorage() error {
	switch c.StoreDriver {
	case StoreFile:
		if c.SessionsFile == "" {
			return errors.New("SESSIONS_FILE cannot be empty")
		}
	case StoreSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH cannot be empty")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if c.AuthUsername == "" || c.AuthPassword == "" {
		return errors.New("AUTH_USERNAME and AUTH_PASSWORD must be set")
	}
	if err := c.LLM.validateProvider(c.LLM.Provider); err != nil {
		return fmt.Errorf("LLM_PROVIDER: %w", err)
	}
	if c.LLM.FallbackProvider != "" {
		if c.LLM.FallbackProvider == c.LLM.Provider {
			return errors.New("LLM_FALLBACK_PROVIDER must differ from LLM_PROVIDER")
		}
		if err := c.LLM.validateProvider(c.LLM.FallbackProvider); err != nil {
			return fmt.Errorf("LLM_FALLBACK_PROVIDER: %w", err)
		}
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("LLM_TIMEOUT must be > 0")
	}
	if c.PracticeIdleTTL <= 0 {
		return errors.New("PRACTICE_IDLE_TTL must be > 0")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be > 0")
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		return errors.New("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return errors.New("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

func (l LLMConfig) validateProvider(name string) error {
	switch name {
	case ProviderOpenAI:
		if l.OpenAIKey == "" {
			return errors.New("OPENAI_API_KEY is required for openai")
		}
	case ProviderGemini:
		if l.GeminiKey == "" {
			return errors.New("GEMINI_API_KEY is required for gemini")
		}
	default:
		return fmt.Errorf("unknown provider %q", name)
	}
	return nil
}

// IsDevelopment returns true if running in development mode. APP_ENV wins
// when set; otherwise a missing or local frontend URL means development.
func (c *Config) IsDevelopment() bool {
	if c.AppEnv != "" {
		return c.AppEnv == "development"
	}
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins returns the CORS origins for the configured frontend.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" {
		return nil
	}
	return []string{strings.TrimRight(c.FrontendURL, "/")}
}
