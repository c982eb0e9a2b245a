// Package config loads platform configuration with multi-source priority:
// environment variables override the config file, which overrides defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Provider identifiers used in Config.Provider.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

var (
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrInvalidProvider = errors.New("invalid provider")
)

// Config stores platform configuration. API keys are env-only and never
// written back to the config file.
type Config struct {
	Provider     string `mapstructure:"provider"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	OpenAIBase   string `mapstructure:"openai_base_url"`
	OllamaHost   string `mapstructure:"ollama_host"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`

	CEOModel       string `mapstructure:"ceo_model"`
	FastModel      string `mapstructure:"fast_model"`
	ExecutorModel  string `mapstructure:"executor_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`

	ListenAddr string `mapstructure:"listen_addr"`
	DataDir    string `mapstructure:"data_dir"`

	MaxTextLength  int   `mapstructure:"max_text_length"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	BatchWorkers int     `mapstructure:"batch_workers"`
	BatchRate    float64 `mapstructure:"batch_rate"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load reads configuration. An empty path skips the file and uses only
// environment variables (NEXUS_ prefix) and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("NEXUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("gemini_api_key", "")

	v.SetDefault("ceo_model", "gpt-4")
	v.SetDefault("fast_model", "gpt-3.5-turbo")
	v.SetDefault("executor_model", "gpt-3.5-turbo")
	v.SetDefault("embedding_model", "text-embedding-3-small")

	v.SetDefault("listen_addr", ":8082")
	v.SetDefault("data_dir", "./data")

	v.SetDefault("max_text_length", 4096)
	v.SetDefault("max_upload_bytes", 16*1024*1024)

	v.SetDefault("batch_workers", 2)
	v.SetDefault("batch_rate", 5.0)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Validate fails fast on configuration the platform cannot start with.
// API key presence is not checked here: keys may live in the encrypted
// vault, which is only consulted once the store is open.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("ollama_host must not be empty")
		}
	default:
		return fmt.Errorf("%w: %q (use openai, ollama or gemini)", ErrInvalidProvider, c.Provider)
	}

	if c.BatchWorkers < 1 {
		return fmt.Errorf("batch_workers must be at least 1")
	}
	if c.BatchRate <= 0 {
		return fmt.Errorf("batch_rate must be positive")
	}
	if c.MaxTextLength < 1 {
		return fmt.Errorf("max_text_length must be positive")
	}

	return nil
}
