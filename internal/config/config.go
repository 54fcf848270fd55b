package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" mapstructure:"checkpoint"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Stages     StagesConfig     `yaml:"stages" mapstructure:"stages"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// LLMConfig configures text generation and the per-item retry policy.
type LLMConfig struct {
	Provider         string  `yaml:"provider" mapstructure:"provider"`
	MaxTokens        int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	RetryLimit       int    `yaml:"retry_limit" mapstructure:"retry_limit"`
	RetryDelayMs     int    `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
	CallDelayMs      int    `yaml:"call_delay_ms" mapstructure:"call_delay_ms"`
	CircuitThreshold int    `yaml:"circuit_threshold" mapstructure:"circuit_threshold"`
	CircuitResetSecs int    `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds settings for OpenAI or any compatible chat endpoint.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PathsConfig names the pipeline's files.
type PathsConfig struct {
	Records     string `yaml:"records" mapstructure:"records"`
	Extractions string `yaml:"extractions" mapstructure:"extractions"`
	Grades      string `yaml:"grades" mapstructure:"grades"`
	Forecasts   string `yaml:"forecasts" mapstructure:"forecasts"`
	URLFile     string `yaml:"url_file" mapstructure:"url_file"`
}

// CheckpointConfig selects how each stage persists completed items.
type CheckpointConfig struct {
	ExtractionMode string `yaml:"extraction_mode" mapstructure:"extraction_mode"`
	GradeMode      string `yaml:"grade_mode" mapstructure:"grade_mode"`
	ForecastMode   string `yaml:"forecast_mode" mapstructure:"forecast_mode"`
	Fsync          bool   `yaml:"fsync" mapstructure:"fsync"`
}

// ScrapeConfig configures the evidence portal scraper.
type ScrapeConfig struct {
	GraphQLURL  string `yaml:"graphql_url" mapstructure:"graphql_url"`
	DelayMs     int    `yaml:"delay_ms" mapstructure:"delay_ms"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// StagesConfig holds per-stage model overrides. Empty means the provider default.
type StagesConfig struct {
	ExtractModel  string `yaml:"extract_model" mapstructure:"extract_model"`
	GradeModel    string `yaml:"grade_model" mapstructure:"grade_model"`
	ForecastModel string `yaml:"forecast_model" mapstructure:"forecast_model"`

	// ForecastMaxTokens replaces llm.max_tokens for forecasting, whose replies
	// carry a scratchpad ahead of the grade line. 0 uses llm.max_tokens.
	ForecastMaxTokens int `yaml:"forecast_max_tokens" mapstructure:"forecast_max_tokens"`
}

// StoreConfig configures the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PricingConfig holds per-model pricing rates.
type PricingConfig struct {
	Models map[string]ModelPricing `yaml:"models" mapstructure:"models"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EVIDENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a default must still be registered so that
	// AutomaticEnv can resolve them during Unmarshal.
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.retry_limit", 3)
	v.SetDefault("llm.retry_delay_ms", 1000)
	v.SetDefault("llm.call_delay_ms", 1000)
	v.SetDefault("llm.circuit_threshold", 0)
	v.SetDefault("llm.circuit_reset_secs", 60)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("paths.records", "data/records.yaml")
	v.SetDefault("paths.extractions", "data/extractions.yaml")
	v.SetDefault("paths.grades", "data/grades.yaml")
	v.SetDefault("paths.forecasts", "data/forecasts.yaml")
	v.SetDefault("paths.url_file", "data/urls.txt")
	v.SetDefault("checkpoint.extraction_mode", "rewrite")
	v.SetDefault("checkpoint.grade_mode", "append")
	v.SetDefault("checkpoint.forecast_mode", "append")
	v.SetDefault("checkpoint.fsync", true)
	v.SetDefault("scrape.graphql_url", "https://api.developmentevidence.3ieimpact.org/graphql")
	v.SetDefault("scrape.delay_ms", 500)
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("stages.extract_model", "")
	v.SetDefault("stages.grade_model", "")
	v.SetDefault("stages.forecast_model", "")
	v.SetDefault("stages.forecast_max_tokens", 4096)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "evidence.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings a command mode needs are present.
// Modes: "llm" (extract, grade, forecast), "scrape", "serve", "report".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}

	switch mode {
	case "llm":
		switch c.LLM.Provider {
		case "anthropic":
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required")
			}
		case "openai":
			if c.OpenAI.Key == "" {
				errs = append(errs, "openai.key is required")
			}
		case "gemini":
			if c.Gemini.Key == "" {
				errs = append(errs, "gemini.key is required")
			}
		default:
			errs = append(errs, fmt.Sprintf("llm.provider %q must be anthropic, openai or gemini", c.LLM.Provider))
		}
		if c.LLM.RetryLimit < 1 {
			errs = append(errs, "llm.retry_limit must be >= 1")
		}
		if c.LLM.RetryDelayMs < 0 || c.LLM.CallDelayMs < 0 {
			errs = append(errs, "llm delays must be >= 0")
		}
		if c.LLM.MaxTokens < 1 {
			errs = append(errs, "llm.max_tokens must be >= 1")
		}
		if c.Stages.ForecastMaxTokens < 0 {
			errs = append(errs, "stages.forecast_max_tokens must be >= 0")
		}
		for _, cm := range []struct{ name, value string }{
			{"checkpoint.extraction_mode", c.Checkpoint.ExtractionMode},
			{"checkpoint.grade_mode", c.Checkpoint.GradeMode},
			{"checkpoint.forecast_mode", c.Checkpoint.ForecastMode},
		} {
			if cm.value != "append" && cm.value != "rewrite" {
				errs = append(errs, fmt.Sprintf("%s must be append or rewrite", cm.name))
			}
		}
	case "scrape":
		if c.Scrape.GraphQLURL == "" {
			errs = append(errs, "scrape.graphql_url is required")
		}
		if c.Scrape.DelayMs < 0 {
			errs = append(errs, "scrape.delay_ms must be >= 0")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "report":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
