package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "BROWSER_AGENT"

	ProviderCompletion = "completion"
	ProviderChat       = "chat"

	EnginePlaywright = "playwright"
	EngineChromedp   = "chromedp"

	ExtractionLive   = "live"
	ExtractionStatic = "static"
)

// MaxContextWindow bounds the number of context blocks kept in a prompt.
const MaxContextWindow = 3

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"

type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Browser BrowserConfig `mapstructure:"browser"`
	Agent   AgentConfig   `mapstructure:"agent"`
}

type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	ServiceName string `mapstructure:"service_name"`
	LogFile     string `mapstructure:"log_file"`
	MaxSize     int    `mapstructure:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	Compress    bool   `mapstructure:"compress"`
}

// LLMConfig holds the sampling setup of the completion model.
type LLMConfig struct {
	Provider          string  `mapstructure:"provider"`
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	Temperature       float32 `mapstructure:"temperature"`
	Candidates        int     `mapstructure:"candidates"`
	BestOf            int     `mapstructure:"best_of"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
}

type BrowserConfig struct {
	Engine         string        `mapstructure:"engine"`
	Headless       bool          `mapstructure:"headless"`
	UserAgent      string        `mapstructure:"user_agent"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	Install        bool          `mapstructure:"install"`
}

type AgentConfig struct {
	IterationDelay time.Duration `mapstructure:"iteration_delay"`
	ContextWindow  int           `mapstructure:"context_window"`
	URLLimit       int           `mapstructure:"url_limit"`
	ContentLimit   int           `mapstructure:"content_limit"`
	ClickTimeout   time.Duration `mapstructure:"click_timeout"`
	TypeDelay      time.Duration `mapstructure:"type_delay"`
	Extraction     string        `mapstructure:"extraction"`
	SeedExamples   bool          `mapstructure:"seed_examples"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "browser-agent")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)

	v.SetDefault("llm.provider", ProviderCompletion)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-3.5-turbo-instruct")
	v.SetDefault("llm.temperature", 0.5)
	v.SetDefault("llm.candidates", 10)
	v.SetDefault("llm.best_of", 10)
	v.SetDefault("llm.max_tokens", 50)
	v.SetDefault("llm.requests_per_minute", 0)

	v.SetDefault("browser.engine", EnginePlaywright)
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.user_agent", defaultUserAgent)
	v.SetDefault("browser.default_timeout", 60*time.Second)
	v.SetDefault("browser.install", true)

	v.SetDefault("agent.iteration_delay", time.Second)
	v.SetDefault("agent.context_window", MaxContextWindow)
	v.SetDefault("agent.url_limit", 100)
	v.SetDefault("agent.content_limit", 4500)
	v.SetDefault("agent.click_timeout", 5*time.Second)
	v.SetDefault("agent.type_delay", 100*time.Millisecond)
	v.SetDefault("agent.extraction", ExtractionLive)
	v.SetDefault("agent.seed_examples", true)
}

// NewViper returns a viper instance with defaults and environment binding.
// An empty cfgFile looks for ./config.yaml and tolerates its absence.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewDefaultConfig returns the defaults without reading files or the environment.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func (c *Config) Validate() error {
	var errs []error

	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is not set"))
	}
	switch c.LLM.Provider {
	case ProviderCompletion, ProviderChat:
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be %q or %q", ProviderCompletion, ProviderChat))
	}
	if c.LLM.Candidates < 1 {
		errs = append(errs, errors.New("llm.candidates must be a positive integer"))
	}
	if c.LLM.BestOf < c.LLM.Candidates {
		errs = append(errs, errors.New("llm.best_of must be greater than or equal to llm.candidates"))
	}
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, errors.New("llm.max_tokens must be a positive integer"))
	}
	if c.LLM.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("llm.requests_per_minute must not be negative"))
	}

	switch c.Browser.Engine {
	case EnginePlaywright, EngineChromedp:
	default:
		errs = append(errs, fmt.Errorf("browser.engine must be %q or %q", EnginePlaywright, EngineChromedp))
	}

	if c.Agent.ContextWindow < 1 || c.Agent.ContextWindow > MaxContextWindow {
		errs = append(errs, fmt.Errorf("agent.context_window must be between 1 and %d", MaxContextWindow))
	}
	if c.Agent.URLLimit < 1 || c.Agent.ContentLimit < 1 {
		errs = append(errs, errors.New("agent.url_limit and agent.content_limit must be positive"))
	}
	if c.Agent.IterationDelay < 0 || c.Agent.ClickTimeout <= 0 || c.Agent.TypeDelay < 0 {
		errs = append(errs, errors.New("agent timings must not be negative and click_timeout must be set"))
	}
	switch c.Agent.Extraction {
	case ExtractionLive, ExtractionStatic:
	default:
		errs = append(errs, fmt.Errorf("agent.extraction must be %q or %q", ExtractionLive, ExtractionStatic))
	}

	return errors.Join(errs...)
}
