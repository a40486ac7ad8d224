package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPPort    int    `envconfig:"HTTP_PORT" default:"8080"`
	DBPath      string `envconfig:"DB_PATH" default:"proposal-agent.db"`

	// OpenAI (default provider slot A)
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`

	// Anthropic (default provider slot B)
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5"`

	// Gemini (optional, selectable per slot)
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	// Ollama (optional, selectable per slot)
	OllamaHost  string `envconfig:"OLLAMA_HOST"`
	OllamaModel string `envconfig:"OLLAMA_MODEL" default:"llama3.1"`

	// Provider routing slots. Operations route chat/estimate to slot A and
	// execution/pm to slot B; each slot names a configured backend.
	ProviderA string `envconfig:"PROVIDER_A" default:"openai"`
	ProviderB string `envconfig:"PROVIDER_B" default:"anthropic"`

	// One uniform deadline injected per provider call at the orchestrator.
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"120s"`

	// Market research collaborator (optional — estimates degrade without it)
	ResearchBaseURL string        `envconfig:"RESEARCH_BASE_URL"`
	ResearchAPIKey  string        `envconfig:"RESEARCH_API_KEY"`
	ResearchTimeout time.Duration `envconfig:"RESEARCH_TIMEOUT" default:"30s"`

	// Optional YAML file overriding the built-in model price table.
	PricingFile string `envconfig:"PRICING_FILE"`
}

// OpenAIEnabled returns true if an OpenAI API key is configured.
func (c *Config) OpenAIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// AnthropicEnabled returns true if an Anthropic API key is configured.
func (c *Config) AnthropicEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// GeminiEnabled returns true if a Gemini API key is configured.
func (c *Config) GeminiEnabled() bool {
	return c.GeminiAPIKey != ""
}

// OllamaEnabled returns true if an Ollama host is configured.
func (c *Config) OllamaEnabled() bool {
	return c.OllamaHost != ""
}

// ResearchEnabled returns true if the research collaborator is configured.
func (c *Config) ResearchEnabled() bool {
	return c.ResearchBaseURL != ""
}

// Validate checks that the routing slots name known provider backends.
func (c *Config) Validate() error {
	for _, slot := range []string{c.ProviderA, c.ProviderB} {
		switch strings.ToLower(slot) {
		case "openai", "anthropic", "gemini", "ollama":
		default:
			return fmt.Errorf("unknown provider %q in routing slot", slot)
		}
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
