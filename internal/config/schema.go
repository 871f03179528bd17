package config

import (
	"time"
)

// Config holds bestiary configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Defra        DefraConfig               `mapstructure:"defra" yaml:"defra"`
	Enrich       EnrichConfig              `mapstructure:"enrich" yaml:"enrich"`
	Import       ImportConfig              `mapstructure:"import" yaml:"import"`
}

// LLMProviderCfg configures a text-generation provider.
type LLMProviderCfg struct {
	Type    string        `mapstructure:"type" yaml:"type"`         // "openai", "gemini", "mock"
	Model   string        `mapstructure:"model" yaml:"model"`       // Model name
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"`   // API key (supports ${ENV_VAR} syntax)
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"` // Override endpoint (OpenAI-compatible only)
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"`
}

// DefraConfig holds DefraDB connection and container configuration.
type DefraConfig struct {
	URL           string `mapstructure:"url" yaml:"url"`
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	Image         string `mapstructure:"image" yaml:"image"`
	// Port is the host port the container binds.
	Port string `mapstructure:"port" yaml:"port"`
}

// EnrichConfig tunes the region enrichment run.
type EnrichConfig struct {
	RegionsFile    string        `mapstructure:"regions_file" yaml:"regions_file"`
	Delay          time.Duration `mapstructure:"delay" yaml:"delay"`
	MaxTokens      int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature    float64       `mapstructure:"temperature" yaml:"temperature"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	Sentinel       string        `mapstructure:"sentinel" yaml:"sentinel"`
}

// ImportConfig configures the dnd5e bulk import.
type ImportConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Limit     int    `mapstructure:"limit" yaml:"limit"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size"`
}

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	dnd5eEndpoint     = "https://www.dnd5eapi.co/graphql"
)

// defaultValues returns every default as a flat dotted key. Keys are
// registered individually so a config file that sets one field of a section
// keeps the defaults of its siblings.
func defaultValues(regionsFile string) map[string]any {
	return map[string]any{
		"llm_providers.openrouter.type":     "openai",
		"llm_providers.openrouter.model":    "anthropic/claude-haiku-4.5",
		"llm_providers.openrouter.api_key":  "${OPENROUTER_API_KEY}",
		"llm_providers.openrouter.base_url": openRouterBaseURL,
		"llm_providers.openrouter.timeout":  60 * time.Second,
		"llm_providers.openrouter.enabled":  true,

		"llm_providers.openai.type":    "openai",
		"llm_providers.openai.model":   "gpt-4o-mini",
		"llm_providers.openai.api_key": "${OPENAI_API_KEY}",
		"llm_providers.openai.timeout": 60 * time.Second,
		"llm_providers.openai.enabled": true,

		"llm_providers.gemini.type":    "gemini",
		"llm_providers.gemini.model":   "gemini-2.0-flash",
		"llm_providers.gemini.api_key": "${GEMINI_API_KEY}",
		"llm_providers.gemini.timeout": 60 * time.Second,
		"llm_providers.gemini.enabled": true,

		"defaults.llm_provider": "openrouter",

		"defra.url":            "http://localhost:9182",
		"defra.container_name": "bestiary-defra",
		"defra.image":          "sourcenetwork/defradb:latest",
		"defra.port":           "9182",

		"enrich.regions_file":    regionsFile,
		"enrich.delay":           30 * time.Second,
		"enrich.max_tokens":      300,
		"enrich.temperature":     0.1,
		"enrich.request_timeout": 60 * time.Second,
		"enrich.sentinel":        "Unknown",

		"import.endpoint":   dnd5eEndpoint,
		"import.limit":      500,
		"import.batch_size": 100,
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
