package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/bestiary/internal/providers"
)

// EnvPrefix is prepended to environment overrides, e.g. BESTIARY_ENRICH_DELAY.
const EnvPrefix = "BESTIARY"

var (
	// ErrProviderNotConfigured is returned when no llm_providers entry exists
	// for the requested name.
	ErrProviderNotConfigured = errors.New("llm provider not configured")

	// ErrProviderDisabled is returned when the requested provider has enabled: false.
	ErrProviderDisabled = errors.New("llm provider disabled")
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Manager loads configuration and optionally reloads it when the file changes.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a config manager and loads the initial config.
// cfgFile may be empty, in which case config.yaml is searched for in the
// working directory and then homeDir. A missing file is not an error.
func NewManager(cfgFile, homeDir string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile, homeDir); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

func (cm *Manager) initViper(cfgFile, homeDir string) error {
	for key, value := range defaultValues(filepath.Join(homeDir, "regions.json")) {
		cm.v.SetDefault(key, value)
	}

	cm.v.SetEnvPrefix(EnvPrefix)
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("config")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		if homeDir != "" {
			cm.v.AddConfigPath(homeDir)
		}
	}

	if err := cm.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ConfigFile returns the path of the config file in use, or "" when running
// on defaults and environment only.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig reloads the configuration whenever the config file changes and
// notifies OnChange callbacks. No-op when no config file was loaded.
func (cm *Manager) WatchConfig() {
	if cm.v.ConfigFileUsed() == "" {
		return
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		// viper keeps its previous values when the file fails to parse and
		// still fires this hook, so re-read to surface the error.
		if err := cm.v.ReadInConfig(); err != nil {
			slog.Warn("config reload failed, keeping previous config", "path", e.Name, "error", err)
			return
		}
		cfg, err := cm.load()
		if err != nil {
			slog.Warn("config reload failed, keeping previous config", "path", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// ToProviderConfig resolves the named provider (the default provider when
// name is empty) into the form providers.NewClient accepts.
func (c *Config) ToProviderConfig(name string) (providers.LLMProviderConfig, error) {
	if name == "" {
		name = c.Defaults.LLMProvider
	}
	llm, ok := c.GetLLMProvider(name)
	if !ok {
		return providers.LLMProviderConfig{}, fmt.Errorf("%w: %q (enabled: %s)", ErrProviderNotConfigured, name, c.enabledNames())
	}
	if !llm.Enabled {
		return providers.LLMProviderConfig{}, fmt.Errorf("%w: %q (enabled: %s)", ErrProviderDisabled, name, c.enabledNames())
	}

	return providers.LLMProviderConfig{
		Name:    name,
		Type:    llm.Type,
		Model:   llm.Model,
		APIKey:  ResolveEnvVars(llm.APIKey),
		BaseURL: llm.BaseURL,
		Timeout: llm.Timeout,
	}, nil
}

func (c *Config) enabledNames() string {
	enabled := c.EnabledLLMProviders()
	if len(enabled) == 0 {
		return "none"
	}
	names := make([]string, 0, len(enabled))
	for name := range enabled {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path, homeDir string) error {
	data, err := yaml.Marshal(nest(defaultValues(filepath.Join(homeDir, "regions.json"))))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# bestiary configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell or a .env file: OPENROUTER_API_KEY=xxx OPENAI_API_KEY=xxx GEMINI_API_KEY=xxx
# Any key can be overridden from the environment, e.g. BESTIARY_ENRICH_DELAY=10s

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}

// nest turns flat dotted keys into nested yaml maps. Durations are written in
// their string form so the file round-trips through viper.
func nest(flat map[string]any) yaml.MapSlice {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := yaml.MapSlice{}
	for _, k := range keys {
		value := flat[k]
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		root = insert(root, strings.Split(k, "."), value)
	}
	return root
}

func insert(m yaml.MapSlice, path []string, value any) yaml.MapSlice {
	if len(path) == 1 {
		return append(m, yaml.MapItem{Key: path[0], Value: value})
	}
	for i, item := range m {
		if item.Key == path[0] {
			child, _ := item.Value.(yaml.MapSlice)
			m[i].Value = insert(child, path[1:], value)
			return m
		}
	}
	return append(m, yaml.MapItem{Key: path[0], Value: insert(yaml.MapSlice{}, path[1:], value)})
}
