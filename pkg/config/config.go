package config

import (
	"fmt"
	"os"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// Config defines the global application configuration structure.
// It maps directly to the config.json file and holds business-level
// settings: the HTTP server, the LLM provider groups and the coach persona.
type Config struct {
	// Server holds the HTTP listener settings.
	Server ServerConfig `json:"server"`
	// LLM holds the provider group configuration for the coach model in
	// raw JSON. Multiple groups act as ordered fallbacks.
	LLM jsoniter.RawMessage `json:"llm"`
	// UtilityLLM optionally configures a cheaper model used by sub-agents
	// and guardrail classifiers. Falls back to LLM when empty.
	UtilityLLM jsoniter.RawMessage `json:"utility_llm"`
	// DefaultMentorName is used when the mentor row carries no first name.
	DefaultMentorName string `json:"default_mentor_name"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Port int `json:"port"`
	// AllowedOrigins lists CORS origins; "*" allows every origin, which is
	// the deployment default since the UI is served from a separate host.
	AllowedOrigins []string `json:"allowed_origins"`
}

// SecretConfig carries credentials read from the environment, never from
// config.json. A .env file in the working directory is honored. Provider API
// keys (OPENAI_API_KEY, GEMINI_API_KEY) are not duplicated here: the provider
// factories read them when no key is configured in the provider group.
type SecretConfig struct {
	SupabaseURL string
	SupabaseKey string
}

// Validate ensures the configuration structure contains all mandatory fields.
// It acts as a primary guard before the system proceeds to initialization.
func (c *Config) Validate() error {
	if len(c.LLM) == 0 {
		return fmt.Errorf("mandatory 'llm' configuration is missing or empty")
	}
	return nil
}

// SystemConfig defines engine-level technical parameters.
// These settings are usually stored in system.json and control the
// reliability and technical behavior of the agent runtime.
type SystemConfig struct {
	// MaxTurns bounds the reasoning loop: one turn is one LLM round trip,
	// tool execution included. Protects against model loops.
	MaxTurns int `json:"max_turns"`
	// MaxRetries is the number of times the runtime will attempt to
	// recover from a transient LLM or network error before giving up.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs is the duration to wait (in milliseconds) between
	// consecutive retry attempts.
	RetryDelayMs int `json:"retry_delay_ms"`
	// LLMTimeoutMs is the hard cutoff time (in milliseconds) for a single
	// LLM request. The context will be cancelled if exceeded.
	LLMTimeoutMs int `json:"llm_timeout_ms"`
	// DelegateTimeoutMs bounds one sub-agent run inside a delegate tool.
	DelegateTimeoutMs int `json:"delegate_timeout_ms"`
	// HistoryWindow is the number of prior conversation turns kept when a
	// request arrives with a long history.
	HistoryWindow int `json:"history_window"`
	// EnableGuardrails toggles the safety and language classifiers.
	EnableGuardrails bool `json:"enable_guardrails"`
	// OllamaDefaultURL is the fallback endpoint used when connecting
	// to a local Ollama instance if no specific URL is provided.
	OllamaDefaultURL string `json:"ollama_default_url"`
	// LogLevel sets the minimum severity for log output.
	// Accepted values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `json:"log_level"`
}

// DefaultSystemConfig returns a SystemConfig pointer initialized with hardcoded
// safe default values. This is used as a fallback when the system.json file
// is missing or corrupt, ensuring the service can always start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		MaxTurns:          8,
		MaxRetries:        3,
		RetryDelayMs:      500,
		LLMTimeoutMs:      90000,
		DelegateTimeoutMs: 45000,
		HistoryWindow:     20,
		EnableGuardrails:  true,
		OllamaDefaultURL:  "http://localhost:11434",
		LogLevel:          "info",
	}
}

// Load reads and parses the JSON configuration files from the given path.
// It first attempts to load the app config; if the file is missing it returns
// an error. Then it calls LoadSystemConfig to load 'system.json'.
func Load(appPath string) (*Config, *SystemConfig, error) {
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file '%s' not found. please create one", appPath)
	}

	appFile, err := os.ReadFile(appPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(appFile, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	applyDefaults(&cfg)

	sysCfg := LoadSystemConfig("system.json")

	return &cfg, sysCfg, nil
}

// LoadSystemConfig attempts to load system settings, returns defaults if it fails.
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg // File not found, use defaults
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg // Parse failed, use defaults
	}

	return cfg
}

// LoadSecrets reads credentials from the environment. PORT overrides the
// configured listener port when set, since hosting platforms inject it.
func LoadSecrets(cfg *Config) (*SecretConfig, error) {
	sec := &SecretConfig{
		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_SERVICE_KEY"),
	}

	if sec.SupabaseURL == "" || sec.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT value %q: %w", portStr, err)
		}
		cfg.Server.Port = port
	}

	return sec, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.DefaultMentorName == "" {
		cfg.DefaultMentorName = "Majen"
	}
}
