package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration.
type Config struct {
	ServerAddr       string    `yaml:"server_addr"`
	SuggestionMarker *string   `yaml:"suggestion_marker"`
	LLM              LLMConfig `yaml:"llm"`
	Log              LogConfig `yaml:"log"`
	DB               DBConfig  `yaml:"db"`
}

// LLMConfig selects and tunes the generative backend.
type LLMConfig struct {
	Provider        string  `yaml:"provider"`
	Model           string  `yaml:"model"`
	APIKey          string  `yaml:"api_key"`
	APIKeyEnv       string  `yaml:"api_key_env"`
	BaseURL         string  `yaml:"base_url"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Temperature     float64 `yaml:"temperature"`
	TopP            float64 `yaml:"top_p"`
	TopK            int     `yaml:"top_k"`
	// RPM caps backend calls per minute; 0 disables limiting.
	RPM   int `yaml:"rpm"`
	Burst int `yaml:"burst"`
}

// LogConfig sets the log level and an optional log file.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DBConfig chooses the review store. Driver is "memory" or "postgres".
type DBConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

var defaultKeyEnv = map[string]string{
	"gemini":   "GEMINI_API_KEY",
	"openai":   "OPENAI_API_KEY",
	"deepseek": "DEEPSEEK_API_KEY",
}

var defaultModel = map[string]string{
	"gemini":   "gemini-2.5-flash",
	"openai":   "gpt-4o-mini",
	"deepseek": "deepseek-chat",
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ServerAddr: ":8080",
		LLM: LLMConfig{
			Provider:        "gemini",
			MaxOutputTokens: 1024,
			Temperature:     0.3,
			TopP:            0.8,
			TopK:            40,
		},
		Log: LogConfig{Level: "info"},
		DB:  DBConfig{Driver: "memory"},
	}
}

// Load reads a YAML file over the defaults, then resolves secrets from the environment.
// A .env file in the working directory is loaded first if present. An empty path skips the file.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	// Model defaults follow the provider chosen by the file, not the built-in one.
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel[cfg.LLM.Provider]
	}
	if cfg.LLM.APIKey == "" {
		env := cfg.LLM.APIKeyEnv
		if env == "" {
			env = defaultKeyEnv[cfg.LLM.Provider]
		}
		if env != "" {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "openai", "deepseek", "mock":
	case "":
		return errors.New("llm.provider is required")
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	if c.LLM.Provider == "deepseek" && c.LLM.BaseURL == "" {
		return errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
	}
	if c.LLM.RPM < 0 || c.LLM.Burst < 0 {
		return errors.New("llm.rpm and llm.burst must not be negative")
	}
	switch c.DB.Driver {
	case "", "memory":
	case "postgres":
		if c.DB.DSN == "" {
			return errors.New("db.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("db driver %s not supported", c.DB.Driver)
	}
	return nil
}

// Marker returns the configured suggestion suffix, or def when unset.
func (c Config) Marker(def string) string {
	if c.SuggestionMarker == nil {
		return def
	}
	return *c.SuggestionMarker
}
