package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath     = "config.toml"
	DefaultHTTPAddr       = ":8080"
	DefaultBodyLimit      = "64M"
	DefaultChatProvider   = "openai"
	DefaultChatModel      = "gpt-4o"
	DefaultChatTimeout    = 60
	DefaultConvertTimeout = 60
)

type Config struct {
	Log        LogConfig        `toml:"log" yaml:"log"`
	Server     ServerConfig     `toml:"server" yaml:"server"`
	Chat       ChatConfig       `toml:"chat" yaml:"chat"`
	Conversion ConversionConfig `toml:"conversion" yaml:"conversion"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

type ServerConfig struct {
	Addr        string   `toml:"addr" yaml:"addr"`
	BodyLimit   string   `toml:"body_limit" yaml:"body_limit"`
	CORSOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
}

type ChatConfig struct {
	Provider       string `toml:"provider" yaml:"provider"`
	BaseURL        string `toml:"base_url" yaml:"base_url"`
	APIKey         string `toml:"api_key" yaml:"api_key"`
	Model          string `toml:"model" yaml:"model"`
	SystemPrompt   string `toml:"system_prompt" yaml:"system_prompt"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// ConversionConfig bounds PDF attachment conversion. Zero values mean
// unbounded.
type ConversionConfig struct {
	MaxConcurrency   int   `toml:"max_concurrency" yaml:"max_concurrency"`
	TimeoutSeconds   int   `toml:"timeout_seconds" yaml:"timeout_seconds"`
	MaxDocumentBytes int64 `toml:"max_document_bytes" yaml:"max_document_bytes"`
}

func (c ConversionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:      DefaultHTTPAddr,
			BodyLimit: DefaultBodyLimit,
		},
		Chat: ChatConfig{
			Provider:       DefaultChatProvider,
			Model:          DefaultChatModel,
			TimeoutSeconds: DefaultChatTimeout,
		},
		Conversion: ConversionConfig{
			TimeoutSeconds: DefaultConvertTimeout,
		},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
// Files ending in .yaml or .yml are decoded as YAML, anything else as TOML.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv fills an empty API key from the provider's conventional variable.
// Ollama needs none.
func applyEnv(cfg *Config) {
	if strings.TrimSpace(cfg.Chat.APIKey) != "" {
		return
	}
	switch strings.ToLower(cfg.Chat.Provider) {
	case "google":
		cfg.Chat.APIKey = os.Getenv("GEMINI_API_KEY")
	case "anthropic":
		cfg.Chat.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "ollama":
	default:
		cfg.Chat.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(strings.TrimSpace(c.Chat.Provider)) {
	case "openai", "google", "anthropic", "ollama":
	default:
		errs = append(errs, fmt.Errorf("chat.provider: unknown provider %q", c.Chat.Provider))
	}
	if strings.TrimSpace(c.Chat.Model) == "" {
		errs = append(errs, errors.New("chat.model is required"))
	}
	if c.Chat.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("chat.timeout_seconds must not be negative"))
	}
	if c.Conversion.MaxConcurrency < 0 {
		errs = append(errs, errors.New("conversion.max_concurrency must not be negative"))
	}
	if c.Conversion.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("conversion.timeout_seconds must not be negative"))
	}
	if c.Conversion.MaxDocumentBytes < 0 {
		errs = append(errs, errors.New("conversion.max_document_bytes must not be negative"))
	}
	return errors.Join(errs...)
}
