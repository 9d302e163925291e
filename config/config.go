// Package config loads the run configuration of devcrew.
//
// Sources are applied in order, later ones winning:
//
//  1. built-in defaults
//  2. an optional YAML or TOML file (by extension); ${VAR} references are
//     expanded from the environment
//  3. DEVCREW_* environment variables
//
// A .env file is loaded into the process environment first without
// overriding variables that are already set, so it feeds both 2 and 3.
// The resulting Config is validated once and treated as read-only afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultBaseURL is the OpenAI compatible endpoint of the Gemini API.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// DefaultAnthropicModel replaces DefaultModel when the provider is anthropic
// and no model is configured.
const DefaultAnthropicModel = "claude-3-5-sonnet-20241022"

// DefaultModelFor returns the model used for provider when none is configured.
func DefaultModelFor(provider string) string {
	if provider == ProviderAnthropic {
		return DefaultAnthropicModel
	}
	return DefaultModel
}

// Config is the explicit run configuration handed to the crew and runner.
type Config struct {
	Provider      string       `yaml:"provider" toml:"provider" validate:"required,oneof=openai anthropic gemini"`
	Model         string       `yaml:"model" toml:"model" validate:"required"`
	BaseURL       string       `yaml:"base_url" toml:"base_url" validate:"omitempty,url"`
	APIKey        string       `yaml:"api_key" toml:"api_key"`
	Temperature   float64      `yaml:"temperature" toml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens     int64        `yaml:"max_tokens" toml:"max_tokens" validate:"gte=0"`
	MaxModelCalls int          `yaml:"max_model_calls" toml:"max_model_calls" validate:"gte=1,lte=1000"`
	Timeout       Duration     `yaml:"timeout" toml:"timeout"`
	Streaming     bool         `yaml:"streaming" toml:"streaming"`
	Server        ServerConfig `yaml:"server" toml:"server"`
	Log           LogConfig    `yaml:"log" toml:"log"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr         string   `yaml:"addr" toml:"addr" validate:"required,hostname_port"`
	AllowOrigins []string `yaml:"allow_origins" toml:"allow_origins"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" toml:"format" validate:"oneof=text json"`
}

// Duration is a time.Duration written as a Go duration string ("90s", "2m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration: Gemini through its OpenAI
// compatible endpoint.
func Default() *Config {
	return &Config{
		Provider:      ProviderOpenAI,
		Model:         DefaultModel,
		BaseURL:       DefaultBaseURL,
		Temperature:   0.7,
		MaxModelCalls: 25,
		Timeout:       Duration{2 * time.Minute},
		Server:        ServerConfig{Addr: ":8080"},
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// LoadOptions tunes Load.
type LoadOptions struct {
	// EnvFile is the dotenv file loaded before anything else. Empty disables it.
	EnvFile string
	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string
}

// Load builds a validated Config. An empty path skips the config file. When
// no source sets a model, the provider's default model is used.
func Load(path string, optFns ...func(o *LoadOptions)) (*Config, error) {
	opts := LoadOptions{EnvFile: ".env", Getenv: os.Getenv}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.EnvFile != "" {
		if err := loadDotEnv(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("config: load env file: %w", err)
		}
	}

	cfg := Default()
	cfg.Model = ""

	if path != "" {
		if err := cfg.mergeFile(path, opts.Getenv); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(opts.Getenv); err != nil {
		return nil, err
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModelFor(cfg.Provider)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = apiKeyFromEnv(cfg.Provider, opts.Getenv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Config) mergeFile(path string, getenv func(string) string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := []byte(os.Expand(string(data), getenv))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(expanded, c)
	default:
		err = yaml.Unmarshal(expanded, c)
	}
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := map[string]*string{
		"DEVCREW_PROVIDER":   &c.Provider,
		"DEVCREW_MODEL":      &c.Model,
		"DEVCREW_BASE_URL":   &c.BaseURL,
		"DEVCREW_API_KEY":    &c.APIKey,
		"DEVCREW_ADDR":       &c.Server.Addr,
		"DEVCREW_LOG_LEVEL":  &c.Log.Level,
		"DEVCREW_LOG_FORMAT": &c.Log.Format,
	}
	for key, dst := range str {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if v := getenv("DEVCREW_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: DEVCREW_TEMPERATURE: %w", err)
		}
		c.Temperature = f
	}

	if v := getenv("DEVCREW_MAX_TOKENS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: DEVCREW_MAX_TOKENS: %w", err)
		}
		c.MaxTokens = n
	}

	if v := getenv("DEVCREW_MAX_MODEL_CALLS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: DEVCREW_MAX_MODEL_CALLS: %w", err)
		}
		c.MaxModelCalls = n
	}

	if v := getenv("DEVCREW_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: DEVCREW_TIMEOUT: %w", err)
		}
		c.Timeout = Duration{d}
	}

	if v := getenv("DEVCREW_STREAMING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: DEVCREW_STREAMING: %w", err)
		}
		c.Streaming = b
	}

	if v := getenv("DEVCREW_ALLOW_ORIGINS"); v != "" {
		c.Server.AllowOrigins = splitList(v)
	}

	return nil
}

// apiKeyFromEnv returns the provider specific credential. The key is not
// required here; a missing key surfaces when the model is first called.
func apiKeyFromEnv(provider string, getenv func(string) string) string {
	var keys []string
	switch provider {
	case ProviderAnthropic:
		keys = []string{"ANTHROPIC_API_KEY"}
	case ProviderGemini:
		keys = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		keys = []string{"GEMINI_API_KEY", "OPENAI_API_KEY"}
	}
	for _, k := range keys {
		if v := getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if c.Timeout.Duration < 0 {
		return errors.New("config: invalid: Config.Timeout must not be negative")
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}
