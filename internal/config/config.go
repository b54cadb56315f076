// Package config loads codexplain settings from defaults, an optional YAML
// file, the environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/robottwo/codexplain/internal/explain"
	"github.com/robottwo/codexplain/internal/input"
	"github.com/robottwo/codexplain/internal/provider"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

const (
	// CredentialEnv holds the API key. Its presence selects the remote explainer.
	CredentialEnv = "OPENAI_API_KEY"
	// ConfigFileEnv overrides the config file location.
	ConfigFileEnv = "CODEXPLAIN_CONFIG"
	envPrefix     = "CODEXPLAIN_"
)

// Keys that may only come from a specific layer.
var (
	flagOnlyKeys = []string{"text", "file"}
	envSkipKeys  = []string{"config", "api_key", "text", "file"}
)

type Config struct {
	APIKey              string        `koanf:"api_key"`
	Provider            string        `koanf:"provider"`
	BaseURL             string        `koanf:"base_url"`
	Model               string        `koanf:"model"`
	Temperature         float32       `koanf:"temperature"`
	MaxTokens           int           `koanf:"max_tokens"`
	RateLimitWait       time.Duration `koanf:"rate_limit_wait"`
	MaxRateLimitRetries int           `koanf:"max_rate_limit_retries"`
	RequestTimeout      time.Duration `koanf:"request_timeout"`
	LogLevel            string        `koanf:"log_level"`
	LogFile             string        `koanf:"log_file"`

	Text string `koanf:"text"`
	File string `koanf:"file"`

	// FromFile is true when --file was given, even with an empty value.
	FromFile bool `koanf:"-"`
	// ConfigFile is the YAML file that was loaded, if any.
	ConfigFile string `koanf:"-"`
	// Headers are the provider's extra request headers.
	Headers map[string]string `koanf:"-"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"provider":               provider.DefaultID,
		"temperature":            explain.DefaultTemperature,
		"max_tokens":             explain.DefaultMaxTokens,
		"rate_limit_wait":        explain.DefaultRateLimitWait,
		"max_rate_limit_retries": explain.DefaultMaxRateLimitRetries,
		"request_timeout":        time.Duration(0),
		"log_level":              "info",
		"log_file":               "",
	}
}

// DefaultConfigFile returns the conventional config path, or "" when the
// user config directory cannot be determined.
func DefaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "codexplain", "config.yaml")
}

// findConfigFile picks the config file to load.
// Priority: explicit path > $CODEXPLAIN_CONFIG > default location if present.
// The bool reports whether the file must exist.
func findConfigFile(explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if fromEnv := os.Getenv(ConfigFileEnv); fromEnv != "" {
		return fromEnv, true
	}
	if candidate := DefaultConfigFile(); candidate != "" {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, false
		}
	}
	return "", false
}

// Load builds the configuration for one run.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFile, required := findConfigFile(cfgFile)
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil && required {
			return nil, fmt.Errorf("config file %s: %w", configFile, err)
		}
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		for _, key := range flagOnlyKeys {
			k.Delete(key)
		}
	}

	// 3. Environment. OPENAI_API_KEY carries the credential, CODEXPLAIN_* the rest.
	// Transform: CODEXPLAIN_MAX_TOKENS -> max_tokens
	if err := k.Load(env.ProviderWithValue(CredentialEnv, ".", func(key, value string) (string, interface{}) {
		if key != CredentialEnv {
			return "", nil
		}
		return "api_key", value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		if lo.Contains(envSkipKeys, key) {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FromFile = k.Exists("file")
	cfg.ConfigFile = configFile

	if err := cfg.applyProvider(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyProvider fills base_url and model from the provider preset unless
// they were set explicitly.
func (c *Config) applyProvider() error {
	p, err := provider.Lookup(c.Provider)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	c.Provider = p.ID
	if c.BaseURL == "" {
		c.BaseURL = p.BaseURL
	}
	if c.Model == "" {
		c.Model = p.DefaultModel
	}
	c.Headers = p.Headers
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	// go-openai omits a zero temperature from the request body.
	if c.Temperature <= 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be greater than 0 and at most 2, got %g", c.Temperature))
	}
	if c.MaxRateLimitRetries < 0 {
		errs = append(errs, fmt.Errorf("max_rate_limit_retries must not be negative, got %d", c.MaxRateLimitRetries))
	}
	if c.RateLimitWait < 0 {
		errs = append(errs, fmt.Errorf("rate_limit_wait must not be negative, got %s", c.RateLimitWait))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// HasCredential reports whether the remote explainer can be used.
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c *Config) Source() input.Source {
	return input.Source{
		Text:     c.Text,
		File:     c.File,
		FromFile: c.FromFile,
	}
}

func (c *Config) Remote(userAgent string) explain.RemoteConfig {
	return explain.RemoteConfig{
		APIKey:              c.APIKey,
		BaseURL:             c.BaseURL,
		Model:               c.Model,
		Temperature:         c.Temperature,
		MaxTokens:           c.MaxTokens,
		RateLimitWait:       c.RateLimitWait,
		MaxRateLimitRetries: c.MaxRateLimitRetries,
		RequestTimeout:      c.RequestTimeout,
		UserAgent:           userAgent,
		Headers:             c.Headers,
	}
}
