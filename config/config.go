package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	ai "github.com/ncecere/recommendation-fn"
	"github.com/ncecere/recommendation-fn/cohere"
)

// EnvPrefix prefixes every environment override, e.g. RECOMMEND_SERVER_ADDR.
const EnvPrefix = "RECOMMEND"

// ErrMissingAPIKey is returned by Validate when no upstream credential
// could be resolved.
var ErrMissingAPIKey = errors.New("config: cohere api key is not set (RECOMMEND_COHERE_API_KEY, COHERE_API_KEY or cohere.api_key_file)")

// Config holds all application configuration. It is loaded once at
// startup and treated as read-only afterwards.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Cohere     CohereConfig     `mapstructure:"cohere"`
	Generation GenerationConfig `mapstructure:"generation"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	FunctionName    string        `mapstructure:"function_name"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type CohereConfig struct {
	APIKey     string `mapstructure:"api_key"`
	APIKeyFile string `mapstructure:"api_key_file"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
}

type GenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// CallSettings converts the generation section to ai.CallSettings.
func (g GenerationConfig) CallSettings() *ai.CallSettings {
	temperature := g.Temperature
	maxTokens := g.MaxTokens
	return &ai.CallSettings{Temperature: &temperature, MaxTokens: &maxTokens}
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.function_name", "getDoctorRecommendation")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("cohere.api_key", "")
	v.SetDefault("cohere.api_key_file", "")
	// Empty lets the client fall back to COHERE_BASE_URL, then its default.
	v.SetDefault("cohere.base_url", "")
	v.SetDefault("cohere.model", cohere.DefaultModel)

	v.SetDefault("generation.temperature", ai.DefaultTemperature)
	v.SetDefault("generation.max_tokens", ai.DefaultMaxTokens)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.service_name", "recommendation-fn")
	v.SetDefault("tracing.sample_rate", 1.0)
}

// Load reads configuration from defaults, an optional file and the
// environment, resolves the upstream credential and validates the result.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The provider's conventional variable is honored as a fallback.
	if err := v.BindEnv("cohere.api_key", EnvPrefix+"_COHERE_API_KEY", "COHERE_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveSecrets reads the API key file when no key was given directly.
func (c *Config) resolveSecrets() error {
	if c.Cohere.APIKey != "" || c.Cohere.APIKeyFile == "" {
		return nil
	}
	b, err := os.ReadFile(c.Cohere.APIKeyFile)
	if err != nil {
		return fmt.Errorf("reading cohere api key file: %w", err)
	}
	c.Cohere.APIKey = strings.TrimSpace(string(b))
	return nil
}

// Validate checks configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Cohere.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("config: server.addr is empty"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("config: server.shutdown_timeout %s must be positive", c.Server.ShutdownTimeout))
	}
	if c.Server.FunctionName == "" || strings.Contains(c.Server.FunctionName, "/") {
		errs = append(errs, fmt.Errorf("config: server.function_name %q is not a valid function name", c.Server.FunctionName))
	}
	if err := c.Generation.CallSettings().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: generation: %w", err))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("config: tracing.sample_rate %.2f is outside [0, 1]", c.Tracing.SampleRate))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("config: log.format %q must be json or text", c.Log.Format))
	}
	return errors.Join(errs...)
}
