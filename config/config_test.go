package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/ncecere/recommendation-fn"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"COHERE_API_KEY",
		"RECOMMEND_COHERE_API_KEY",
		"RECOMMEND_COHERE_API_KEY_FILE",
		"RECOMMEND_COHERE_BASE_URL",
		"RECOMMEND_SERVER_ADDR",
		"RECOMMEND_SERVER_SHUTDOWN_TIMEOUT",
		"RECOMMEND_GENERATION_TEMPERATURE",
		"RECOMMEND_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultsWithEnvKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("COHERE_API_KEY", "from-provider-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "getDoctorRecommendation", cfg.Server.FunctionName)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "from-provider-env", cfg.Cohere.APIKey)
	assert.Empty(t, cfg.Cohere.BaseURL, "left empty so the client resolves COHERE_BASE_URL")
	assert.Equal(t, "command", cfg.Cohere.Model)
	assert.InDelta(t, ai.DefaultTemperature, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, ai.DefaultMaxTokens, cfg.Generation.MaxTokens)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Tracing.Endpoint)
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("COHERE_API_KEY", "fallback")
	t.Setenv("RECOMMEND_COHERE_API_KEY", "primary")
	t.Setenv("RECOMMEND_SERVER_ADDR", "127.0.0.1:9000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Cohere.APIKey)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestLoad_FileAndKeyFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	keyFile := filepath.Join(dir, "cohere.key")
	require.NoError(t, os.WriteFile(keyFile, []byte("file-key\n"), 0o600))

	cfgFile := filepath.Join(dir, "recommend.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
server:
  addr: ":9090"
cohere:
  api_key_file: `+keyFile+`
  model: command-light
generation:
  temperature: 0.3
  max_tokens: 120
log:
  format: text
`), 0o600))

	cfg, err := Load(cfgFile)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "file-key", cfg.Cohere.APIKey)
	assert.Equal(t, "command-light", cfg.Cohere.Model)
	assert.InDelta(t, 0.3, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, 120, cfg.Generation.MaxTokens)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_MissingKey(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoad_NonPositiveShutdownTimeout(t *testing.T) {
	for _, value := range []string{"0s", "-1s"} {
		t.Run(value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("COHERE_API_KEY", "k")
			t.Setenv("RECOMMEND_SERVER_SHUTDOWN_TIMEOUT", value)

			_, err := Load("")
			assert.ErrorContains(t, err, "server.shutdown_timeout")
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("COHERE_API_KEY", "k")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading config")
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := Config{
		Server:     ServerConfig{Addr: "", FunctionName: "a/b"},
		Generation: GenerationConfig{Temperature: 3, MaxTokens: 300},
		Log:        LogConfig{Format: "xml"},
		Tracing:    TracingConfig{SampleRate: 2},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	var argErr *ai.InvalidArgumentError
	assert.ErrorAs(t, err, &argErr)
	for _, want := range []string{"server.addr", "server.shutdown_timeout", "function_name", "sample_rate", "log.format"} {
		assert.Contains(t, err.Error(), want)
	}
}
