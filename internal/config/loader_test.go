package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvString(t *testing.T) {
	os.Setenv("TEST_API_KEY", "secret-key-123")
	os.Setenv("TEST_ENDPOINT", "https://llm.internal")
	defer os.Unsetenv("TEST_API_KEY")
	defer os.Unsetenv("TEST_ENDPOINT")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "expand ${VAR} syntax",
			input:    "${TEST_API_KEY}",
			expected: "secret-key-123",
		},
		{
			name:     "expand $VAR syntax",
			input:    "$TEST_API_KEY",
			expected: "secret-key-123",
		},
		{
			name:     "expand in middle of string",
			input:    "${TEST_ENDPOINT}/v1/chat/completions",
			expected: "https://llm.internal/v1/chat/completions",
		},
		{
			name:     "leave non-existent var unchanged",
			input:    "${NONEXISTENT_VAR}",
			expected: "${NONEXISTENT_VAR}",
		},
		{
			name:     "handle empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "handle string without variables",
			input:    "plain-text",
			expected: "plain-text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvString(tt.input))
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "direct", cfg.Connection.Mode)
	assert.Equal(t, "60s", cfg.HTTP.Timeout)
	assert.Equal(t, "500ms", cfg.Session.PacingDelay)
	assert.Equal(t, 20, cfg.Source.MaxFiles)
	assert.True(t, cfg.Observability.Logging.RedactAPIKeys)

	openai, ok := cfg.Providers["openai"]
	require.True(t, ok)
	assert.Equal(t, "chat-completions", openai.WireFormat)
	assert.False(t, openai.Enabled)

	anthropic, ok := cfg.Providers["anthropic"]
	require.True(t, ok)
	assert.Equal(t, "messages", anthropic.WireFormat)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
provider: openai
providers:
  openai:
    enabled: true
    apiKey: ${TEST_LOADER_KEY}
    endpoints:
      - https://proxy.example.com/v1/chat/completions
connection:
  mode: auto
  proxyEndpoint: https://relay.example.com
session:
  pacingDelay: 2s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewflow.yaml"), []byte(yaml), 0o600))

	os.Setenv("TEST_LOADER_KEY", "sk-test-value")
	defer os.Unsetenv("TEST_LOADER_KEY")

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "auto", cfg.Connection.Mode)
	assert.Equal(t, "https://relay.example.com", cfg.Connection.ProxyEndpoint)
	assert.Equal(t, "2s", cfg.Session.PacingDelay)

	openai := cfg.Providers["openai"]
	assert.True(t, openai.Enabled)
	assert.Equal(t, "sk-test-value", openai.APIKey)
	assert.Equal(t, []string{"https://proxy.example.com/v1/chat/completions"}, openai.Endpoints)
}

func TestLoadLocalOverride(t *testing.T) {
	dir := t.TempDir()
	base := `
provider: openai
providers:
  openai:
    enabled: true
    model: gpt-4o
session:
  pacingDelay: 2s
`
	local := `
providers:
  openai:
    apiKey: sk-local-only
connection:
  mode: proxy
  proxyEndpoint: https://relay.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewflow.yaml"), []byte(base), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewflow.local.yaml"), []byte(local), 0o600))

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	// Override wins where set, base survives everywhere else.
	assert.Equal(t, "proxy", cfg.Connection.Mode)
	assert.Equal(t, "https://relay.example.com", cfg.Connection.ProxyEndpoint)
	assert.Equal(t, "2s", cfg.Session.PacingDelay)

	openai := cfg.Providers["openai"]
	assert.True(t, openai.Enabled)
	assert.Equal(t, "gpt-4o", openai.Model)
	assert.Equal(t, "sk-local-only", openai.APIKey)
}
