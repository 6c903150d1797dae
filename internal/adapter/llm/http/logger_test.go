package http_test

import (
	"bytes"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jgardner/reviewflow/internal/adapter/llm/http"
)

func TestNewDefaultLogger(t *testing.T) {
	logger := http.NewDefaultLogger(http.LogLevelInfo, http.LogFormatHuman, true)
	assert.NotNil(t, logger)
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, http.LogFormatJSON, http.ParseLogFormat("json"))
	assert.Equal(t, http.LogFormatJSON, http.ParseLogFormat("JSON"))
	assert.Equal(t, http.LogFormatHuman, http.ParseLogFormat("human"))
	assert.Equal(t, http.LogFormatHuman, http.ParseLogFormat(""))
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestDefaultLogger_LogRequest(t *testing.T) {
	t.Run("debug level emits redacted key", func(t *testing.T) {
		buf := captureOutput(t)
		logger := http.NewDefaultLogger(http.LogLevelDebug, http.LogFormatHuman, true)
		logger.LogRequest(http.RequestLog{
			Provider:    "openai",
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Timestamp:   time.Now(),
			PromptChars: 1200,
			APIKey:      "sk-1234567890abcdef",
		})

		out := buf.String()
		assert.Contains(t, out, "[DEBUG]")
		assert.Contains(t, out, "openai")
		assert.Contains(t, out, "[REDACTED-cdef]")
		assert.NotContains(t, out, "sk-1234567890abcdef")
	})

	t.Run("info level suppresses requests", func(t *testing.T) {
		buf := captureOutput(t)
		logger := http.NewDefaultLogger(http.LogLevelInfo, http.LogFormatHuman, true)
		logger.LogRequest(http.RequestLog{Provider: "openai"})
		assert.Empty(t, buf.String())
	})
}

func TestDefaultLogger_LogResponse(t *testing.T) {
	buf := captureOutput(t)
	logger := http.NewDefaultLogger(http.LogLevelInfo, http.LogFormatJSON, true)
	logger.LogResponse(http.ResponseLog{
		Provider:   "anthropic",
		Endpoint:   "https://api.anthropic.com/v1/messages",
		Timestamp:  time.Now(),
		Duration:   1500 * time.Millisecond,
		StatusCode: 200,
	})

	out := buf.String()
	assert.Contains(t, out, `"type":"response"`)
	assert.Contains(t, out, `"duration_ms":1500`)
	assert.Contains(t, out, `"status_code":200`)
}

func TestDefaultLogger_LogError(t *testing.T) {
	buf := captureOutput(t)
	logger := http.NewDefaultLogger(http.LogLevelError, http.LogFormatHuman, true)
	logger.LogError("openai", errors.New("rate limit exceeded"))

	out := buf.String()
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "rate limit exceeded")
}
