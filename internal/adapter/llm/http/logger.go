package http

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// ParseLogLevel maps a config string to a LogLevel; unknown values are info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// ParseLogFormat maps a config string to a LogFormat; default is human.
func ParseLogFormat(s string) LogFormat {
	if strings.EqualFold(s, "json") {
		return LogFormatJSON
	}
	return LogFormatHuman
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Provider    string
	Endpoint    string
	Timestamp   time.Time
	PromptChars int
	APIKey      string // Redacted to last 4 chars before output
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Provider   string
	Endpoint   string
	Timestamp  time.Time
	Duration   time.Duration
	StatusCode int
}

// Logger provides structured logging for provider API traffic.
type Logger interface {
	LogRequest(req RequestLog)
	LogResponse(resp ResponseLog)
	LogError(provider string, err error)
}

// DefaultLogger writes structured logs via the standard log package.
type DefaultLogger struct {
	level      LogLevel
	format     LogFormat
	redactKeys bool
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat, redactKeys bool) *DefaultLogger {
	return &DefaultLogger{level: level, format: format, redactKeys: redactKeys}
}

// LogRequest logs an outgoing API request. API keys are redacted.
func (l *DefaultLogger) LogRequest(req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}

	key := l.RedactAPIKey(req.APIKey)
	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"request","provider":"%s","endpoint":"%s","timestamp":"%s","prompt_chars":%d,"api_key":"%s"}`,
			req.Provider, req.Endpoint, req.Timestamp.Format(time.RFC3339), req.PromptChars, key)
	} else {
		log.Printf("[DEBUG] %s: request sent (endpoint=%s, prompt=%d chars, key=%s)",
			req.Provider, req.Endpoint, req.PromptChars, key)
	}
}

// LogResponse logs a provider response with timing information.
func (l *DefaultLogger) LogResponse(resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","type":"response","provider":"%s","endpoint":"%s","timestamp":"%s","duration_ms":%d,"status_code":%d}`,
			resp.Provider, resp.Endpoint, resp.Timestamp.Format(time.RFC3339), resp.Duration.Milliseconds(), resp.StatusCode)
	} else {
		log.Printf("[INFO] %s: response received (duration=%.1fs, status=%d)",
			resp.Provider, resp.Duration.Seconds(), resp.StatusCode)
	}
}

// LogError logs a provider error.
func (l *DefaultLogger) LogError(provider string, err error) {
	if l.level > LogLevelError {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"error","type":"error","provider":"%s","error":%q}`, provider, err.Error())
	} else {
		log.Printf("[ERROR] %s: %v", provider, err)
	}
}

// RedactAPIKey shows only the last 4 characters of an API key with explicit
// redaction markers.
func (l *DefaultLogger) RedactAPIKey(key string) string {
	if !l.redactKeys {
		return key
	}
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", key[len(key)-4:])
}
