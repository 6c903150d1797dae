package observability

import (
	"log"
	"time"

	llmhttp "github.com/jgardner/reviewflow/internal/adapter/llm/http"
	"github.com/jgardner/reviewflow/internal/domain"
)

// SessionLogger renders orchestrator log events with the same leveled,
// structured output used for provider API traffic. Subscribe its Log
// method to a session's log events.
type SessionLogger struct {
	level  llmhttp.LogLevel
	format llmhttp.LogFormat
}

// NewSessionLogger creates a session event logger.
func NewSessionLogger(level llmhttp.LogLevel, format llmhttp.LogFormat) *SessionLogger {
	return &SessionLogger{level: level, format: format}
}

// Log writes one session event. Warnings are gated at info verbosity.
func (l *SessionLogger) Log(event domain.LogEvent) {
	threshold := llmhttp.LogLevelInfo
	if event.Level == domain.LogLevelError {
		threshold = llmhttp.LogLevelError
	}
	if l.level > threshold {
		return
	}

	if l.format == llmhttp.LogFormatJSON {
		log.Printf(`{"level":"%s","type":"session","timestamp":"%s","message":%q,"detail":%q}`,
			event.Level, time.Now().Format(time.RFC3339), event.Message, event.Detail)
		return
	}

	tag := humanTag(event.Level)
	if event.Detail != "" {
		log.Printf("%s session: %s (%s)", tag, event.Message, event.Detail)
		return
	}
	log.Printf("%s session: %s", tag, event.Message)
}

func humanTag(level string) string {
	switch level {
	case domain.LogLevelWarning:
		return "[WARN]"
	case domain.LogLevelError:
		return "[ERROR]"
	default:
		return "[INFO]"
	}
}
