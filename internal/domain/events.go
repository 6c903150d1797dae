package domain

// Session phases. Fetching and analyzing are only reachable from idle;
// completed and failed are terminal.
const (
	PhaseIdle      = "idle"
	PhaseFetching  = "fetching"
	PhaseAnalyzing = "analyzing"
	PhaseCompleted = "completed"
	PhaseFailed    = "failed"
)

// Log levels for session log events.
const (
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// ProgressEvent describes the current state of a running session.
// Transient: broadcast to subscribers, never stored.
type ProgressEvent struct {
	TotalFiles     int
	ProcessedFiles int
	CurrentFile    string
	Phase          string
	ErrorMessage   string
}

// LogEvent is a structured log line emitted during a session.
// Transient: broadcast to subscribers, never stored.
type LogEvent struct {
	Level   string
	Message string
	Detail  string
}
