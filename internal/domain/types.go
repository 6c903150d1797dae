package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Finding kinds, ordered by severity.
const (
	KindError   = "error"
	KindWarning = "warning"
	KindInfo    = "info"
	KindStyle   = "style"
)

// Finding categories.
const (
	CategorySecurity        = "security"
	CategoryPerformance     = "performance"
	CategoryMaintainability = "maintainability"
	CategoryReadability     = "readability"
	CategoryBestPractices   = "best-practices"
)

// Finding represents a single issue reported against a file.
// Findings are immutable once created.
type Finding struct {
	Line         int      `json:"line"`
	Column       int      `json:"column,omitempty"`
	Kind         string   `json:"kind"`
	Category     string   `json:"category"`
	Message      string   `json:"message"`
	Suggestion   string   `json:"suggestion"`
	SourceLine   string   `json:"sourceLine"`
	ContextLines []string `json:"contextLines"`
}

// FileReview holds the combined findings for one analyzed file.
// Created once per file, never mutated afterwards.
type FileReview struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
	Note     string    `json:"note,omitempty"`
}

// Summary aggregates finding counts across a session.
// Tallies omit unseen keys rather than zero-filling them.
type Summary struct {
	TotalFiles         int            `json:"totalFiles"`
	TotalFindings      int            `json:"totalFindings"`
	FindingsByKind     map[string]int `json:"findingsByKind"`
	FindingsByCategory map[string]int `json:"findingsByCategory"`
	FilesWithFindings  int            `json:"filesWithFindings"`
}

// SessionResult is the outcome of one complete review session.
// Owned exclusively by the orchestrator until returned to the caller.
type SessionResult struct {
	SessionID      string       `json:"sessionId"`
	RepositoryRef  string       `json:"repositoryRef"`
	BranchRef      string       `json:"branchRef"`
	ComplianceText string       `json:"complianceText"`
	Reviews        []FileReview `json:"reviews"`
	Summary        Summary      `json:"summary"`
	StartedAt      time.Time    `json:"startedAt"`
	FinishedAt     time.Time    `json:"finishedAt"`
	ElapsedMs      int64        `json:"elapsedMs"`
}

// Wire formats for remote analysis providers.
const (
	WireFormatChatCompletions = "chat-completions"
	WireFormatMessages        = "messages"
)

// ProviderProfile is the static configuration for one remote analysis
// provider. Read-only during a session.
type ProviderProfile struct {
	ProviderID         string
	WireFormat         string
	EndpointCandidates []string
	AuthHeaderName     string
	Model              string
	MinRequestInterval time.Duration
}

// NewSessionID derives a session identifier from the review scope and start
// time. Deterministic for a given scope+timestamp pair.
func NewSessionID(repositoryRef, branchRef string, startedAt time.Time) string {
	payload := fmt.Sprintf("%s|%s|%d", repositoryRef, branchRef, startedAt.UnixNano())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:16]
}

// NormalizeKind maps arbitrary input to a valid finding kind.
// Unknown or empty values default to info.
func NormalizeKind(kind string) string {
	switch kind {
	case KindError, KindWarning, KindInfo, KindStyle:
		return kind
	default:
		return KindInfo
	}
}

// NormalizeCategory maps arbitrary input to a valid finding category.
// Unknown or empty values default to maintainability.
func NormalizeCategory(category string) string {
	switch category {
	case CategorySecurity, CategoryPerformance, CategoryMaintainability,
		CategoryReadability, CategoryBestPractices:
		return category
	default:
		return CategoryMaintainability
	}
}
