// Package session drives one end-to-end review: it pulls the target file
// list, runs the heuristic and remote passes per file, isolates per-file
// failures, and aggregates the outcome. One orchestrator instance serves
// exactly one session; completed and failed are terminal states.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jgardner/reviewflow/internal/domain"
	"github.com/jgardner/reviewflow/internal/usecase/aggregate"
)

// maxRemoteContentChars is the file size above which remote delegation is
// skipped. Heuristics still run.
const maxRemoteContentChars = 50000

// ErrNoFiles is returned when the source provider yields an empty file list.
var ErrNoFiles = errors.New("no analyzable files")

// SourceProvider is the outbound port for the source-code host.
type SourceProvider interface {
	ListFiles(ctx context.Context, ref string) ([]string, error)
	ReadFile(ctx context.Context, path string) (string, error)
}

// Analyzer is the outbound port for the local heuristic pass.
type Analyzer interface {
	Analyze(path, content string) []domain.Finding
}

// Reviewer is the outbound port for delegated remote analysis. The returned
// review carries only remote findings; failures arrive as synthetic
// findings, never as errors.
type Reviewer interface {
	Review(ctx context.Context, path, content, language, complianceText string) domain.FileReview
}

// Deps captures the orchestrator's collaborators.
type Deps struct {
	Source   SourceProvider
	Analyzer Analyzer
	Reviewer Reviewer

	// PacingDelay is an unconditional pause between file analyses,
	// independent of the client's per-provider rate limiter.
	PacingDelay time.Duration
}

// Orchestrator owns one session. Not safe for concurrent use: files are
// processed strictly sequentially on a single control flow.
type Orchestrator struct {
	deps  Deps
	phase string

	progressSubs []ProgressFunc
	logSubs      []LogFunc
}

// New wires an orchestrator for a single session.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps, phase: domain.PhaseIdle}
}

// Phase returns the current session phase.
func (o *Orchestrator) Phase() string {
	return o.phase
}

func (o *Orchestrator) validateDependencies() error {
	if o.deps.Source == nil {
		return errors.New("source provider is required")
	}
	if o.deps.Analyzer == nil {
		return errors.New("analyzer is required")
	}
	if o.deps.Reviewer == nil {
		return errors.New("reviewer is required")
	}
	return nil
}

// Run executes the session. Errors before per-file analysis begins abort
// the whole session; later failures are isolated per file.
func (o *Orchestrator) Run(ctx context.Context, repositoryRef, branchRef, complianceText string) (domain.SessionResult, error) {
	if o.phase != domain.PhaseIdle {
		return domain.SessionResult{}, fmt.Errorf("session already ran (phase %s); start a new session", o.phase)
	}
	if err := o.validateDependencies(); err != nil {
		return domain.SessionResult{}, err
	}

	startedAt := time.Now()

	o.phase = domain.PhaseFetching
	o.emitProgress(domain.ProgressEvent{Phase: domain.PhaseFetching})

	files, err := o.deps.Source.ListFiles(ctx, branchRef)
	if err != nil {
		return domain.SessionResult{}, o.fail(fmt.Errorf("list files: %w", err))
	}
	if len(files) == 0 {
		return domain.SessionResult{}, o.fail(ErrNoFiles)
	}

	o.phase = domain.PhaseAnalyzing
	o.emitProgress(domain.ProgressEvent{Phase: domain.PhaseAnalyzing, TotalFiles: len(files)})

	reviews := make([]domain.FileReview, 0, len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return domain.SessionResult{}, o.fail(fmt.Errorf("session cancelled: %w", err))
		}

		o.emitProgress(domain.ProgressEvent{
			Phase:          domain.PhaseAnalyzing,
			TotalFiles:     len(files),
			ProcessedFiles: i,
			CurrentFile:    path,
		})

		review, skip := o.analyzeFile(ctx, path, complianceText)
		if !skip {
			reviews = append(reviews, review)
		}

		if o.deps.PacingDelay > 0 && i < len(files)-1 {
			select {
			case <-time.After(o.deps.PacingDelay):
			case <-ctx.Done():
				return domain.SessionResult{}, o.fail(fmt.Errorf("session cancelled: %w", ctx.Err()))
			}
		}
	}

	finishedAt := time.Now()
	result := domain.SessionResult{
		SessionID:      domain.NewSessionID(repositoryRef, branchRef, startedAt),
		RepositoryRef:  repositoryRef,
		BranchRef:      branchRef,
		ComplianceText: complianceText,
		Reviews:        reviews,
		Summary:        aggregate.Summarize(reviews),
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
		ElapsedMs:      finishedAt.Sub(startedAt).Milliseconds(),
	}

	o.phase = domain.PhaseCompleted
	o.emitProgress(domain.ProgressEvent{
		Phase:          domain.PhaseCompleted,
		TotalFiles:     len(files),
		ProcessedFiles: len(files),
	})

	return result, nil
}

// analyzeFile runs the per-file pipeline. Any error or panic is converted
// into a FileReview with a failure note and zero findings so the session
// can continue. skip is true for empty files, which produce no review.
func (o *Orchestrator) analyzeFile(ctx context.Context, path, complianceText string) (review domain.FileReview, skip bool) {
	defer func() {
		if r := recover(); r != nil {
			o.emitLog(domain.LogLevelError, "file analysis panicked", fmt.Sprintf("%s: %v", path, r))
			review = domain.FileReview{Path: path, Note: fmt.Sprintf("analysis failed: panic: %v", r)}
			skip = false
		}
	}()

	content, err := o.deps.Source.ReadFile(ctx, path)
	if err != nil {
		o.emitLog(domain.LogLevelError, "failed to read file", fmt.Sprintf("%s: %v", path, err))
		return domain.FileReview{Path: path, Note: fmt.Sprintf("analysis failed: %v", err)}, false
	}

	if strings.TrimSpace(content) == "" {
		o.emitLog(domain.LogLevelWarning, "skipping empty file", path)
		return domain.FileReview{}, true
	}

	language := domain.DetectLanguage(path)
	findings := o.deps.Analyzer.Analyze(path, content)

	if len(content) > maxRemoteContentChars {
		o.emitLog(domain.LogLevelWarning, "file too large for remote analysis", path)
		return domain.FileReview{
			Path:     path,
			Findings: findings,
			Note:     fmt.Sprintf("file exceeds %d characters; remote analysis skipped", maxRemoteContentChars),
		}, false
	}

	remote := o.deps.Reviewer.Review(ctx, path, content, language, complianceText)

	// Heuristic findings first, remote appended; each source keeps its
	// internal order.
	merged := make([]domain.Finding, 0, len(findings)+len(remote.Findings))
	merged = append(merged, findings...)
	merged = append(merged, remote.Findings...)

	return domain.FileReview{Path: path, Findings: merged, Note: remote.Note}, false
}

// fail transitions to the terminal failed phase and reports the error to
// progress listeners before returning it.
func (o *Orchestrator) fail(err error) error {
	o.phase = domain.PhaseFailed
	o.emitLog(domain.LogLevelError, "session failed", err.Error())
	o.emitProgress(domain.ProgressEvent{Phase: domain.PhaseFailed, ErrorMessage: err.Error()})
	return err
}
