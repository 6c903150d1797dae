package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgardner/reviewflow/internal/domain"
	"github.com/jgardner/reviewflow/internal/usecase/session"
)

type fakeSource struct {
	files    []string
	contents map[string]string
	listErr  error
	readErrs map[string]error
}

func (f *fakeSource) ListFiles(ctx context.Context, ref string) ([]string, error) {
	return f.files, f.listErr
}

func (f *fakeSource) ReadFile(ctx context.Context, path string) (string, error) {
	if err, ok := f.readErrs[path]; ok {
		return "", err
	}
	return f.contents[path], nil
}

type fakeAnalyzer struct {
	findings map[string][]domain.Finding
}

func (f *fakeAnalyzer) Analyze(path, content string) []domain.Finding {
	return f.findings[path]
}

type fakeReviewer struct {
	reviews   map[string]domain.FileReview
	panicOn   string
	reviewed  []string
	languages []string
}

func (f *fakeReviewer) Review(ctx context.Context, path, content, language, complianceText string) domain.FileReview {
	if path == f.panicOn {
		panic("provider exploded")
	}
	f.reviewed = append(f.reviewed, path)
	f.languages = append(f.languages, language)
	if r, ok := f.reviews[path]; ok {
		return r
	}
	return domain.FileReview{Path: path}
}

func heuristicFinding(msg string) domain.Finding {
	return domain.Finding{Line: 1, Kind: domain.KindStyle, Category: domain.CategoryReadability, Message: msg}
}

func remoteFinding(msg string) domain.Finding {
	return domain.Finding{Line: 2, Kind: domain.KindWarning, Category: domain.CategorySecurity, Message: msg}
}

func TestOrchestrator_Run(t *testing.T) {
	t.Run("merges heuristic findings before remote findings", func(t *testing.T) {
		source := &fakeSource{
			files:    []string{"a.go"},
			contents: map[string]string{"a.go": "package a\n"},
		}
		analyzer := &fakeAnalyzer{findings: map[string][]domain.Finding{
			"a.go": {heuristicFinding("h1"), heuristicFinding("h2")},
		}}
		reviewer := &fakeReviewer{reviews: map[string]domain.FileReview{
			"a.go": {Path: "a.go", Findings: []domain.Finding{remoteFinding("r1")}},
		}}

		orch := session.New(session.Deps{Source: source, Analyzer: analyzer, Reviewer: reviewer})
		result, err := orch.Run(context.Background(), "repo", "main", "rules")

		require.NoError(t, err)
		require.Len(t, result.Reviews, 1)
		findings := result.Reviews[0].Findings
		require.Len(t, findings, 3)
		assert.Equal(t, "h1", findings[0].Message)
		assert.Equal(t, "h2", findings[1].Message)
		assert.Equal(t, "r1", findings[2].Message)
		assert.Equal(t, domain.PhaseCompleted, orch.Phase())
	})

	t.Run("summary invariants hold", func(t *testing.T) {
		source := &fakeSource{
			files: []string{"a.go", "b.go"},
			contents: map[string]string{
				"a.go": "package a\n",
				"b.go": "package b\n",
			},
		}
		analyzer := &fakeAnalyzer{findings: map[string][]domain.Finding{
			"a.go": {heuristicFinding("h1")},
		}}
		reviewer := &fakeReviewer{}

		orch := session.New(session.Deps{Source: source, Analyzer: analyzer, Reviewer: reviewer})
		result, err := orch.Run(context.Background(), "repo", "main", "")

		require.NoError(t, err)
		sum := 0
		for _, r := range result.Reviews {
			sum += len(r.Findings)
		}
		assert.Equal(t, sum, result.Summary.TotalFindings)
		assert.Equal(t, 1, result.Summary.FilesWithFindings)
		assert.Equal(t, 2, result.Summary.TotalFiles)
	})

	t.Run("reviews preserve input file order", func(t *testing.T) {
		source := &fakeSource{
			files: []string{"c.go", "a.go", "b.go"},
			contents: map[string]string{
				"a.go": "package a\n", "b.go": "package b\n", "c.go": "package c\n",
			},
		}
		orch := session.New(session.Deps{Source: source, Analyzer: &fakeAnalyzer{}, Reviewer: &fakeReviewer{}})

		result, err := orch.Run(context.Background(), "repo", "main", "")

		require.NoError(t, err)
		paths := []string{result.Reviews[0].Path, result.Reviews[1].Path, result.Reviews[2].Path}
		assert.Equal(t, []string{"c.go", "a.go", "b.go"}, paths)
	})

	t.Run("empty file list is fatal", func(t *testing.T) {
		source := &fakeSource{files: nil}
		orch := session.New(session.Deps{Source: source, Analyzer: &fakeAnalyzer{}, Reviewer: &fakeReviewer{}})

		var events []domain.ProgressEvent
		orch.SubscribeProgress(func(e domain.ProgressEvent) { events = append(events, e) })

		_, err := orch.Run(context.Background(), "repo", "main", "")

		assert.ErrorIs(t, err, session.ErrNoFiles)
		assert.Equal(t, domain.PhaseFailed, orch.Phase())
		require.NotEmpty(t, events)
		last := events[len(events)-1]
		assert.Equal(t, domain.PhaseFailed, last.Phase)
		assert.Contains(t, last.ErrorMessage, "no analyzable files")
	})

	t.Run("fetch failure is fatal", func(t *testing.T) {
		source := &fakeSource{listErr: errors.New("host unreachable")}
		orch := session.New(session.Deps{Source: source, Analyzer: &fakeAnalyzer{}, Reviewer: &fakeReviewer{}})

		_, err := orch.Run(context.Background(), "repo", "main", "")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "host unreachable")
		assert.Equal(t, domain.PhaseFailed, orch.Phase())
	})

	t.Run("empty content skipped without a review", func(t *testing.T) {
		source := &fakeSource{
			files: []string{"a.go", "empty.go"},
			contents: map[string]string{
				"a.go":     "package a\n",
				"empty.go": "   \n\t\n",
			},
		}
		orch := session.New(session.Deps{Source: source, Analyzer: &fakeAnalyzer{}, Reviewer: &fakeReviewer{}})

		var warnings []domain.LogEvent
		orch.SubscribeLog(func(e domain.LogEvent) {
			if e.Level == domain.LogLevelWarning {
				warnings = append(warnings, e)
			}
		})

		result, err := orch.Run(context.Background(), "repo", "main", "")

		require.NoError(t, err)
		require.Len(t, result.Reviews, 1)
		assert.Equal(t, "a.go", result.Reviews[0].Path)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0].Detail, "empty.go")
	})

	t.Run("per-file failure is isolated", func(t *testing.T) {
		source := &fakeSource{
			files: []string{"a.go", "b.go", "c.go"},
			contents: map[string]string{
				"a.go": "package a\n", "b.go": "package b\n", "c.go": "package c\n",
			},
		}
		reviewer := &fakeReviewer{panicOn: "b.go"}
		orch := session.New(session.Deps{Source: source, Analyzer: &fakeAnalyzer{}, Reviewer: reviewer})

		result, err := orch.Run(context.Background(), "repo", "main", "")

		require.NoError(t, err)
		require.Len(t, result.Reviews, 3)
		assert.Empty(t, result.Reviews[1].Findings)
		assert.Contains(t, result.Reviews[1].Note, "failed")
		assert.Equal(t, 3, result.Summary.TotalFiles)
		assert.Equal(t, domain.PhaseCompleted, orch.Phase())
	})

	t.Run("read failure produces failure note and continues", func(t *testing.T) {
		source := &fakeSource{
			files:    []string{"a.go", "b.go"},
			contents: map[string]string{"b.go": "package b\n"},
			readErrs: map[string]error{"a.go": errors.New("permission denied")},
		}
		orch := session.New(session.Deps{Source: source, Analyzer: &fakeAnalyzer{}, Reviewer: &fakeReviewer{}})

		result, err := orch.Run(context.Background(), "repo", "main", "")

		require.NoError(t, err)
		require.Len(t, result.Reviews, 2)
		assert.Contains(t, result.Reviews[0].Note, "analysis failed")
		assert.Empty(t, result.Reviews[0].Findings)
	})

	t.Run("oversized file skips remote delegation", func(t *testing.T) {
		big := "x" + strings.Repeat("y", 51000)
		source := &fakeSource{
			files:    []string{"big.go"},
			contents: map[string]string{"big.go": big},
		}
		analyzer := &fakeAnalyzer{findings: map[string][]domain.Finding{
			"big.go": {heuristicFinding("h1")},
		}}
		reviewer := &fakeReviewer{}
		orch := session.New(session.Deps{Source: source, Analyzer: analyzer, Reviewer: reviewer})

		result, err := orch.Run(context.Background(), "repo", "main", "")

		require.NoError(t, err)
		assert.Empty(t, reviewer.reviewed, "remote reviewer must not be called")
		require.Len(t, result.Reviews, 1)
		assert.Len(t, result.Reviews[0].Findings, 1)
		assert.Contains(t, result.Reviews[0].Note, "remote analysis skipped")
	})

	t.Run("language detected from extension", func(t *testing.T) {
		source := &fakeSource{
			files:    []string{"app.py"},
			contents: map[string]string{"app.py": "print('hi')\n"},
		}
		reviewer := &fakeReviewer{}
		orch := session.New(session.Deps{Source: source, Analyzer: &fakeAnalyzer{}, Reviewer: reviewer})

		_, err := orch.Run(context.Background(), "repo", "main", "")

		require.NoError(t, err)
		assert.Equal(t, []string{"Python"}, reviewer.languages)
	})

	t.Run("cancellation fails the session", func(t *testing.T) {
		source := &fakeSource{
			files:    []string{"a.go"},
			contents: map[string]string{"a.go": "package a\n"},
		}
		orch := session.New(session.Deps{Source: source, Analyzer: &fakeAnalyzer{}, Reviewer: &fakeReviewer{}})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := orch.Run(ctx, "repo", "main", "")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "cancelled")
		assert.Equal(t, domain.PhaseFailed, orch.Phase())
	})

	t.Run("sessions are not resumable", func(t *testing.T) {
		source := &fakeSource{
			files:    []string{"a.go"},
			contents: map[string]string{"a.go": "package a\n"},
		}
		orch := session.New(session.Deps{Source: source, Analyzer: &fakeAnalyzer{}, Reviewer: &fakeReviewer{}})

		_, err := orch.Run(context.Background(), "repo", "main", "")
		require.NoError(t, err)

		_, err = orch.Run(context.Background(), "repo", "main", "")
		assert.Error(t, err)
	})

	t.Run("missing dependencies rejected", func(t *testing.T) {
		orch := session.New(session.Deps{})
		_, err := orch.Run(context.Background(), "repo", "main", "")
		assert.Error(t, err)
	})
}

func TestOrchestrator_Progress(t *testing.T) {
	source := &fakeSource{
		files: []string{"a.go", "b.go"},
		contents: map[string]string{
			"a.go": "package a\n", "b.go": "package b\n",
		},
	}
	orch := session.New(session.Deps{Source: source, Analyzer: &fakeAnalyzer{}, Reviewer: &fakeReviewer{}})

	var events []domain.ProgressEvent
	orch.SubscribeProgress(func(e domain.ProgressEvent) { events = append(events, e) })

	_, err := orch.Run(context.Background(), "repo", "main", "")
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(events), 4)
	assert.Equal(t, domain.PhaseFetching, events[0].Phase)
	assert.Equal(t, domain.PhaseAnalyzing, events[1].Phase)
	assert.Equal(t, 2, events[1].TotalFiles)

	// processedFiles strictly non-decreasing, analyzing events in order
	prev := -1
	for _, e := range events[1:] {
		assert.GreaterOrEqual(t, e.ProcessedFiles, prev)
		prev = e.ProcessedFiles
	}

	last := events[len(events)-1]
	assert.Equal(t, domain.PhaseCompleted, last.Phase)
	assert.Equal(t, 2, last.ProcessedFiles)
}

func TestOrchestrator_SubscriberOrder(t *testing.T) {
	source := &fakeSource{
		files:    []string{"a.go"},
		contents: map[string]string{"a.go": "package a\n"},
	}
	orch := session.New(session.Deps{Source: source, Analyzer: &fakeAnalyzer{}, Reviewer: &fakeReviewer{}})

	var order []string
	orch.SubscribeProgress(func(domain.ProgressEvent) { order = append(order, "first") })
	orch.SubscribeProgress(func(domain.ProgressEvent) { order = append(order, "second") })

	_, err := orch.Run(context.Background(), "repo", "main", "")
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(order), 2)
	assert.Equal(t, "first", order[0])
	assert.Equal(t, "second", order[1])
	for i := 0; i+1 < len(order); i += 2 {
		assert.Equal(t, "first", order[i])
		assert.Equal(t, "second", order[i+1])
	}
}
