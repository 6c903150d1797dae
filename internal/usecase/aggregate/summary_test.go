package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jgardner/reviewflow/internal/domain"
	"github.com/jgardner/reviewflow/internal/usecase/aggregate"
)

func TestSummarize(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		summary := aggregate.Summarize(nil)

		assert.Equal(t, 0, summary.TotalFiles)
		assert.Equal(t, 0, summary.TotalFindings)
		assert.Equal(t, 0, summary.FilesWithFindings)
		assert.Empty(t, summary.FindingsByKind)
		assert.Empty(t, summary.FindingsByCategory)
	})

	t.Run("tallies kinds and categories without zero-filling", func(t *testing.T) {
		reviews := []domain.FileReview{
			{
				Path: "a.go",
				Findings: []domain.Finding{
					{Kind: domain.KindWarning, Category: domain.CategoryReadability},
					{Kind: domain.KindWarning, Category: domain.CategorySecurity},
				},
			},
			{Path: "b.go"},
			{
				Path: "c.go",
				Findings: []domain.Finding{
					{Kind: domain.KindInfo, Category: domain.CategoryReadability},
				},
			},
		}

		summary := aggregate.Summarize(reviews)

		assert.Equal(t, 3, summary.TotalFiles)
		assert.Equal(t, 3, summary.TotalFindings)
		assert.Equal(t, 2, summary.FilesWithFindings)
		assert.Equal(t, map[string]int{"warning": 2, "info": 1}, summary.FindingsByKind)
		assert.Equal(t, map[string]int{"readability": 2, "security": 1}, summary.FindingsByCategory)
		_, hasError := summary.FindingsByKind[domain.KindError]
		assert.False(t, hasError)
	})

	t.Run("total findings matches sum across reviews", func(t *testing.T) {
		reviews := []domain.FileReview{
			{Path: "a.go", Findings: make([]domain.Finding, 4)},
			{Path: "b.go", Findings: make([]domain.Finding, 2)},
			{Path: "c.go"},
		}

		summary := aggregate.Summarize(reviews)

		want := 0
		for _, r := range reviews {
			want += len(r.Findings)
		}
		assert.Equal(t, want, summary.TotalFindings)
		assert.Equal(t, 2, summary.FilesWithFindings)
	})
}
