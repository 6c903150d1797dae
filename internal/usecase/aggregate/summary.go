// Package aggregate derives session summaries from accumulated reviews.
package aggregate

import "github.com/jgardner/reviewflow/internal/domain"

// Summarize folds the per-file reviews into a Summary. Pure function: the
// input reviews are not modified. Kind and category tallies only contain
// keys that were actually observed.
func Summarize(reviews []domain.FileReview) domain.Summary {
	summary := domain.Summary{
		TotalFiles:         len(reviews),
		FindingsByKind:     make(map[string]int),
		FindingsByCategory: make(map[string]int),
	}

	for _, review := range reviews {
		if len(review.Findings) > 0 {
			summary.FilesWithFindings++
		}
		summary.TotalFindings += len(review.Findings)
		for _, finding := range review.Findings {
			summary.FindingsByKind[finding.Kind]++
			summary.FindingsByCategory[finding.Category]++
		}
	}

	return summary
}
