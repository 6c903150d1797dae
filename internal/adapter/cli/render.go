package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jgardner/reviewflow/internal/domain"
)

// RenderSummary writes a terminal summary of a finished session.
func RenderSummary(w io.Writer, result domain.SessionResult) {
	caser := cases.Title(language.English)

	fmt.Fprintf(w, "Session %s completed in %dms\n", result.SessionID, result.ElapsedMs)
	fmt.Fprintf(w, "Files reviewed: %d, findings: %d (%d files with findings)\n",
		result.Summary.TotalFiles, result.Summary.TotalFindings, result.Summary.FilesWithFindings)

	if len(result.Summary.FindingsByKind) > 0 {
		fmt.Fprintln(w, "\nBy kind:")
		writeCounts(w, caser, result.Summary.FindingsByKind)
	}
	if len(result.Summary.FindingsByCategory) > 0 {
		fmt.Fprintln(w, "\nBy category:")
		writeCounts(w, caser, result.Summary.FindingsByCategory)
	}

	for _, review := range result.Reviews {
		if len(review.Findings) == 0 && review.Note == "" {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", review.Path)
		if review.Note != "" {
			fmt.Fprintf(w, "  note: %s\n", review.Note)
		}
		for _, finding := range review.Findings {
			fmt.Fprintf(w, "  %d:%d [%s/%s] %s\n",
				finding.Line, finding.Column, finding.Kind, finding.Category, finding.Message)
			if finding.Suggestion != "" {
				fmt.Fprintf(w, "      suggestion: %s\n", finding.Suggestion)
			}
		}
	}
}

func writeCounts(w io.Writer, caser cases.Caser, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		label := caser.String(strings.ReplaceAll(key, "-", " "))
		fmt.Fprintf(w, "  %-16s %d\n", label, counts[key])
	}
}
