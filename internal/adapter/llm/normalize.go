package llm

import (
	"encoding/json"
	"strings"

	"github.com/jgardner/reviewflow/internal/domain"
)

// rawFinding is the loosely-typed shape parsed out of a provider reply.
// Every field is optional; coercion fills the gaps.
type rawFinding struct {
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Kind       string   `json:"kind"`
	Category   string   `json:"category"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`
	SourceLine string   `json:"sourceLine"`
	Context    []string `json:"context"`
}

// normalizeFindings turns untrusted provider output into findings. It
// locates the outermost JSON array in the text and coerces each element;
// anything unparsable degrades to a single informational finding built from
// the original file content. It never fails.
func normalizeFindings(text, content string) []domain.Finding {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return []domain.Finding{unstructuredFinding(content)}
	}

	var raw []rawFinding
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return []domain.Finding{unstructuredFinding(content)}
	}

	findings := make([]domain.Finding, 0, len(raw))
	for _, r := range raw {
		findings = append(findings, coerceFinding(r))
	}
	return findings
}

func coerceFinding(r rawFinding) domain.Finding {
	line := r.Line
	if line < 1 {
		line = 1
	}
	column := r.Column
	if column < 0 {
		column = 0
	}
	context := r.Context
	if context == nil {
		context = []string{}
	}
	return domain.Finding{
		Line:         line,
		Column:       column,
		Kind:         domain.NormalizeKind(r.Kind),
		Category:     domain.NormalizeCategory(r.Category),
		Message:      r.Message,
		Suggestion:   r.Suggestion,
		SourceLine:   r.SourceLine,
		ContextLines: context,
	}
}

// unstructuredFinding is the single finding synthesized when a reply cannot
// be parsed as a findings array.
func unstructuredFinding(content string) domain.Finding {
	return domain.Finding{
		Line:         1,
		Kind:         domain.KindInfo,
		Category:     domain.CategoryMaintainability,
		Message:      "remote analysis returned an unstructured response; no findings could be extracted",
		Suggestion:   "re-run the review or inspect the provider configuration",
		SourceLine:   firstLine(content),
		ContextLines: []string{firstLine(content)},
	}
}

func firstLine(content string) string {
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		return content[:i]
	}
	return content
}
