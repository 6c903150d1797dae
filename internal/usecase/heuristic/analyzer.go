// Package heuristic implements the local static analysis pass. The analyzer
// is pure: given file content it produces findings without I/O and never
// fails, so it can always run even when remote analysis is unavailable.
package heuristic

import (
	"regexp"
	"strings"

	"github.com/jgardner/reviewflow/internal/domain"
)

const maxLineLength = 120

// maxDefinitions is the function/class definition count above which a file
// is flagged as doing too much.
const maxDefinitions = 10

// Analyzer applies an ordered table of pattern rules to file content.
type Analyzer struct {
	lineRules []lineRule
}

// lineRule inspects a single physical line and reports at most one hit.
type lineRule struct {
	name  string
	check func(line string) *ruleHit
}

// ruleHit carries the finding fields a rule contributes; location and
// context are filled in by the analyzer.
type ruleHit struct {
	column     int
	kind       string
	category   string
	message    string
	suggestion string
}

var (
	todoPattern      = regexp.MustCompile(`(?i)\b(TODO|FIXME)\b`)
	debugPattern     = regexp.MustCompile(`\b(console\.(log|debug|warn|error)|fmt\.Print(ln|f)?|System\.out\.print(ln)?|var_dump|println!|dbg!|print)\s*\(`)
	commentPattern   = regexp.MustCompile(`^\s*(//|#|\*|/\*|--|;)`)
	definitionStarts = regexp.MustCompile(`^\s*(func\s|def\s|class\s|fn\s|function\s|function\()`)
)

// New returns an analyzer with the default rule table.
func New() *Analyzer {
	return &Analyzer{lineRules: defaultLineRules()}
}

// Analyze runs every rule against the content and returns the findings in
// line order. An empty result means no rule matched.
func (a *Analyzer) Analyze(path, content string) []domain.Finding {
	lines := strings.Split(content, "\n")
	findings := make([]domain.Finding, 0)

	for i, line := range lines {
		for _, rule := range a.lineRules {
			hit := rule.check(line)
			if hit == nil {
				continue
			}
			findings = append(findings, domain.Finding{
				Line:         i + 1,
				Column:       hit.column,
				Kind:         hit.kind,
				Category:     hit.category,
				Message:      hit.message,
				Suggestion:   hit.suggestion,
				SourceLine:   line,
				ContextLines: contextWindow(lines, i),
			})
		}
	}

	findings = append(findings, a.fileFindings(content, lines)...)
	return findings
}

// fileFindings applies the whole-file rules.
func (a *Analyzer) fileFindings(content string, lines []string) []domain.Finding {
	var findings []domain.Finding

	if content != "" && !strings.HasSuffix(content, "\n") {
		last := len(lines) - 1
		findings = append(findings, domain.Finding{
			Line:         last + 1,
			Kind:         domain.KindStyle,
			Category:     domain.CategoryBestPractices,
			Message:      "file does not end with a newline",
			Suggestion:   "add a trailing newline at the end of the file",
			SourceLine:   lines[last],
			ContextLines: contextWindow(lines, last),
		})
	}

	defs := 0
	for _, line := range lines {
		if definitionStarts.MatchString(line) {
			defs++
		}
	}
	if defs > maxDefinitions {
		findings = append(findings, domain.Finding{
			Line:         1,
			Kind:         domain.KindWarning,
			Category:     domain.CategoryMaintainability,
			Message:      "file defines too many functions or classes; consider splitting it",
			Suggestion:   "extract related functions into separate files or modules",
			SourceLine:   lines[0],
			ContextLines: contextWindow(lines, 0),
		})
	}

	return findings
}

func defaultLineRules() []lineRule {
	return []lineRule{
		{
			name: "trailing-whitespace",
			check: func(line string) *ruleHit {
				trimmed := strings.TrimRight(line, " \t")
				if trimmed == line {
					return nil
				}
				return &ruleHit{
					column:     len(trimmed) + 1,
					kind:       domain.KindStyle,
					category:   domain.CategoryReadability,
					message:    "line has trailing whitespace",
					suggestion: "remove the trailing whitespace",
				}
			},
		},
		{
			name: "line-too-long",
			check: func(line string) *ruleHit {
				if len(line) <= maxLineLength {
					return nil
				}
				return &ruleHit{
					column:     maxLineLength + 1,
					kind:       domain.KindWarning,
					category:   domain.CategoryReadability,
					message:    "line exceeds 120 characters",
					suggestion: "break the line into shorter statements",
				}
			},
		},
		{
			name: "todo-marker",
			check: func(line string) *ruleHit {
				loc := todoPattern.FindStringIndex(line)
				if loc == nil {
					return nil
				}
				return &ruleHit{
					column:     loc[0] + 1,
					kind:       domain.KindInfo,
					category:   domain.CategoryMaintainability,
					message:    "unresolved TODO/FIXME marker",
					suggestion: "resolve the marker or track it in the issue tracker",
				}
			},
		},
		{
			name: "debug-print",
			check: func(line string) *ruleHit {
				loc := debugPattern.FindStringIndex(line)
				if loc == nil {
					return nil
				}
				if commentPattern.MatchString(line) {
					return nil
				}
				return &ruleHit{
					column:     loc[0] + 1,
					kind:       domain.KindWarning,
					category:   domain.CategoryBestPractices,
					message:    "debug print statement left in code",
					suggestion: "remove the debug print or replace it with structured logging",
				}
			},
		},
	}
}

// contextWindow returns the lines surrounding index i (±2), clipped to the
// file bounds.
func contextWindow(lines []string, i int) []string {
	start := i - 2
	if start < 0 {
		start = 0
	}
	end := i + 3
	if end > len(lines) {
		end = len(lines)
	}
	window := make([]string, end-start)
	copy(window, lines[start:end])
	return window
}
