package llm

import (
	"fmt"
	"strings"
)

const (
	maxComplianceChars = 8000
	maxCodeChars       = 15000
)

// responseSchema describes the JSON array the provider is asked to return.
// Normalization tolerates deviations from it, but stating the shape up
// front keeps well-behaved providers parseable.
const responseSchema = `Respond with a JSON array only. Each element:
{
  "line": <1-based line number>,
  "column": <optional 1-based column>,
  "kind": "error" | "warning" | "info" | "style",
  "category": "security" | "performance" | "maintainability" | "readability" | "best-practices",
  "message": "<what is wrong>",
  "suggestion": "<how to fix it>",
  "sourceLine": "<the offending line>",
  "context": ["<surrounding lines>"]
}
Return [] if the code is clean. No prose outside the array.`

// buildPrompt composes the single instruction payload sent to the provider.
// Both the compliance text and the code body are truncated to bound request
// size; the caller passes the redacted body.
func buildPrompt(path, content, language, complianceText string) string {
	compliance := truncate(complianceText, maxComplianceChars)
	code := truncate(content, maxCodeChars)

	var b strings.Builder
	b.WriteString("You are a code review assistant. Review the file below for defects, ")
	b.WriteString("security issues, and deviations from the team standards.\n\n")

	if compliance != "" {
		b.WriteString("Team standards:\n")
		b.WriteString(compliance)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "File: %s\nLanguage: %s\n\n", path, language)
	b.WriteString("```\n")
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
	b.WriteString(responseSchema)

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
