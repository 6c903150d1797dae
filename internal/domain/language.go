package domain

import (
	"path/filepath"
	"strings"
)

// languageBySuffix maps file extensions to the language name sent to the
// remote provider. Extensions not listed here are not reviewable.
var languageBySuffix = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".java":  "Java",
	".kt":    "Kotlin",
	".rb":    "Ruby",
	".rs":    "Rust",
	".c":     "C",
	".h":     "C",
	".cc":    "C++",
	".cpp":   "C++",
	".hpp":   "C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".scala": "Scala",
	".sh":    "Shell",
	".sql":   "SQL",
	".vue":   "Vue",
}

// DetectLanguage returns the language for a file path based on its
// extension, or "Plain Text" when the extension is unknown.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := languageBySuffix[ext]; ok {
		return lang
	}
	return "Plain Text"
}

// IsSourceFile reports whether the path has a recognized source extension.
func IsSourceFile(path string) bool {
	_, ok := languageBySuffix[strings.ToLower(filepath.Ext(path))]
	return ok
}
