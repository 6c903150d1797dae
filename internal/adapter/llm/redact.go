package llm

import "regexp"

// maskToken replaces every detected secret. A fixed token keeps redaction
// idempotent: the token itself never matches any rule.
const maskToken = "[REDACTED]"

// secretRule pairs a name with its detection pattern. Rules are applied in
// order; new rules are added to the table, not to the redaction loop.
type secretRule struct {
	name    string
	pattern *regexp.Regexp
}

var secretRules = []secretRule{
	{"aws-access-key-id", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws-secret-key", regexp.MustCompile(`(?i)aws.{0,20}?['"][0-9a-zA-Z/+]{40}['"]`)},
	{"openai-key", regexp.MustCompile(`sk-[a-zA-Z0-9\-]{20,}`)},
	{"github-token", regexp.MustCompile(`gh[posru]_[a-zA-Z0-9]{20,}`)},
	{"google-key", regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`)},
	{"slack-token", regexp.MustCompile(`xox[baprs]-[a-zA-Z0-9\-]{10,}`)},
	{"jwt", regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)},
	{"bearer-token", regexp.MustCompile(`(?i)Bearer\s+[a-zA-Z0-9_\-.=]{16,}`)},
	{"private-key-block", regexp.MustCompile(`-----BEGIN\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)?\s*PRIVATE\s+KEY-----[\s\S]*?-----END\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)?\s*PRIVATE\s+KEY-----`)},
	{"assigned-secret", regexp.MustCompile(`(?i)(api[_-]?key|access[_-]?key|secret[_-]?key|secret|token|password|passwd|credential)\s*[:=]\s*["'][^"']{8,}["']`)},
}

// RedactSecrets masks likely secrets in content before it leaves the
// process. Runs unconditionally; there is no way to disable it.
func RedactSecrets(content string) string {
	result := content
	for _, rule := range secretRules {
		result = rule.pattern.ReplaceAllString(result, maskToken)
	}
	return result
}
