package report

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// pemPattern matches PEM key blocks across multiple lines.
var pemPattern = regexp.MustCompile(`(?s)-----BEGIN [A-Z ]+KEY-----.*?-----END [A-Z ]+KEY-----`)

// secretPatterns holds single-line secret-detection regexes in priority
// order. Command output captured as an assertion actual can contain
// anything the audited host prints; these catch the common credential
// shapes before they reach a stored report.
var secretPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	// AWS access key IDs
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), redacted},
	// API secret keys of the sk-... form. The delimiter before the key
	// is captured and kept so redaction swallows only the secret.
	{regexp.MustCompile(`(^|[\s"'])sk-[a-zA-Z0-9]{20,}`), "${1}" + redacted},
	// JWT tokens (three base64url segments)
	{regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`), redacted},
	// Bearer tokens - minimum 20-char token to avoid false positives
	{regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]{20,}=*`), redacted},
	// Inline password assignments
	{regexp.MustCompile(`(?i)password\s*[:=]\s*\S+`), redacted},
}

// Redact replaces known secret patterns with [REDACTED]. Line structure
// is preserved: the output has exactly as many newlines as the input.
func Redact(input string) string {
	// PEM blocks first: replace each line within the block individually
	// so the line count survives.
	input = pemPattern.ReplaceAllStringFunc(input, func(match string) string {
		lines := strings.Split(match, "\n")
		for i := range lines {
			lines[i] = redacted
		}
		return strings.Join(lines, "\n")
	})

	for _, p := range secretPatterns {
		input = p.re.ReplaceAllString(input, p.repl)
	}
	return input
}

// Scrub redacts secret patterns from every free-text field of a result.
// Sensitive assertion masking happens earlier, in the runtime; this pass
// catches secrets that appear in legitimate, non-sensitive output.
func Scrub(res *Result) {
	res.Message = Redact(res.Message)
	for i := range res.Assertions {
		res.Assertions[i].Expected = Redact(res.Assertions[i].Expected)
		res.Assertions[i].Actual = Redact(res.Assertions[i].Actual)
	}
}
