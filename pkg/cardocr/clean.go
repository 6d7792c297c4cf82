package cardocr

import (
	"regexp"
	"strings"
)

// Ordered corrections for systematic recognition errors. Applied in a
// single pass; later steps never re-trigger earlier ones.
var cleanSteps = []struct {
	re   *regexp.Regexp
	repl string
}{
	// Canonical field labels (OCR often swaps : for ; or splits spacing).
	{regexp.MustCompile(`(?i)Matricule\s*[:;]\s*`), "Matricule: "},
	{regexp.MustCompile(`(?i)Nom\s*\(s\)\s*[:;]\s*`), "Nom(s): "},
	// The "(e)" of the birth-date marker is commonly read as "fe)".
	{regexp.MustCompile(`(?i)Néfe?\)`), "Né(e)"},
	// Whitespace runs and blank lines.
	{regexp.MustCompile(`\s+`), " "},
	{regexp.MustCompile(`\n\s*\n`), "\n"},
	// Matricules are 4 digits + letter + 3 digits; the letter is almost
	// always read as a digit. Only fires on a word-bounded 8-digit run.
	{regexp.MustCompile(`\b(\d{4})(\d)(\d{3})\b`), "${1}i${3}"},
}

// CleanText repairs recognition output into the canonical text block that
// field extraction operates on.
func CleanText(rawText string) string {
	cleaned := rawText
	for _, step := range cleanSteps {
		cleaned = step.re.ReplaceAllString(cleaned, step.repl)
	}
	return strings.TrimSpace(cleaned)
}
