// Package extract derives company facts from merged page text via
// pattern matching. The patterns are deliberately simple and are part of
// the pipeline's behavioral contract: they will under- and over-match on
// unusual layouts, and that is accepted rather than "improved".
package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/intel-crawler/internal/model"
)

var foundedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Founded\s+(?:in\s+)?\d{4}`),
	regexp.MustCompile(`(?i)Established\s+(?:in\s+)?\d{4}`),
	regexp.MustCompile(`(?i)Since\s+\d{4}`),
}

// emailPattern does not recover obfuscated addresses ("name at host dot
// com"); accepted limitation.
var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]+`)

// sentenceBoundary splits on sentence-ending punctuation followed by
// whitespace. Boundaries need not be linguistically perfect.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// Extract derives founding evidence, an about-us passage, and an email
// address from the merged text. Pure and deterministic; the three
// extractions are independent and each may come back empty.
func Extract(text string) model.Facts {
	return model.Facts{
		FoundedInfo: extractFounded(text),
		AboutUs:     extractAboutUs(text),
		Email:       extractEmail(text),
	}
}

// extractFounded returns the first "founded/established/since <year>"
// fragment, not just the year.
func extractFounded(text string) string {
	for _, re := range foundedPatterns {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// extractAboutUs returns the sentence containing the first occurrence of
// the phrase "about us".
func extractAboutUs(text string) string {
	for _, sentence := range sentenceBoundary.Split(text, -1) {
		if strings.Contains(strings.ToLower(sentence), "about us") {
			return strings.TrimSpace(sentence)
		}
	}
	return ""
}

func extractEmail(text string) string {
	return emailPattern.FindString(text)
}
