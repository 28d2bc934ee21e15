package extract

import (
	"context"
	"strings"
	"unicode"
)

// HeuristicExtractor picks declarative sentences that look like factual
// assertions. It needs no model and is used when no provider is configured.
type HeuristicExtractor struct {
	signals  []string
	minChars int
	maxChars int
}

// NewHeuristicExtractor creates a heuristic extractor
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{
		signals: []string{
			" is ", " are ", " was ", " were ", " has ", " have ", " had ",
			"originated", "first", "introduced", "invented",
			"according to", "is defined as", "under the law",
			"shall", "must", "is required", "established",
			"founded", "created", "discovered", "developed",
		},
		minChars: 12,
		maxChars: 500,
	}
}

// Extract returns candidate claims in source order
func (e *HeuristicExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var claims []string
	for _, sentence := range splitSentences(text, e.minChars, e.maxChars) {
		if strings.HasSuffix(sentence, "?") {
			continue
		}
		if e.looksFactual(sentence) {
			claims = append(claims, sentence)
		}
	}
	return dedupe(claims), nil
}

func (e *HeuristicExtractor) looksFactual(sentence string) bool {
	if strings.IndexFunc(sentence, unicode.IsDigit) >= 0 {
		return true
	}
	lower := " " + strings.ToLower(sentence) + " "
	for _, s := range e.signals {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// splitSentences splits text into sentences (simple heuristic)
func splitSentences(text string, minChars, maxChars int) []string {
	text = strings.Join(strings.Fields(text), " ")

	var sentences []string
	var current strings.Builder
	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= minChars && len(sentence) <= maxChars {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		// Terminator followed by a space; "e.g." style abbreviations without
		// a trailing space stay attached.
		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(text) && text[i+1] == ' ' {
				flush()
			}
		}
	}
	if current.Len() > 0 {
		flush()
	}

	return sentences
}
