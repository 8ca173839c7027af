package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var symbolReplacer = strings.NewReplacer("&", " en ", "+", " en ", "'", "")

// Normalize produces the canonical matching form of spoken or catalog text:
// lowercase, diacritics stripped, symbols spelled out, punctuation collapsed
// to single spaces.
func Normalize(input string) string {
	lowered := strings.ToLower(strings.TrimSpace(input))
	if lowered == "" {
		return ""
	}
	lowered = symbolReplacer.Replace(lowered)
	if folded, _, err := transform.String(stripMarks, lowered); err == nil {
		lowered = folded
	}

	var builder strings.Builder
	builder.Grow(len(lowered))
	prevSpace := false
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace && builder.Len() > 0 {
				builder.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(builder.String())
}

// Tokenize splits normalized text into its space-separated tokens.
func Tokenize(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// TokenCount reports how many tokens the normalized text contains.
func TokenCount(normalized string) int {
	return len(Tokenize(normalized))
}

// DisplayTitle renders catalog text with title casing for user-facing output.
func DisplayTitle(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	return cases.Title(language.Dutch).String(trimmed)
}
