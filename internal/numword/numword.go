// Package numword parses spoken Dutch quantities. It converts number words
// and digit strings into integers, splits a trailing quantity off a spoken
// phrase, and exposes the closed exclusion set that keeps number words from
// ever being mistaken for species aliases.
package numword

import (
	"strconv"
	"strings"
	"sync"

	"vink/internal/phonetic"
)

// units and tens cover the spoken range used in the field; amounts beyond
// 999 are not realistic single-utterance counts.
var units = map[string]int{
	"nul": 0, "een": 1, "twee": 2, "drie": 3, "vier": 4,
	"vijf": 5, "zes": 6, "zeven": 7, "acht": 8, "negen": 9,
	"tien": 10, "elf": 11, "twaalf": 12, "dertien": 13, "veertien": 14,
	"vijftien": 15, "zestien": 16, "zeventien": 17, "achttien": 18, "negentien": 19,
}

var tens = map[string]int{
	"twintig": 20, "dertig": 30, "veertig": 40, "vijftig": 50,
	"zestig": 60, "zeventig": 70, "tachtig": 80, "negentig": 90,
}

// Parse converts a normalized token into an amount. It accepts digit strings
// ("12"), simple number words ("vijf"), compound tens ("vijfentwintig"), and
// hundreds ("tweehonderd", "honderdvijf").
func Parse(token string) (int, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}
	if value, err := strconv.Atoi(token); err == nil {
		if value < 0 || value > 9999 {
			return 0, false
		}
		return value, true
	}
	return parseWord(token)
}

func parseWord(word string) (int, bool) {
	if value, ok := units[word]; ok {
		return value, true
	}
	if value, ok := tens[word]; ok {
		return value, true
	}
	if idx := strings.Index(word, "honderd"); idx >= 0 {
		return parseHundreds(word, idx)
	}
	return parseCompoundTens(word)
}

// parseCompoundTens handles forms like "vijfentwintig" (unit + "en" + ten).
// Diacritics are already stripped by normalization, so "drieëntwintig"
// arrives as "drieentwintig".
func parseCompoundTens(word string) (int, bool) {
	for tenWord, tenValue := range tens {
		if !strings.HasSuffix(word, tenWord) {
			continue
		}
		head := strings.TrimSuffix(word, tenWord)
		head = strings.TrimSuffix(head, "en")
		unitValue, ok := units[head]
		if !ok || unitValue == 0 || unitValue > 9 {
			return 0, false
		}
		return tenValue + unitValue, true
	}
	return 0, false
}

func parseHundreds(word string, idx int) (int, bool) {
	multiplier := 1
	if head := word[:idx]; head != "" {
		value, ok := units[head]
		if !ok || value < 2 || value > 9 {
			return 0, false
		}
		multiplier = value
	}
	total := multiplier * 100
	rest := word[idx+len("honderd"):]
	rest = strings.TrimPrefix(rest, "en")
	if rest == "" {
		return total, true
	}
	remainder, ok := parseWord(rest)
	if !ok || remainder >= 100 {
		return 0, false
	}
	return total + remainder, true
}

// IsNumberWord reports whether the normalized token is purely a quantity.
func IsNumberWord(token string) bool {
	_, ok := Parse(token)
	return ok
}

// SplitTrailingAmount strips a trailing quantity from a normalized phrase.
// "buizerd 3" and "buizerd drie" both yield ("buizerd", 3, true). When no
// trailing quantity is present the phrase is returned unchanged with amount 1.
func SplitTrailingAmount(normalized string) (string, int, bool) {
	fields := strings.Fields(normalized)
	if len(fields) < 2 {
		return normalized, 1, false
	}
	last := fields[len(fields)-1]
	amount, ok := Parse(last)
	if !ok {
		return normalized, 1, false
	}
	return strings.Join(fields[:len(fields)-1], " "), amount, true
}

// phoneticExclusions holds the phonetic codes of every simple number word.
// Candidates whose alias collapses onto one of these codes are discarded
// before scoring so spoken quantities never surface as species.
var phoneticExclusions = sync.OnceValue(func() map[string]struct{} {
	codes := make(map[string]struct{}, len(units)+len(tens))
	for word := range units {
		codes[phonetic.Encode(word)] = struct{}{}
	}
	for word := range tens {
		codes[phonetic.Encode(word)] = struct{}{}
	}
	return codes
})

// MatchesNumberPhonetics reports whether a single-token normalized string is
// phonetically indistinguishable from a number word.
func MatchesNumberPhonetics(token string) bool {
	if token == "" || strings.ContainsRune(token, ' ') {
		return false
	}
	_, ok := phoneticExclusions()[phonetic.Encode(token)]
	return ok
}
