// Package phonetic derives a coarse, deterministic sound code from normalized
// Dutch text. Two strings with an equal code are treated as phonetically
// equivalent; the code carries no distance semantics.
package phonetic

import (
	"strings"

	"vink/internal/textutil"
)

// digraphs are rewritten before the per-letter mapping. Order matters:
// longer clusters first so "sch" wins over "ch".
var digraphs = strings.NewReplacer(
	"sch", "sg",
	"ch", "g",
	"ck", "k",
	"qu", "kw",
	"ph", "f",
	"th", "t",
	"ij", "ei",
	"dt", "t",
)

// letterClasses folds voiced/unvoiced pairs and spelling variants that are
// indistinguishable in casual Dutch speech.
var letterClasses = map[rune]rune{
	'b': 'p', 'p': 'p',
	'd': 't', 't': 't',
	'f': 'f', 'v': 'f', 'w': 'f',
	'g': 'g',
	'h': 0,
	'j': '*', 'y': '*',
	'c': 'k', 'k': 'k', 'q': 'k',
	'l': 'l',
	'm': 'm', 'n': 'n',
	'r': 'r',
	's': 's', 'z': 's',
	'x': 'k',
	'a': '*', 'e': '*', 'i': '*', 'o': '*', 'u': '*',
}

// Encode maps normalized text to its phonetic code. Tokens are encoded
// independently and joined with '-'; the empty string encodes to itself.
func Encode(normalized string) string {
	tokens := textutil.Tokenize(normalized)
	if len(tokens) == 0 {
		return ""
	}
	codes := make([]string, 0, len(tokens))
	for _, token := range tokens {
		codes = append(codes, encodeToken(token))
	}
	return strings.Join(codes, "-")
}

func encodeToken(token string) string {
	rewritten := digraphs.Replace(token)

	var out []rune
	var prev rune
	for idx, r := range rewritten {
		class, ok := letterClasses[r]
		if !ok {
			// Digits and unmapped runes pass through as-is.
			class = r
		}
		if class == 0 {
			continue
		}
		// Vowels and glides act as separators: they are kept only in leading
		// position but still break duplicate-consonant collapsing.
		if class == '*' {
			if idx == 0 {
				out = append(out, '*')
			}
			prev = 0
			continue
		}
		if class == prev {
			continue
		}
		out = append(out, class)
		prev = class
	}
	if len(out) == 0 {
		return "*"
	}
	return string(out)
}
