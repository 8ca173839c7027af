// Package scoring computes the similarity signals the matching cascade ranks
// candidates by: edit-distance text similarity, binary phonetic equality, a
// contextual prior, and their weighted combination.
package scoring

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"vink/internal/catalog"
	"vink/internal/phonetic"
	"vink/internal/textutil"
)

// Combination weights. Text similarity dominates, the phonetic signal breaks
// spelling variants, and the prior nudges toward session-relevant species.
const (
	weightText     = 0.45
	weightPhonetic = 0.30
	weightPrior    = 0.25
)

// Prior increments per context signal, capped at priorCap.
const (
	priorRecent  = 0.25
	priorWorking = 0.25
	priorAllowed = 0.15
	priorCap     = 0.60
)

// EditDistance returns the Levenshtein distance between two strings.
func EditDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// DistanceCutoff returns the maximum acceptable edit distance for an input
// with the given token count. Longer phrases tolerate more noise.
func DistanceCutoff(tokenCount int) int {
	switch {
	case tokenCount <= 1:
		return 2
	case tokenCount == 2:
		return 3
	default:
		return 4
	}
}

// WithinCutoff reports whether candidate text is close enough to the input to
// be worth scoring, using the input's token-count-dependent cutoff.
func WithinCutoff(input, candidate string) bool {
	return EditDistance(input, candidate) <= DistanceCutoff(textutil.TokenCount(input))
}

// TextSimilarity maps edit distance onto [0,1] relative to the longer string.
func TextSimilarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	similarity := 1.0 - float64(EditDistance(a, b))/float64(longest)
	if similarity < 0 {
		return 0
	}
	return similarity
}

// PhoneticSimilarity is 1.0 when both strings share a phonetic code, else 0.
func PhoneticSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if phonetic.Encode(a) == phonetic.Encode(b) {
		return 1.0
	}
	return 0
}

// Prior scores how likely the species is given the session context.
func Prior(id catalog.SpeciesID, ctx catalog.MatchContext) float64 {
	prior := 0.0
	if ctx.IsRecent(id) {
		prior += priorRecent
	}
	if ctx.InWorkingSet(id) {
		prior += priorWorking
	}
	if ctx.InAllowedSet(id) {
		prior += priorAllowed
	}
	if prior > priorCap {
		return priorCap
	}
	return prior
}

// Combined blends the three signals into the candidate score.
func Combined(textSim, phonSim, prior float64) float64 {
	return weightText*textSim + weightPhonetic*phonSim + weightPrior*prior
}
