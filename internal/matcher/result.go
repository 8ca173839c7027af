package matcher

import "vink/internal/catalog"

// Outcome tags the closed set of result shapes a resolution can produce.
type Outcome string

const (
	// OutcomeAutoAccept confirms a species already in the working set.
	OutcomeAutoAccept Outcome = "auto_accept"
	// OutcomeAutoAcceptAdd confirms a species that must first be added to the
	// working set; the UI shows an add confirmation.
	OutcomeAutoAcceptAdd Outcome = "auto_accept_add"
	// OutcomeSuggestions asks the user to disambiguate between candidates.
	OutcomeSuggestions Outcome = "suggestions"
	// OutcomeNoMatch carries a terminal reason and no species.
	OutcomeNoMatch Outcome = "no_match"
)

// Terminal NoMatch reasons. The taxonomy is deliberately small and uniform:
// every code path that gives up maps onto exactly one of these.
const (
	ReasonEmptyInput     = "empty_input"
	ReasonNoData         = "no_data"
	ReasonNoCandidates   = "no_candidates"
	ReasonBelowThreshold = "below_threshold"
	ReasonQueued         = "queued"
	ReasonTimedOut       = "timed_out"
)

// Candidate is one scored species produced during a match attempt.
type Candidate struct {
	SpeciesID    catalog.SpeciesID
	DisplayName  string
	AliasText    string
	Score        float64
	TextSim      float64
	PhonSim      float64
	Prior        float64
	InWorkingSet bool
}

// Result is the single typed outcome of a match. Exactly one is produced per
// resolution request. Candidate is set for the auto-accept outcomes,
// Suggestions for OutcomeSuggestions, Reason for OutcomeNoMatch. Amount is
// attached by the pipeline from the separately parsed trailing quantity.
type Result struct {
	Outcome     Outcome
	Candidate   *Candidate
	Suggestions []Candidate
	Amount      int
	Reason      string
}

// NoMatch builds a terminal no-match result.
func NoMatch(reason string) Result {
	return Result{Outcome: OutcomeNoMatch, Reason: reason}
}

// Accepted reports whether the result is one of the auto-accept outcomes.
func (r Result) Accepted() bool {
	return r.Outcome == OutcomeAutoAccept || r.Outcome == OutcomeAutoAcceptAdd
}

// TopScore returns the score of the winning or best-ranked candidate, or 0.
func (r Result) TopScore() float64 {
	if r.Candidate != nil {
		return r.Candidate.Score
	}
	if len(r.Suggestions) > 0 {
		return r.Suggestions[0].Score
	}
	return 0
}

// WithAmount returns a copy of the result carrying the parsed quantity.
func (r Result) WithAmount(amount int) Result {
	r.Amount = amount
	return r
}
