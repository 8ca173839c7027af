package matcher

// Policy bundles the cascade decision thresholds. Zero values are replaced
// with defaults via normalized(), mirroring how callers pass partially
// populated policies from configuration.
type Policy struct {
	// AutoAcceptScore is the minimum pooled score for automatic acceptance.
	AutoAcceptScore float64
	// AutoAcceptMargin is the minimum gap to the runner-up; with fewer than
	// two candidates the margin counts as 1.0.
	AutoAcceptMargin float64
	// SuggestScore is the minimum top score for offering a suggestion list.
	SuggestScore float64
	// MaxSuggestions bounds the suggestion list length.
	MaxSuggestions int
	// FuzzyPoolSize bounds how many fuzzy index candidates each stage considers.
	FuzzyPoolSize int
	// FuzzyMinScore prunes fuzzy index candidates below this text similarity.
	FuzzyMinScore float64
}

// DefaultPolicy returns the converged production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		AutoAcceptScore:  0.70,
		AutoAcceptMargin: 0.12,
		SuggestScore:     0.45,
		MaxSuggestions:   5,
		FuzzyPoolSize:    12,
		FuzzyMinScore:    0.30,
	}
}

func (p Policy) normalized() Policy {
	defaults := DefaultPolicy()
	if p.AutoAcceptScore <= 0 {
		p.AutoAcceptScore = defaults.AutoAcceptScore
	}
	if p.AutoAcceptMargin <= 0 {
		p.AutoAcceptMargin = defaults.AutoAcceptMargin
	}
	if p.SuggestScore <= 0 {
		p.SuggestScore = defaults.SuggestScore
	}
	if p.MaxSuggestions <= 0 {
		p.MaxSuggestions = defaults.MaxSuggestions
	}
	if p.FuzzyPoolSize <= 0 {
		p.FuzzyPoolSize = defaults.FuzzyPoolSize
	}
	if p.FuzzyMinScore <= 0 {
		p.FuzzyMinScore = defaults.FuzzyMinScore
	}
	return p
}
