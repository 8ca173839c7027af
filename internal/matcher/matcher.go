package matcher

import (
	"log/slog"
	"sort"

	"vink/internal/aliasindex"
	"vink/internal/catalog"
	"vink/internal/logging"
	"vink/internal/numword"
	"vink/internal/scoring"
	"vink/internal/textutil"
)

// Matcher evaluates the decision cascade against one alias index.
type Matcher struct {
	index  *aliasindex.Index
	policy Policy
	logger *slog.Logger
}

// New constructs a matcher. A nil logger falls back to a no-op logger.
func New(index *aliasindex.Index, policy Policy, logger *slog.Logger) *Matcher {
	return &Matcher{
		index:  index,
		policy: policy.normalized(),
		logger: logging.NewComponentLogger(logger, "matcher"),
	}
}

// Match runs the cascade for a single normalized hypothesis. The steps are
// evaluated in strict order and the first success wins:
//
//  1. exact canonical name, working set
//  2. exact canonical name, allowed set minus working set
//  3. exact alias, working set
//  4. exact alias, allowed set minus working set
//  5. fuzzy canonical, working set
//  6. fuzzy alias, working set
//  7. fuzzy canonical, allowed minus working
//  8. fuzzy alias, allowed minus working
//  9. threshold-and-margin decision over the pooled fuzzy candidates
func (m *Matcher) Match(normalized string, ctx catalog.MatchContext) Result {
	if normalized == "" {
		return NoMatch(ReasonEmptyInput)
	}
	// Spoken quantities never resolve to species, no matter how close an
	// alias sits in edit distance.
	if numword.IsNumberWord(normalized) || numword.MatchesNumberPhonetics(normalized) {
		return NoMatch(ReasonNoCandidates)
	}
	if m.index.Len() == 0 && len(ctx.Names) == 0 {
		return NoMatch(ReasonNoData)
	}

	if result, ok := m.exactCanonical(normalized, ctx); ok {
		return result
	}
	if result, ok := m.exactAlias(normalized, ctx); ok {
		return result
	}
	return m.decide(normalized, m.fuzzyPool(normalized, ctx))
}

// exactCanonical covers steps 1 and 2.
func (m *Matcher) exactCanonical(normalized string, ctx catalog.MatchContext) (Result, bool) {
	var workingHit, allowedHit *Candidate
	for id, names := range ctx.Names {
		if textutil.Normalize(names.CanonicalName) != normalized {
			continue
		}
		candidate := m.newCandidate(id, names.DisplayName, names.CanonicalName, normalized, normalized, ctx)
		switch {
		case ctx.InWorkingSet(id):
			workingHit = &candidate
		case ctx.InAllowedSet(id):
			if allowedHit == nil {
				allowedHit = &candidate
			}
		}
	}
	if workingHit != nil {
		m.logDecision("exact_canonical_working", *workingHit)
		return Result{Outcome: OutcomeAutoAccept, Candidate: workingHit}, true
	}
	if allowedHit != nil {
		m.logDecision("exact_canonical_allowed", *allowedHit)
		return Result{Outcome: OutcomeAutoAcceptAdd, Candidate: allowedHit}, true
	}
	return Result{}, false
}

// exactAlias covers steps 3 and 4.
func (m *Matcher) exactAlias(normalized string, ctx catalog.MatchContext) (Result, bool) {
	records := m.index.LookupExact(normalized)
	var workingHit, allowedHit *Candidate
	for _, record := range records {
		if m.numericAlias(record) {
			continue
		}
		candidate := m.newCandidate(record.SpeciesID, record.DisplayName, record.AliasText, normalized, record.NormalizedText, ctx)
		switch {
		case ctx.InWorkingSet(record.SpeciesID):
			if workingHit == nil {
				workingHit = &candidate
			}
		case ctx.InAllowedSet(record.SpeciesID):
			if allowedHit == nil {
				allowedHit = &candidate
			}
		}
	}
	if workingHit != nil {
		m.logDecision("exact_alias_working", *workingHit)
		return Result{Outcome: OutcomeAutoAccept, Candidate: workingHit}, true
	}
	if allowedHit != nil {
		m.logDecision("exact_alias_allowed", *allowedHit)
		return Result{Outcome: OutcomeAutoAcceptAdd, Candidate: allowedHit}, true
	}
	return Result{}, false
}

// stageFilter narrows a fuzzy stage to one membership slice of the context.
type stageFilter func(id catalog.SpeciesID) bool

// fuzzyPool runs steps 5-8 and returns the deduplicated, score-sorted pool.
func (m *Matcher) fuzzyPool(normalized string, ctx catalog.MatchContext) []Candidate {
	inWorking := func(id catalog.SpeciesID) bool { return ctx.InWorkingSet(id) }
	inAllowedOnly := func(id catalog.SpeciesID) bool {
		return ctx.InAllowedSet(id) && !ctx.InWorkingSet(id)
	}

	var pool []Candidate
	pool = append(pool, m.fuzzyCanonical(normalized, ctx, inWorking)...)
	pool = append(pool, m.fuzzyAlias(normalized, ctx, inWorking)...)
	pool = append(pool, m.fuzzyCanonical(normalized, ctx, inAllowedOnly)...)
	pool = append(pool, m.fuzzyAlias(normalized, ctx, inAllowedOnly)...)

	best := make(map[catalog.SpeciesID]Candidate, len(pool))
	for _, candidate := range pool {
		if current, ok := best[candidate.SpeciesID]; !ok || candidate.Score > current.Score {
			best[candidate.SpeciesID] = candidate
		}
	}
	deduped := make([]Candidate, 0, len(best))
	for _, candidate := range best {
		deduped = append(deduped, candidate)
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].Score != deduped[j].Score {
			return deduped[i].Score > deduped[j].Score
		}
		return deduped[i].SpeciesID < deduped[j].SpeciesID
	})
	return deduped
}

func (m *Matcher) fuzzyCanonical(normalized string, ctx catalog.MatchContext, include stageFilter) []Candidate {
	var out []Candidate
	for id, names := range ctx.Names {
		if !include(id) {
			continue
		}
		canonical := textutil.Normalize(names.CanonicalName)
		if canonical == "" || !scoring.WithinCutoff(normalized, canonical) {
			continue
		}
		out = append(out, m.newCandidate(id, names.DisplayName, names.CanonicalName, normalized, canonical, ctx))
	}
	return out
}

func (m *Matcher) fuzzyAlias(normalized string, ctx catalog.MatchContext, include stageFilter) []Candidate {
	scored := m.index.FuzzyCandidates(normalized, m.policy.FuzzyPoolSize, m.policy.FuzzyMinScore)
	var out []Candidate
	for _, hit := range scored {
		if !include(hit.Record.SpeciesID) || m.numericAlias(hit.Record) {
			continue
		}
		out = append(out, m.newCandidate(hit.Record.SpeciesID, hit.Record.DisplayName, hit.Record.AliasText, normalized, hit.Record.NormalizedText, ctx))
	}
	return out
}

// decide is step 9.
func (m *Matcher) decide(normalized string, pool []Candidate) Result {
	if len(pool) == 0 {
		if m.index.Len() == 0 {
			return NoMatch(ReasonNoData)
		}
		return NoMatch(ReasonNoCandidates)
	}

	top := pool[0]
	margin := 1.0
	if len(pool) > 1 {
		margin = top.Score - pool[1].Score
	}

	m.logger.Debug("fuzzy pool decision",
		logging.String("input", normalized),
		logging.Int("pool_size", len(pool)),
		logging.Float64("top_score", top.Score),
		logging.Float64("margin", margin))

	if top.Score >= m.policy.AutoAcceptScore && margin >= m.policy.AutoAcceptMargin {
		m.logDecision("fuzzy_auto_accept", top)
		outcome := OutcomeAutoAcceptAdd
		if top.InWorkingSet {
			outcome = OutcomeAutoAccept
		}
		return Result{Outcome: outcome, Candidate: &top}
	}
	if top.Score >= m.policy.SuggestScore {
		limit := m.policy.MaxSuggestions
		if limit > len(pool) {
			limit = len(pool)
		}
		suggestions := make([]Candidate, limit)
		copy(suggestions, pool[:limit])
		return Result{Outcome: OutcomeSuggestions, Suggestions: suggestions}
	}
	return NoMatch(ReasonBelowThreshold)
}

func (m *Matcher) newCandidate(id catalog.SpeciesID, display, aliasText, input, candidateText string, ctx catalog.MatchContext) Candidate {
	textSim := scoring.TextSimilarity(input, candidateText)
	phonSim := scoring.PhoneticSimilarity(input, candidateText)
	prior := scoring.Prior(id, ctx)
	return Candidate{
		SpeciesID:    id,
		DisplayName:  display,
		AliasText:    aliasText,
		Score:        scoring.Combined(textSim, phonSim, prior),
		TextSim:      textSim,
		PhonSim:      phonSim,
		Prior:        prior,
		InWorkingSet: ctx.InWorkingSet(id),
	}
}

// numericAlias rejects records whose alias collapses onto a number word.
func (m *Matcher) numericAlias(record catalog.AliasRecord) bool {
	return numword.IsNumberWord(record.NormalizedText) ||
		numword.MatchesNumberPhonetics(record.NormalizedText)
}

func (m *Matcher) logDecision(step string, candidate Candidate) {
	m.logger.Debug("cascade decision",
		logging.String("step", step),
		logging.String("species_id", string(candidate.SpeciesID)),
		logging.Float64("score", candidate.Score),
		logging.Bool("in_working_set", candidate.InWorkingSet))
}
