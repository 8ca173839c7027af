package pipeline

import (
	"vink/internal/catalog"
	"vink/internal/matcher"
	"vink/internal/numword"
	"vink/internal/scoring"
	"vink/internal/textutil"
)

// fastPath resolves unambiguous "species quantity" utterances with a single
// exact lookup per hypothesis. It auto-accepts only when the species is in
// the working set, or in the allowed set with near-certain ASR confidence.
func (p *Pipeline) fastPath(hypotheses []Hypothesis, mctx catalog.MatchContext) (matcher.Result, bool) {
	limit := p.opts.FastPathHypotheses
	if limit > len(hypotheses) {
		limit = len(hypotheses)
	}

	for _, hyp := range hypotheses[:limit] {
		normalized := textutil.Normalize(hyp.Text)
		rest, amount, _ := numword.SplitTrailingAmount(normalized)
		if rest == "" || numword.IsNumberWord(rest) {
			continue
		}

		records := p.index.LookupExact(rest)
		if len(records) == 0 {
			continue
		}

		distinct := make(map[catalog.SpeciesID]catalog.AliasRecord, len(records))
		for _, record := range records {
			if _, seen := distinct[record.SpeciesID]; !seen {
				distinct[record.SpeciesID] = record
			}
		}

		var chosen catalog.AliasRecord
		switch {
		case len(distinct) == 1:
			for _, record := range distinct {
				chosen = record
			}
		default:
			// Ambiguous alias: only a unique working-set member qualifies.
			matches := 0
			for id, record := range distinct {
				if mctx.InWorkingSet(id) {
					chosen = record
					matches++
				}
			}
			if matches != 1 {
				continue
			}
		}

		inWorking := mctx.InWorkingSet(chosen.SpeciesID)
		if !inWorking {
			if !mctx.InAllowedSet(chosen.SpeciesID) || hyp.Confidence < p.opts.FastPathConfidence {
				continue
			}
		}

		prior := scoring.Prior(chosen.SpeciesID, mctx)
		candidate := matcher.Candidate{
			SpeciesID:    chosen.SpeciesID,
			DisplayName:  chosen.DisplayName,
			AliasText:    chosen.AliasText,
			Score:        scoring.Combined(1.0, 1.0, prior),
			TextSim:      1.0,
			PhonSim:      1.0,
			Prior:        prior,
			InWorkingSet: inWorking,
		}
		outcome := matcher.OutcomeAutoAcceptAdd
		if inWorking {
			outcome = matcher.OutcomeAutoAccept
		}
		return matcher.Result{Outcome: outcome, Candidate: &candidate, Amount: amount}, true
	}
	return matcher.Result{}, false
}
