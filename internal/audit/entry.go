package audit

import "time"

// HypothesisRecord captures one considered transcription alternative.
type HypothesisRecord struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// CandidateRecord summarizes a winning or suggested species.
type CandidateRecord struct {
	SpeciesID   string  `json:"species_id"`
	DisplayName string  `json:"display_name"`
	AliasText   string  `json:"alias_text,omitempty"`
	Score       float64 `json:"score"`
}

// Entry is one self-contained audit record; entries never reference each
// other so any line of the log can be read in isolation.
type Entry struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"ts"`
	Input       string             `json:"input"`
	Hypotheses  []HypothesisRecord `json:"hypotheses,omitempty"`
	Outcome     string             `json:"outcome"`
	Reason      string             `json:"reason,omitempty"`
	Amount      int                `json:"amount,omitempty"`
	Deferred    bool               `json:"deferred,omitempty"`
	ElapsedMS   int64              `json:"elapsed_ms"`
	Winner      *CandidateRecord   `json:"winner,omitempty"`
	Suggestions []CandidateRecord  `json:"suggestions,omitempty"`
}
