// Package aliasindex maintains the in-memory lookup table from normalized
// alias text to catalog records. The index is built once from a snapshot,
// read by every resolution, and mutated only by hot-patch inserts under a
// single writer lock.
package aliasindex

import (
	"sort"
	"sync"
	"unicode/utf8"

	"vink/internal/catalog"
	"vink/internal/scoring"
	"vink/internal/textutil"
)

// Index is safe for concurrent use. Readers always observe either the
// pre-insert or post-insert state of a hot patch, never a partial one.
type Index struct {
	mu        sync.RWMutex
	loaded    bool
	records   map[string][]catalog.AliasRecord
	bySpecies map[catalog.SpeciesID][]string
	keys      []string
}

// New returns an empty, unloaded index.
func New() *Index {
	return &Index{
		records:   make(map[string][]catalog.AliasRecord),
		bySpecies: make(map[catalog.SpeciesID][]string),
	}
}

// Load builds the index from snapshot bytes. It is idempotent: the first
// successful call wins and later calls are no-ops. A nil or empty snapshot
// leaves the index empty; lookups then return no results rather than errors.
func (ix *Index) Load(data []byte) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.loaded {
		return nil
	}
	records, err := catalog.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	for _, record := range records {
		ix.insertLocked(record)
	}
	ix.loaded = true
	return nil
}

// EnsureLoaded lazily builds the index using the supplied snapshot source.
// Concurrent callers share a single build: the fast path checks under a read
// lock and only the first writer actually loads.
func (ix *Index) EnsureLoaded(source func() ([]byte, error)) error {
	ix.mu.RLock()
	loaded := ix.loaded
	ix.mu.RUnlock()
	if loaded {
		return nil
	}

	data, err := source()
	if err != nil {
		return err
	}
	return ix.Load(data)
}

// Loaded reports whether a snapshot load has completed.
func (ix *Index) Loaded() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.loaded
}

// Len returns the number of distinct normalized keys.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// SpeciesCount returns the number of distinct species in the index.
func (ix *Index) SpeciesCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.bySpecies)
}

// LookupExact returns all records whose normalized text equals the input.
func (ix *Index) LookupExact(normalized string) []catalog.AliasRecord {
	if normalized == "" {
		return nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	found := ix.records[normalized]
	if len(found) == 0 {
		return nil
	}
	out := make([]catalog.AliasRecord, len(found))
	copy(out, found)
	return out
}

// ScoredRecord pairs an alias record with its text similarity to the query.
type ScoredRecord struct {
	Record catalog.AliasRecord
	Score  float64
}

// FuzzyCandidates shortlists index keys within a length-delta window of the
// input before scoring, bounding cost on large indexes, and returns up to
// maxCount records with text similarity at or above minScore, best first.
func (ix *Index) FuzzyCandidates(normalized string, maxCount int, minScore float64) []ScoredRecord {
	if normalized == "" || maxCount <= 0 {
		return nil
	}
	cutoff := scoring.DistanceCutoff(textutil.TokenCount(normalized))
	inputLen := utf8.RuneCountInString(normalized)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var scored []ScoredRecord
	for _, key := range ix.keys {
		delta := utf8.RuneCountInString(key) - inputLen
		if delta < 0 {
			delta = -delta
		}
		// An edit distance within the cutoff implies a length delta within it.
		if delta > cutoff {
			continue
		}
		if scoring.EditDistance(normalized, key) > cutoff {
			continue
		}
		similarity := scoring.TextSimilarity(normalized, key)
		if similarity < minScore {
			continue
		}
		for _, record := range ix.records[key] {
			scored = append(scored, ScoredRecord{Record: record, Score: similarity})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > maxCount {
		scored = scored[:maxCount]
	}
	return scored
}

// HotPatch inserts a record at runtime without a rebuild. Returns false when
// the species already carries an alias with the same normalized text.
func (ix *Index) HotPatch(record catalog.AliasRecord) bool {
	if record.NormalizedText == "" || record.SpeciesID == "" {
		return false
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, existing := range ix.records[record.NormalizedText] {
		if existing.SpeciesID == record.SpeciesID {
			return false
		}
	}
	ix.insertLocked(record)
	return true
}

// Replace swaps the index contents for a fresh record set. Used on catalog
// refresh; readers holding the index pointer observe the old or the new
// contents, never a mix. The index counts as loaded afterwards.
func (ix *Index) Replace(records []catalog.AliasRecord) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.records = make(map[string][]catalog.AliasRecord, len(records))
	ix.bySpecies = make(map[catalog.SpeciesID][]string)
	ix.keys = nil
	for _, record := range records {
		ix.insertLocked(record)
	}
	ix.loaded = true
}

// AliasesFor returns the normalized alias keys registered for a species.
func (ix *Index) AliasesFor(id catalog.SpeciesID) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	keys := ix.bySpecies[id]
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

func (ix *Index) insertLocked(record catalog.AliasRecord) {
	if record.NormalizedText == "" {
		return
	}
	existing, known := ix.records[record.NormalizedText]
	for _, prior := range existing {
		if prior.SpeciesID == record.SpeciesID {
			return
		}
	}
	if !known {
		ix.keys = append(ix.keys, record.NormalizedText)
	}
	ix.records[record.NormalizedText] = append(existing, record)
	ix.bySpecies[record.SpeciesID] = append(ix.bySpecies[record.SpeciesID], record.NormalizedText)
}
