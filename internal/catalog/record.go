package catalog

import (
	"strings"

	"vink/internal/phonetic"
	"vink/internal/textutil"
)

// SpeciesID identifies a catalog entity. Multiple alias records may share one ID.
type SpeciesID string

// AliasRecord maps one alias or canonical spelling to a species. Records are
// immutable once created.
type AliasRecord struct {
	AliasText      string    `json:"alias_text"`
	NormalizedText string    `json:"normalized_text"`
	PhoneticCode   string    `json:"phonetic_code"`
	SpeciesID      SpeciesID `json:"species_id"`
	CanonicalName  string    `json:"canonical_name"`
	DisplayName    string    `json:"display_name"`
	SourceTag      string    `json:"source_tag,omitempty"`
}

// NewAliasRecord derives the normalized and phonetic forms for an alias.
// Returns false when the alias normalizes to nothing.
func NewAliasRecord(id SpeciesID, aliasText, canonical, display, sourceTag string) (AliasRecord, bool) {
	normalized := textutil.Normalize(aliasText)
	if normalized == "" || strings.TrimSpace(string(id)) == "" {
		return AliasRecord{}, false
	}
	if strings.TrimSpace(display) == "" {
		display = canonical
	}
	return AliasRecord{
		AliasText:      strings.TrimSpace(aliasText),
		NormalizedText: normalized,
		PhoneticCode:   phonetic.Encode(normalized),
		SpeciesID:      id,
		CanonicalName:  strings.TrimSpace(canonical),
		DisplayName:    strings.TrimSpace(display),
		SourceTag:      sourceTag,
	}, true
}

// SpeciesNames carries the catalog's authoritative naming for one species.
type SpeciesNames struct {
	CanonicalName string
	DisplayName   string
}
