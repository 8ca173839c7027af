package testsupport

import (
	"os"
	"testing"

	"vink/internal/catalog"
)

// Alias builds one alias record, failing the test on invalid input.
func Alias(t testing.TB, id catalog.SpeciesID, aliasText, canonical string) catalog.AliasRecord {
	t.Helper()
	record, ok := catalog.NewAliasRecord(id, aliasText, canonical, "", "catalog")
	if !ok {
		t.Fatalf("alias %q for %q rejected", aliasText, id)
	}
	return record
}

// WriteSnapshot encodes records and writes them to path.
func WriteSnapshot(t testing.TB, path string, records []catalog.AliasRecord) {
	t.Helper()
	data, err := catalog.EncodeSnapshot(records)
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
}
