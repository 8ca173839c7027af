package aliasstore

import (
	"context"
	"path/filepath"
	"testing"

	"vink/internal/catalog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "aliases.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustRecord(t *testing.T, id, alias, canonical string) catalog.AliasRecord {
	t.Helper()
	record, ok := catalog.NewAliasRecord(catalog.SpeciesID(id), alias, canonical, "", "learned")
	if !ok {
		t.Fatalf("record %q rejected", alias)
	}
	return record
}

func TestAddAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	added, err := store.Add(ctx, mustRecord(t, "merel", "swarte liester", "Merel"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !added {
		t.Fatal("first insert reported duplicate")
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("List returned %d records, want 1", len(records))
	}
	got := records[0]
	if got.SpeciesID != "merel" || got.NormalizedText != "swarte liester" {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.PhoneticCode == "" {
		t.Fatal("listed record missing phonetic code")
	}
}

func TestAddDuplicateIsIgnored(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := mustRecord(t, "merel", "Swarte Liester", "Merel")
	if added, err := store.Add(ctx, record); err != nil || !added {
		t.Fatalf("first Add = (%v, %v)", added, err)
	}
	// Same species and same normalized text, different raw casing.
	again := mustRecord(t, "merel", "swarte  liester", "Merel")
	added, err := store.Add(ctx, again)
	if err != nil {
		t.Fatalf("second Add: %v", err)
	}
	if added {
		t.Fatal("duplicate insert reported as added")
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("List returned %d records after duplicate, want 1", len(records))
	}
}

func TestSameAliasDifferentSpecies(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if added, err := store.Add(ctx, mustRecord(t, "merel", "lijster", "Merel")); err != nil || !added {
		t.Fatalf("Add merel = (%v, %v)", added, err)
	}
	added, err := store.Add(ctx, mustRecord(t, "zanglijster", "lijster", "Zanglijster"))
	if err != nil {
		t.Fatalf("Add zanglijster: %v", err)
	}
	if !added {
		t.Fatal("same alias for a different species was rejected")
	}
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := mustRecord(t, "merel", "swarte liester", "Merel")
	if _, err := store.Add(ctx, record); err != nil {
		t.Fatalf("Add: %v", err)
	}

	removed, err := store.Remove(ctx, "merel", record.NormalizedText)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("Remove reported no row")
	}
	removed, err = store.Remove(ctx, "merel", record.NormalizedText)
	if err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	if removed {
		t.Fatal("second Remove reported a row")
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Add(ctx, mustRecord(t, "vink", "botvink", "Vink")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].SpeciesID != "vink" {
		t.Fatalf("records after reopen = %+v", records)
	}
}
