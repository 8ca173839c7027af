package resolver

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"vink/internal/catalog"
	"vink/internal/logging"
	"vink/internal/matcher"
	"vink/internal/testsupport"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	svc, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func seedCatalog(t *testing.T, svc *Service) {
	t.Helper()
	records := []catalog.AliasRecord{
		testsupport.Alias(t, "merel", "merel", "Merel"),
		testsupport.Alias(t, "merel", "swarte liester", "Merel"),
		testsupport.Alias(t, "vink", "vink", "Vink"),
		testsupport.Alias(t, "zanglijster", "zanglijster", "Zanglijster"),
	}
	if err := svc.OnCatalogChanged(context.Background(), records); err != nil {
		t.Fatalf("OnCatalogChanged: %v", err)
	}
}

func fieldContext() catalog.MatchContext {
	return catalog.NewContextBuilder().
		WithSpecies("merel", "Merel", "Merel").
		WithSpecies("vink", "Vink", "Vink").
		WithSpecies("zanglijster", "Zanglijster", "Zanglijster").
		Working("merel", "vink").
		Allowed("zanglijster").
		Build()
}

func TestResolveWithoutSnapshotReportsNoData(t *testing.T) {
	svc := newTestService(t)
	svc.SetContextProvider(func() catalog.MatchContext { return catalog.EmptyContext() })

	result, err := svc.ResolveSingle(context.Background(), "merel")
	if err != nil {
		t.Fatalf("ResolveSingle: %v", err)
	}
	if result.Outcome != matcher.OutcomeNoMatch || result.Reason != matcher.ReasonNoData {
		t.Fatalf("result = %+v, want no_match/no_data", result)
	}
}

func TestResolveExactInWorkingSet(t *testing.T) {
	svc := newTestService(t)
	seedCatalog(t, svc)
	svc.SetContextProvider(fieldContext)

	result, err := svc.ResolveSingle(context.Background(), "merel twee")
	if err != nil {
		t.Fatalf("ResolveSingle: %v", err)
	}
	if result.Outcome != matcher.OutcomeAutoAccept {
		t.Fatalf("Outcome = %q, want auto_accept", result.Outcome)
	}
	if result.Candidate == nil || result.Candidate.SpeciesID != "merel" {
		t.Fatalf("Candidate = %+v", result.Candidate)
	}
	if result.Amount != 2 {
		t.Fatalf("Amount = %d, want 2", result.Amount)
	}
}

func TestAddAliasPersistsAcrossRestart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	svc, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	records := []catalog.AliasRecord{testsupport.Alias(t, "merel", "merel", "Merel")}
	if err := svc.OnCatalogChanged(ctx, records); err != nil {
		t.Fatalf("OnCatalogChanged: %v", err)
	}
	svc.SetContextProvider(fieldContext)

	added, err := svc.AddAlias(ctx, "merel", "Swarte Liester", "", "")
	if err != nil {
		t.Fatalf("AddAlias: %v", err)
	}
	if !added {
		t.Fatal("first AddAlias reported duplicate")
	}
	added, err = svc.AddAlias(ctx, "merel", "swarte liester", "Merel", "Merel")
	if err != nil {
		t.Fatalf("duplicate AddAlias: %v", err)
	}
	if added {
		t.Fatal("duplicate AddAlias reported as added")
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A fresh service over the same data directory sees the learned alias.
	svc, err = New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer svc.Close()
	svc.SetContextProvider(fieldContext)

	result, err := svc.ResolveSingle(ctx, "swarte liester")
	if err != nil {
		t.Fatalf("ResolveSingle: %v", err)
	}
	if result.Outcome != matcher.OutcomeAutoAccept || result.Candidate.SpeciesID != "merel" {
		t.Fatalf("result = %+v, want merel via learned alias", result)
	}
}

func TestOnCatalogChangedReplacesAndKeepsLearned(t *testing.T) {
	svc := newTestService(t)
	seedCatalog(t, svc)
	svc.SetContextProvider(fieldContext)
	ctx := context.Background()

	if _, err := svc.AddAlias(ctx, "vink", "botvink", "Vink", ""); err != nil {
		t.Fatalf("AddAlias: %v", err)
	}

	// New catalog drops merel entirely; the observation context shrinks with it.
	if err := svc.OnCatalogChanged(ctx, []catalog.AliasRecord{
		testsupport.Alias(t, "vink", "vink", "Vink"),
	}); err != nil {
		t.Fatalf("OnCatalogChanged: %v", err)
	}
	svc.SetContextProvider(func() catalog.MatchContext {
		return catalog.NewContextBuilder().
			WithSpecies("vink", "Vink", "Vink").
			Working("vink").
			Build()
	})

	result, err := svc.ResolveSingle(ctx, "merel")
	if err != nil {
		t.Fatalf("ResolveSingle: %v", err)
	}
	if result.Outcome == matcher.OutcomeAutoAccept {
		t.Fatalf("dropped species still resolves: %+v", result)
	}

	result, err = svc.ResolveSingle(ctx, "botvink")
	if err != nil {
		t.Fatalf("ResolveSingle: %v", err)
	}
	if result.Outcome != matcher.OutcomeAutoAccept || result.Candidate.SpeciesID != "vink" {
		t.Fatalf("learned alias lost after refresh: %+v", result)
	}
}

func TestResolutionsReachAuditTrail(t *testing.T) {
	svc := newTestService(t)
	seedCatalog(t, svc)
	svc.SetContextProvider(fieldContext)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(runCtx) }()

	if _, err := svc.ResolveSingle(context.Background(), "merel"); err != nil {
		t.Fatalf("ResolveSingle: %v", err)
	}

	// Give the audit consumer a moment, then shut down; Run drains on exit.
	deadline := time.Now().Add(2 * time.Second)
	var files []string
	for time.Now().Before(deadline) {
		var err error
		files, err = svc.AuditFiles()
		if err != nil {
			t.Fatalf("AuditFiles: %v", err)
		}
		if len(files) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}

	files, err := svc.AuditFiles()
	if err != nil {
		t.Fatalf("AuditFiles: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no audit file written")
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	if !strings.Contains(string(data), `"input":"merel"`) {
		t.Fatalf("audit entry missing input: %s", data)
	}
}

func TestStartStopsCleanlyOnCancel(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v on clean cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestSeedWritesSnapshotFile(t *testing.T) {
	svc := newTestService(t)
	seedCatalog(t, svc)

	if _, err := os.Stat(svc.cfg.SnapshotPath()); err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if _, err := os.Stat(svc.cfg.SnapshotPath() + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp snapshot left behind")
	}
}
