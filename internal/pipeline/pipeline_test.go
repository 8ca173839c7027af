package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"vink/internal/aliasindex"
	"vink/internal/catalog"
	"vink/internal/matcher"
)

func loadedIndex(t *testing.T, records ...catalog.AliasRecord) *aliasindex.Index {
	t.Helper()
	data, err := catalog.EncodeSnapshot(records)
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}
	ix := aliasindex.New()
	if err := ix.Load(data); err != nil {
		t.Fatalf("load: %v", err)
	}
	return ix
}

func rec(t *testing.T, id catalog.SpeciesID, alias, canonical string) catalog.AliasRecord {
	t.Helper()
	record, ok := catalog.NewAliasRecord(id, alias, canonical, canonical, "test")
	if !ok {
		t.Fatalf("invalid record %q", alias)
	}
	return record
}

func buzzardContext() catalog.MatchContext {
	return catalog.NewContextBuilder().
		WithSpecies("s1", "Buizerd", "Buizerd").
		WithSpecies("s2", "Visarend", "Visarend").
		Working("s1").
		Allowed("s2").
		Build()
}

func newPipeline(t *testing.T, ix *aliasindex.Index, opts Options) *Pipeline {
	t.Helper()
	m := matcher.New(ix, matcher.Policy{}, nil)
	return New(m, ix, opts, nil)
}

func TestFastPathWorkingSetWithAmount(t *testing.T) {
	ix := loadedIndex(t, rec(t, "s1", "buizerd", "Buizerd"), rec(t, "s2", "visarend", "Visarend"))
	p := newPipeline(t, ix, Options{})

	result, err := p.Resolve(context.Background(), []Hypothesis{{Text: "buizerd 3", Confidence: 0.95}}, buzzardContext())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Outcome != matcher.OutcomeAutoAccept || result.Candidate.SpeciesID != "s1" {
		t.Fatalf("expected fast-path auto accept for s1, got %+v", result)
	}
	if result.Amount != 3 {
		t.Fatalf("expected amount 3, got %d", result.Amount)
	}
}

func TestFastPathSpokenAmount(t *testing.T) {
	ix := loadedIndex(t, rec(t, "s1", "buizerd", "Buizerd"))
	p := newPipeline(t, ix, Options{})

	result, err := p.Resolve(context.Background(), []Hypothesis{{Text: "buizerd drie", Confidence: 0.9}}, buzzardContext())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Outcome != matcher.OutcomeAutoAccept || result.Amount != 3 {
		t.Fatalf("spoken quantity not honored: %+v", result)
	}
}

func TestFastPathAllowedSetNeedsHighConfidence(t *testing.T) {
	ix := loadedIndex(t, rec(t, "s2", "visarend", "Visarend"))
	p := newPipeline(t, ix, Options{})
	ctx := buzzardContext()

	// 0.9 < 0.99: the fast path declines, the cascade still resolves it.
	result, err := p.Resolve(context.Background(), []Hypothesis{{Text: "visarend", Confidence: 0.9}}, ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Outcome != matcher.OutcomeAutoAcceptAdd || result.Candidate.SpeciesID != "s2" {
		t.Fatalf("expected add popup via cascade, got %+v", result)
	}
	if result.Amount != 1 {
		t.Fatalf("default amount must be 1, got %d", result.Amount)
	}

	confident, err := p.Resolve(context.Background(), []Hypothesis{{Text: "visarend 2", Confidence: 0.99}}, ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if confident.Outcome != matcher.OutcomeAutoAcceptAdd || confident.Amount != 2 {
		t.Fatalf("expected fast-path add popup with amount 2, got %+v", confident)
	}
}

func TestResolveNoHypotheses(t *testing.T) {
	p := newPipeline(t, loadedIndex(t), Options{})
	result, err := p.Resolve(context.Background(), nil, catalog.EmptyContext())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Outcome != matcher.OutcomeNoMatch || result.Reason != matcher.ReasonEmptyInput {
		t.Fatalf("expected empty_input, got %+v", result)
	}
}

func TestResolveNoCatalog(t *testing.T) {
	ix := aliasindex.New()
	if err := ix.Load(nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	p := newPipeline(t, ix, Options{})
	result, err := p.Resolve(context.Background(), []Hypothesis{{Text: "anything", Confidence: 0.9}}, catalog.EmptyContext())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Outcome != matcher.OutcomeNoMatch || result.Reason != matcher.ReasonNoData {
		t.Fatalf("expected no_data, got %+v", result)
	}
}

func TestResolveCancelled(t *testing.T) {
	p := newPipeline(t, loadedIndex(t, rec(t, "s1", "buizerd", "Buizerd")), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Resolve(ctx, []Hypothesis{{Text: "merel", Confidence: 0.5}}, buzzardContext()); err == nil {
		t.Fatalf("cancellation must propagate")
	}
}

// slowCascade blocks until released, simulating a heavy match attempt.
type slowCascade struct {
	delay  time.Duration
	result matcher.Result
}

func (s *slowCascade) Match(string, catalog.MatchContext) matcher.Result {
	time.Sleep(s.delay)
	return s.result
}

func TestHeavyPathTimeoutReturnsQueued(t *testing.T) {
	ix := loadedIndex(t)
	slow := &slowCascade{delay: 200 * time.Millisecond, result: matcher.NoMatch(matcher.ReasonNoCandidates)}
	p := New(slow, ix, Options{InlineTimeout: 20 * time.Millisecond, FallbackTimeout: 5 * time.Millisecond}, nil)

	result, err := p.Resolve(context.Background(), []Hypothesis{{Text: "trage soort", Confidence: 0.8}}, catalog.EmptyContext())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Outcome != matcher.OutcomeNoMatch || result.Reason != matcher.ReasonQueued {
		t.Fatalf("expected queued, got %+v", result)
	}
	if p.pending.len() != 1 {
		t.Fatalf("expected one pending item, got %d", p.pending.len())
	}
}

func TestPendingBufferBounded(t *testing.T) {
	buffer := newPendingBuffer(3)
	for i := 0; i < 5; i++ {
		buffer.push(pendingItem{ID: fmt.Sprintf("p%d", i)})
	}
	if buffer.len() != 3 {
		t.Fatalf("capacity not enforced: %d", buffer.len())
	}
	if buffer.drops() != 2 {
		t.Fatalf("expected 2 drops, got %d", buffer.drops())
	}
	// FIFO eviction: the two oldest are gone.
	first, ok := buffer.pop()
	if !ok || first.ID != "p2" {
		t.Fatalf("expected p2 first, got %+v", first)
	}
}

func TestWorkerResolvesDeferred(t *testing.T) {
	ix := loadedIndex(t, rec(t, "s1", "buizerd", "Buizerd"))
	m := matcher.New(ix, matcher.Policy{}, nil)
	p := New(m, ix, Options{PendingTimeout: time.Second}, nil)

	var mu sync.Mutex
	var got []DeferredResult
	p.SetDeferredHandler(func(d DeferredResult) {
		mu.Lock()
		got = append(got, d)
		mu.Unlock()
	})

	p.pending.push(pendingItem{
		ID:         "p1",
		Text:       "buizerd",
		Amount:     2,
		Confidence: 0.9,
		Context:    buzzardContext(),
		EnqueuedAt: time.Now(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	workerDone := make(chan error, 1)
	go func() { workerDone <- p.RunWorker(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("worker never delivered the deferred result")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-workerDone

	mu.Lock()
	defer mu.Unlock()
	if got[0].Result.Outcome != matcher.OutcomeAutoAccept || got[0].Amount != 2 {
		t.Fatalf("unexpected deferred outcome: %+v", got[0])
	}
}

func TestWorkerReportsTimedOutAfterRetry(t *testing.T) {
	ix := loadedIndex(t)
	slow := &slowCascade{delay: 300 * time.Millisecond, result: matcher.NoMatch(matcher.ReasonNoCandidates)}
	p := New(slow, ix, Options{PendingTimeout: 10 * time.Millisecond}, nil)

	results := make(chan DeferredResult, 1)
	p.SetDeferredHandler(func(d DeferredResult) { results <- d })

	p.pending.push(pendingItem{ID: "p1", Text: "trage soort", Context: catalog.EmptyContext(), EnqueuedAt: time.Now()})

	ctx, cancel := context.WithCancel(context.Background())
	workerDone := make(chan error, 1)
	go func() { workerDone <- p.RunWorker(ctx) }()

	select {
	case deferred := <-results:
		if deferred.Result.Outcome != matcher.OutcomeNoMatch || deferred.Result.Reason != matcher.ReasonTimedOut {
			t.Fatalf("expected timed_out after single retry, got %+v", deferred.Result)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("worker never gave up on the pending item")
	}
	cancel()
	<-workerDone
}

func TestObserverReceivesEvent(t *testing.T) {
	ix := loadedIndex(t, rec(t, "s1", "buizerd", "Buizerd"))
	p := newPipeline(t, ix, Options{})

	events := make(chan Event, 1)
	p.SetObserver(func(e Event) { events <- e })

	if _, err := p.Resolve(context.Background(), []Hypothesis{{Text: "buizerd", Confidence: 0.95}}, buzzardContext()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	select {
	case event := <-events:
		if event.ResolutionID == "" || event.Result.Outcome != matcher.OutcomeAutoAccept || event.Deferred {
			t.Fatalf("unexpected event: %+v", event)
		}
	default:
		t.Fatalf("observer not invoked")
	}
}

func TestRankOrderFirstAutoAcceptWins(t *testing.T) {
	ix := loadedIndex(t,
		rec(t, "s1", "buizerd", "Buizerd"),
		rec(t, "s2", "visarend", "Visarend"),
	)
	ctx := catalog.NewContextBuilder().
		WithSpecies("s1", "Buizerd", "Buizerd").
		WithSpecies("s2", "Visarend", "Visarend").
		Working("s1", "s2").
		Build()
	p := newPipeline(t, ix, Options{})

	result, err := p.Resolve(context.Background(), []Hypothesis{
		{Text: "buizerd", Confidence: 0.6},
		{Text: "visarend", Confidence: 0.99},
	}, ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Candidate == nil || result.Candidate.SpeciesID != "s1" {
		t.Fatalf("higher-ranked hypothesis must win, got %+v", result)
	}
}
