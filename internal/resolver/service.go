package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vink/internal/aliasindex"
	"vink/internal/aliasstore"
	"vink/internal/audit"
	"vink/internal/catalog"
	"vink/internal/config"
	"vink/internal/logging"
	"vink/internal/matcher"
	"vink/internal/pipeline"
)

// ContextProvider supplies the current observation context for each
// resolution: which species are on the list, allowed in the area, and
// recently confirmed.
type ContextProvider func() catalog.MatchContext

// Service owns the full resolution stack for one catalog.
type Service struct {
	cfg      *config.Config
	logger   *slog.Logger
	index    *aliasindex.Index
	store    *aliasstore.Store
	pipeline *pipeline.Pipeline
	audit    *audit.Logger

	mu       sync.RWMutex
	provider ContextProvider
}

// New builds the service from configuration. The catalog snapshot is not
// read here; the index loads lazily on first resolution so startup stays
// cheap when no snapshot exists yet.
func New(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := aliasstore.Open(cfg.AliasDBPath())
	if err != nil {
		return nil, fmt.Errorf("open alias store: %w", err)
	}

	auditLogger, err := audit.New(audit.Options{
		Dir:             cfg.Paths.AuditDir,
		MirrorDir:       cfg.Paths.MirrorDir,
		QueueCapacity:   cfg.Audit.QueueCapacity,
		RetentionDays:   cfg.Audit.RetentionDays,
		MirrorTailLines: cfg.Audit.MirrorTailLines,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	index := aliasindex.New()
	cascade := matcher.New(index, matcher.Policy{
		AutoAcceptScore:  cfg.Matcher.AutoAcceptScore,
		AutoAcceptMargin: cfg.Matcher.AutoAcceptMargin,
		SuggestScore:     cfg.Matcher.SuggestScore,
		MaxSuggestions:   cfg.Matcher.MaxSuggestions,
		FuzzyPoolSize:    cfg.Matcher.FuzzyPoolSize,
		FuzzyMinScore:    cfg.Matcher.FuzzyMinScore,
	}, logger)

	pipe := pipeline.New(cascade, index, pipeline.Options{
		HeavyHypotheses:    cfg.Pipeline.HeavyHypotheses,
		InlineTimeout:      time.Duration(cfg.Pipeline.InlineTimeoutMS) * time.Millisecond,
		FallbackTimeout:    time.Duration(cfg.Pipeline.FallbackTimeoutMS) * time.Millisecond,
		PendingTimeout:     time.Duration(cfg.Pipeline.PendingTimeoutMS) * time.Millisecond,
		PendingCapacity:    cfg.Pipeline.PendingCapacity,
		ASRWeight:          cfg.Pipeline.ASRWeight,
		FastPathConfidence: cfg.Pipeline.FastPathConfidence,
	}, logger)

	svc := &Service{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "resolver"),
		index:    index,
		store:    store,
		pipeline: pipe,
		audit:    auditLogger,
	}
	pipe.SetObserver(svc.observe)
	return svc, nil
}

// Start runs the background goroutines (audit consumer, pending worker)
// until ctx is cancelled. Cancellation is a clean shutdown, not an error.
func (s *Service) Start(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return s.audit.Run(ctx) })
	group.Go(func() error { return s.pipeline.RunWorker(ctx) })
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases the learned-alias store.
func (s *Service) Close() error {
	return s.store.Close()
}

// SetContextProvider registers the observation-context source. Without one,
// resolutions run against an empty context and can only produce suggestions
// or no-match outcomes.
func (s *Service) SetContextProvider(provider ContextProvider) {
	s.mu.Lock()
	s.provider = provider
	s.mu.Unlock()
}

// SetDeferredHandler registers the callback for background resolutions.
func (s *Service) SetDeferredHandler(handler func(pipeline.DeferredResult)) {
	s.pipeline.SetDeferredHandler(handler)
}

func (s *Service) matchContext() catalog.MatchContext {
	s.mu.RLock()
	provider := s.provider
	s.mu.RUnlock()
	if provider == nil {
		return catalog.EmptyContext()
	}
	return provider()
}

// ensureIndex loads the snapshot and overlays learned aliases, once.
func (s *Service) ensureIndex(ctx context.Context) error {
	if s.index.Loaded() {
		return nil
	}
	err := s.index.EnsureLoaded(func() ([]byte, error) {
		data, err := os.ReadFile(s.cfg.SnapshotPath())
		if errors.Is(err, fs.ErrNotExist) {
			// No snapshot yet; the index stays empty and resolutions report
			// no_data until one is built.
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		return fmt.Errorf("load catalog snapshot: %w", err)
	}

	learned, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load learned aliases: %w", err)
	}
	patched := 0
	for _, record := range learned {
		if s.index.HotPatch(record) {
			patched++
		}
	}
	s.logger.Info("catalog index ready",
		logging.Int("aliases", s.index.Len()),
		logging.Int("species", s.index.SpeciesCount()),
		logging.Int("learned", patched))
	return nil
}

// Resolve resolves ranked hypotheses against the current context.
func (s *Service) Resolve(ctx context.Context, hypotheses []pipeline.Hypothesis) (matcher.Result, error) {
	if err := s.ensureIndex(ctx); err != nil {
		return matcher.Result{}, err
	}
	return s.pipeline.Resolve(ctx, hypotheses, s.matchContext())
}

// ResolveSingle resolves one utterance with full confidence.
func (s *Service) ResolveSingle(ctx context.Context, text string) (matcher.Result, error) {
	return s.Resolve(ctx, []pipeline.Hypothesis{{Text: text, Confidence: 1.0}})
}

// AddAlias learns a new alias for a species, persisting it and patching the
// live index. Empty canonical and display names fall back to the context's
// naming, then to the species id. Returns false when the species already
// carries an alias with the same normalized text.
func (s *Service) AddAlias(ctx context.Context, id catalog.SpeciesID, aliasText, canonical, display string) (bool, error) {
	if err := s.ensureIndex(ctx); err != nil {
		return false, err
	}

	if canonical == "" || display == "" {
		names, _ := s.matchContext().NamesFor(id)
		if canonical == "" {
			canonical = names.CanonicalName
		}
		if display == "" {
			display = names.DisplayName
		}
	}
	if canonical == "" {
		canonical = string(id)
	}
	record, ok := catalog.NewAliasRecord(id, aliasText, canonical, display, "learned")
	if !ok {
		return false, fmt.Errorf("alias %q normalizes to nothing", aliasText)
	}

	added, err := s.store.Add(ctx, record)
	if err != nil {
		return false, err
	}
	if !added {
		return false, nil
	}
	s.index.HotPatch(record)
	s.logger.Info("alias learned",
		logging.String("species", string(id)),
		logging.String("alias", record.NormalizedText))
	return true, nil
}

// LearnedAliases lists the persisted operator-taught aliases.
func (s *Service) LearnedAliases(ctx context.Context) ([]catalog.AliasRecord, error) {
	return s.store.List(ctx)
}

// OnCatalogChanged installs a fresh catalog: the snapshot is rewritten and
// the live index swapped, with learned aliases re-applied on top.
func (s *Service) OnCatalogChanged(ctx context.Context, records []catalog.AliasRecord) error {
	data, err := catalog.EncodeSnapshot(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := s.cfg.SnapshotPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.cfg.SnapshotPath()); err != nil {
		return fmt.Errorf("install snapshot: %w", err)
	}

	s.index.Replace(records)
	learned, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load learned aliases: %w", err)
	}
	for _, record := range learned {
		s.index.HotPatch(record)
	}
	s.logger.Info("catalog refreshed",
		logging.Int("aliases", s.index.Len()),
		logging.Int("species", s.index.SpeciesCount()))
	return nil
}

// AuditDrops reports audit entries discarded under backpressure.
func (s *Service) AuditDrops() uint64 {
	return s.audit.Drops()
}

// AuditFiles lists the local audit trail files.
func (s *Service) AuditFiles() ([]string, error) {
	return s.audit.LocalFiles()
}

// observe maps pipeline events onto audit entries.
func (s *Service) observe(event pipeline.Event) {
	entry := audit.Entry{
		ID:        event.ResolutionID,
		Timestamp: time.Now().UTC(),
		Input:     event.Input,
		Outcome:   string(event.Result.Outcome),
		Reason:    event.Result.Reason,
		Amount:    event.Result.Amount,
		Deferred:  event.Deferred,
		ElapsedMS: event.Elapsed.Milliseconds(),
	}
	for _, hyp := range event.Hypotheses {
		entry.Hypotheses = append(entry.Hypotheses, audit.HypothesisRecord{
			Text:       hyp.Text,
			Confidence: hyp.Confidence,
		})
	}
	if event.Result.Candidate != nil {
		entry.Winner = candidateRecord(*event.Result.Candidate)
	}
	for _, candidate := range event.Result.Suggestions {
		entry.Suggestions = append(entry.Suggestions, *candidateRecord(candidate))
	}
	s.audit.Enqueue(entry)
}

func candidateRecord(candidate matcher.Candidate) *audit.CandidateRecord {
	return &audit.CandidateRecord{
		SpeciesID:   string(candidate.SpeciesID),
		DisplayName: candidate.DisplayName,
		AliasText:   candidate.AliasText,
		Score:       candidate.Score,
	}
}
