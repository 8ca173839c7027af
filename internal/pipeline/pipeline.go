package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vink/internal/aliasindex"
	"vink/internal/catalog"
	"vink/internal/logging"
	"vink/internal/matcher"
	"vink/internal/numword"
	"vink/internal/textutil"
)

// Hypothesis is one ranked transcription alternative with its ASR confidence.
type Hypothesis struct {
	Text       string
	Confidence float64
}

// Event describes one completed resolution for observers (audit logging).
type Event struct {
	ResolutionID string
	Input        string
	Hypotheses   []Hypothesis
	Result       matcher.Result
	Deferred     bool
	Elapsed      time.Duration
}

// Observer receives resolution events. Observers must not block; the audit
// layer behind them is itself non-blocking.
type Observer func(Event)

// DeferredResult reports the out-of-band outcome of a queued hypothesis. It
// is a separate, later event, never a retroactive correction of the result
// already returned for the original call.
type DeferredResult struct {
	ID     string
	Text   string
	Amount int
	Result matcher.Result
}

// Cascade is the matching strategy the pipeline drives; satisfied by
// *matcher.Matcher.
type Cascade interface {
	Match(normalized string, ctx catalog.MatchContext) matcher.Result
}

// Pipeline resolves ranked hypotheses against the matching cascade.
type Pipeline struct {
	matcher Cascade
	index   *aliasindex.Index
	opts    Options
	logger  *slog.Logger
	pending *pendingBuffer

	mu       sync.RWMutex
	observer Observer
	deferred func(DeferredResult)
}

// New constructs a pipeline around a matching cascade and its index.
func New(m Cascade, index *aliasindex.Index, opts Options, logger *slog.Logger) *Pipeline {
	opts = opts.normalized()
	return &Pipeline{
		matcher: m,
		index:   index,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		pending: newPendingBuffer(opts.PendingCapacity),
	}
}

// SetObserver registers the audit observer for resolution events.
func (p *Pipeline) SetObserver(observer Observer) {
	p.mu.Lock()
	p.observer = observer
	p.mu.Unlock()
}

// SetDeferredHandler registers the callback for background outcomes.
func (p *Pipeline) SetDeferredHandler(handler func(DeferredResult)) {
	p.mu.Lock()
	p.deferred = handler
	p.mu.Unlock()
}

// PendingDrops reports how many deferred hypotheses were evicted unprocessed.
func (p *Pipeline) PendingDrops() uint64 {
	return p.pending.drops()
}

// ResolveSingle resolves one utterance with full confidence.
func (p *Pipeline) ResolveSingle(ctx context.Context, text string, mctx catalog.MatchContext) (matcher.Result, error) {
	return p.Resolve(ctx, []Hypothesis{{Text: text, Confidence: 1.0}}, mctx)
}

// Resolve walks hypotheses best-first and returns exactly one typed result.
// The only error it returns is the caller's own cancellation; match failures
// are typed NoMatch results.
func (p *Pipeline) Resolve(ctx context.Context, hypotheses []Hypothesis, mctx catalog.MatchContext) (matcher.Result, error) {
	started := time.Now()
	resolutionID := uuid.NewString()

	result, err := p.resolve(ctx, hypotheses, mctx)
	if err != nil {
		return matcher.Result{}, err
	}

	input := ""
	if len(hypotheses) > 0 {
		input = hypotheses[0].Text
	}
	p.emit(Event{
		ResolutionID: resolutionID,
		Input:        input,
		Hypotheses:   hypotheses,
		Result:       result,
		Elapsed:      time.Since(started),
	})
	return result, nil
}

func (p *Pipeline) resolve(ctx context.Context, hypotheses []Hypothesis, mctx catalog.MatchContext) (matcher.Result, error) {
	if len(hypotheses) == 0 {
		return matcher.NoMatch(matcher.ReasonEmptyInput), nil
	}
	if err := ctx.Err(); err != nil {
		return matcher.Result{}, err
	}

	if result, ok := p.fastPath(hypotheses, mctx); ok {
		return result, nil
	}
	return p.heavyPath(ctx, hypotheses, mctx)
}

// heavyPath runs the cascade for the top hypotheses under inline timeouts.
func (p *Pipeline) heavyPath(ctx context.Context, hypotheses []Hypothesis, mctx catalog.MatchContext) (matcher.Result, error) {
	limit := p.opts.HeavyHypotheses
	if limit > len(hypotheses) {
		limit = len(hypotheses)
	}

	var best matcher.Result
	bestBlended := -1.0
	fallbackReason := ""
	deferredCount := 0

	for _, hyp := range hypotheses[:limit] {
		if err := ctx.Err(); err != nil {
			return matcher.Result{}, err
		}
		normalized := textutil.Normalize(hyp.Text)
		rest, amount, _ := numword.SplitTrailingAmount(normalized)
		if rest == "" {
			continue
		}

		result, timedOut := p.matchWithTimeout(ctx, rest, mctx, p.opts.InlineTimeout)
		if err := ctx.Err(); err != nil {
			// Cancellation propagates; nothing is deferred on behalf of a
			// caller that walked away.
			return matcher.Result{}, err
		}
		if timedOut {
			if p.deferHypothesis(ctx, rest, amount, hyp.Confidence, mctx, &result) {
				deferredCount++
				continue
			}
			// Fallback attempt succeeded; fall through with its result.
		}

		switch result.Outcome {
		case matcher.OutcomeAutoAccept, matcher.OutcomeAutoAcceptAdd:
			// First auto-accept wins; lower-ranked hypotheses are not consulted.
			return result.WithAmount(amount), nil
		case matcher.OutcomeSuggestions:
			blended := p.blend(hyp.Confidence, result.TopScore())
			if blended > bestBlended {
				bestBlended = blended
				best = result.WithAmount(amount)
			}
		case matcher.OutcomeNoMatch:
			if fallbackReason == "" {
				fallbackReason = result.Reason
			}
		}
	}

	if best.Outcome == matcher.OutcomeSuggestions {
		return best, nil
	}
	if deferredCount > 0 {
		return matcher.NoMatch(matcher.ReasonQueued), nil
	}
	if fallbackReason == "" {
		fallbackReason = matcher.ReasonNoCandidates
	}
	return matcher.NoMatch(fallbackReason), nil
}

// deferHypothesis moves a timed-out hypothesis to the background buffer.
// When the buffer is already full it first tries one last inline attempt
// with the short fallback timeout; on success the result is written through
// result and false is returned.
func (p *Pipeline) deferHypothesis(ctx context.Context, text string, amount int, confidence float64, mctx catalog.MatchContext, result *matcher.Result) bool {
	if p.pending.full() {
		fallback, timedOut := p.matchWithTimeout(ctx, text, mctx, p.opts.FallbackTimeout)
		if !timedOut {
			*result = fallback
			return false
		}
	}
	item := pendingItem{
		ID:         uuid.NewString(),
		Text:       text,
		Amount:     amount,
		Confidence: confidence,
		Context:    mctx,
		EnqueuedAt: time.Now(),
	}
	if evicted := p.pending.push(item); evicted {
		p.logger.Warn("pending buffer overflow, oldest hypothesis dropped",
			logging.Int("capacity", p.opts.PendingCapacity))
	}
	p.logger.Debug("hypothesis deferred to background worker",
		logging.String("pending_id", item.ID),
		logging.String("text", text))
	return true
}

// matchWithTimeout runs one cascade attempt bounded by the given budget.
// The cascade itself is CPU-bound and uninterruptible, so the attempt runs
// in its own goroutine and delivers into a buffered channel; an abandoned
// attempt finishes on its own without leaking.
func (p *Pipeline) matchWithTimeout(ctx context.Context, text string, mctx catalog.MatchContext, budget time.Duration) (matcher.Result, bool) {
	done := make(chan matcher.Result, 1)
	go func() {
		done <- p.matcher.Match(text, mctx)
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case result := <-done:
		return result, false
	case <-timer.C:
		return matcher.NoMatch(matcher.ReasonTimedOut), true
	case <-ctx.Done():
		return matcher.NoMatch(matcher.ReasonTimedOut), true
	}
}

func (p *Pipeline) blend(confidence, matcherScore float64) float64 {
	return p.opts.ASRWeight*confidence + (1-p.opts.ASRWeight)*matcherScore
}

func (p *Pipeline) emit(event Event) {
	p.mu.RLock()
	observer := p.observer
	p.mu.RUnlock()
	if observer != nil {
		observer(event)
	}
}

func (p *Pipeline) emitDeferred(result DeferredResult) {
	p.mu.RLock()
	handler := p.deferred
	p.mu.RUnlock()
	if handler != nil {
		handler(result)
	}
}
