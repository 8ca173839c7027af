package pipeline

import (
	"context"
	"log/slog"
	"time"

	"vink/internal/logging"
	"vink/internal/matcher"
)

// RunWorker drains the pending buffer until ctx is cancelled. It is the
// single consumer: items are processed serially, decoupled from any
// resolution call's lifetime. A timed-out item is re-enqueued at most once
// with the longer pending budget before being reported as timed out.
//
// Outcomes are delivered through the deferred handler and the observer; the
// caller that originally deferred the hypothesis already received a "queued"
// result and is never retroactively corrected.
func (p *Pipeline) RunWorker(ctx context.Context) error {
	logger := logging.NewComponentLogger(p.logger, "pipeline.worker")
	for {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, ok := p.pending.pop()
			if !ok {
				break
			}
			p.processPending(ctx, logger, item)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.pending.signal:
		}
	}
}

func (p *Pipeline) processPending(ctx context.Context, logger *slog.Logger, item pendingItem) {
	started := time.Now()
	result, timedOut := p.matchWithTimeout(ctx, item.Text, item.Context, p.opts.PendingTimeout)
	if ctx.Err() != nil {
		// Shutdown mid-attempt; the item's outcome is not fabricated.
		return
	}
	if timedOut {
		if item.Attempts == 0 {
			item.Attempts = 1
			p.pending.push(item)
			logger.Debug("pending attempt timed out, re-enqueued once",
				logging.String("pending_id", item.ID))
			return
		}
		result = matcher.NoMatch(matcher.ReasonTimedOut)
	}

	result = result.WithAmount(item.Amount)
	logger.Info("deferred hypothesis resolved",
		logging.String("pending_id", item.ID),
		logging.String("text", item.Text),
		logging.String("outcome", string(result.Outcome)),
		logging.Duration("elapsed", time.Since(started)),
		logging.Duration("queued_for", started.Sub(item.EnqueuedAt)))

	p.emitDeferred(DeferredResult{ID: item.ID, Text: item.Text, Amount: item.Amount, Result: result})
	p.emit(Event{
		ResolutionID: item.ID,
		Input:        item.Text,
		Hypotheses:   []Hypothesis{{Text: item.Text, Confidence: item.Confidence}},
		Result:       result,
		Deferred:     true,
		Elapsed:      time.Since(started),
	})
}
