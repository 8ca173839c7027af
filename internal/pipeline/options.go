package pipeline

import "time"

// Options tunes the resolution pipeline. Zero values fall back to defaults.
type Options struct {
	// FastPathHypotheses is how many top hypotheses get an exact-lookup pass.
	FastPathHypotheses int
	// HeavyHypotheses is how many top hypotheses may run the full cascade.
	HeavyHypotheses int
	// InlineTimeout bounds one heavy cascade attempt inside the call.
	InlineTimeout time.Duration
	// FallbackTimeout bounds the last-chance inline attempt when the pending
	// buffer is already full.
	FallbackTimeout time.Duration
	// PendingTimeout bounds one background attempt on a deferred hypothesis.
	PendingTimeout time.Duration
	// PendingCapacity bounds the deferred buffer; oldest entries are
	// overwritten on overflow.
	PendingCapacity int
	// ASRWeight blends recognizer confidence with matcher score.
	ASRWeight float64
	// FastPathConfidence gates fast-path auto-accept outside the working set.
	FastPathConfidence float64
}

// DefaultOptions returns the converged production tuning.
func DefaultOptions() Options {
	return Options{
		FastPathHypotheses: 3,
		HeavyHypotheses:    3,
		InlineTimeout:      300 * time.Millisecond,
		FallbackTimeout:    150 * time.Millisecond,
		PendingTimeout:     1200 * time.Millisecond,
		PendingCapacity:    8,
		ASRWeight:          0.4,
		FastPathConfidence: 0.99,
	}
}

func (o Options) normalized() Options {
	defaults := DefaultOptions()
	if o.FastPathHypotheses <= 0 {
		o.FastPathHypotheses = defaults.FastPathHypotheses
	}
	if o.HeavyHypotheses <= 0 {
		o.HeavyHypotheses = defaults.HeavyHypotheses
	}
	if o.InlineTimeout <= 0 {
		o.InlineTimeout = defaults.InlineTimeout
	}
	if o.FallbackTimeout <= 0 {
		o.FallbackTimeout = defaults.FallbackTimeout
	}
	if o.PendingTimeout <= 0 {
		o.PendingTimeout = defaults.PendingTimeout
	}
	if o.PendingCapacity <= 0 {
		o.PendingCapacity = defaults.PendingCapacity
	}
	if o.ASRWeight <= 0 || o.ASRWeight >= 1 {
		o.ASRWeight = defaults.ASRWeight
	}
	if o.FastPathConfidence <= 0 {
		o.FastPathConfidence = defaults.FastPathConfidence
	}
	return o
}
