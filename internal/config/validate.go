package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatcher(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatcher() error {
	if err := ensureUnitInterval(map[string]float64{
		"matcher.auto_accept_score":  c.Matcher.AutoAcceptScore,
		"matcher.auto_accept_margin": c.Matcher.AutoAcceptMargin,
		"matcher.suggest_score":      c.Matcher.SuggestScore,
		"matcher.fuzzy_min_score":    c.Matcher.FuzzyMinScore,
	}); err != nil {
		return err
	}
	if c.Matcher.SuggestScore > c.Matcher.AutoAcceptScore {
		return errors.New("matcher.suggest_score must not exceed matcher.auto_accept_score")
	}
	if c.Matcher.MaxSuggestions < 3 {
		return errors.New("matcher.max_suggestions must be at least 3")
	}
	if c.Matcher.FuzzyPoolSize < c.Matcher.MaxSuggestions {
		return errors.New("matcher.fuzzy_pool_size must be at least matcher.max_suggestions")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if err := ensurePositiveMap(map[string]int{
		"pipeline.inline_timeout_ms":   c.Pipeline.InlineTimeoutMS,
		"pipeline.fallback_timeout_ms": c.Pipeline.FallbackTimeoutMS,
		"pipeline.pending_timeout_ms":  c.Pipeline.PendingTimeoutMS,
		"pipeline.pending_capacity":    c.Pipeline.PendingCapacity,
		"pipeline.heavy_hypotheses":    c.Pipeline.HeavyHypotheses,
	}); err != nil {
		return err
	}
	if c.Pipeline.FallbackTimeoutMS > c.Pipeline.InlineTimeoutMS {
		return errors.New("pipeline.fallback_timeout_ms must not exceed pipeline.inline_timeout_ms")
	}
	if err := ensureUnitInterval(map[string]float64{
		"pipeline.fast_path_confidence": c.Pipeline.FastPathConfidence,
		"pipeline.asr_weight":           c.Pipeline.ASRWeight,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudit() error {
	return ensurePositiveMap(map[string]int{
		"audit.queue_capacity":    c.Audit.QueueCapacity,
		"audit.retention_days":    c.Audit.RetentionDays,
		"audit.mirror_tail_lines": c.Audit.MirrorTailLines,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func ensureUnitInterval(values map[string]float64) error {
	for key, value := range values {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", key)
		}
	}
	return nil
}
