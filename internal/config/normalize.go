package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMatcher()
	c.normalizePipeline()
	c.normalizeAudit()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AuditDir) == "" {
		c.Paths.AuditDir = defaultAuditDir
	}
	if c.Paths.AuditDir, err = expandPath(c.Paths.AuditDir); err != nil {
		return fmt.Errorf("paths.audit_dir: %w", err)
	}
	c.Paths.MirrorDir = strings.TrimSpace(c.Paths.MirrorDir)
	if c.Paths.MirrorDir != "" {
		if c.Paths.MirrorDir, err = expandPath(c.Paths.MirrorDir); err != nil {
			return fmt.Errorf("paths.mirror_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeMatcher() {
	if c.Matcher.AutoAcceptScore <= 0 {
		c.Matcher.AutoAcceptScore = defaultAutoAcceptScore
	}
	if c.Matcher.AutoAcceptMargin <= 0 {
		c.Matcher.AutoAcceptMargin = defaultAutoAcceptMargin
	}
	if c.Matcher.SuggestScore <= 0 {
		c.Matcher.SuggestScore = defaultSuggestScore
	}
	if c.Matcher.MaxSuggestions <= 0 {
		c.Matcher.MaxSuggestions = defaultMaxSuggestions
	}
	if c.Matcher.FuzzyPoolSize <= 0 {
		c.Matcher.FuzzyPoolSize = defaultFuzzyPoolSize
	}
	if c.Matcher.FuzzyMinScore <= 0 {
		c.Matcher.FuzzyMinScore = defaultFuzzyMinScore
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.InlineTimeoutMS <= 0 {
		c.Pipeline.InlineTimeoutMS = defaultInlineTimeoutMS
	}
	if c.Pipeline.FallbackTimeoutMS <= 0 {
		c.Pipeline.FallbackTimeoutMS = defaultFallbackTimeoutMS
	}
	if c.Pipeline.PendingTimeoutMS <= 0 {
		c.Pipeline.PendingTimeoutMS = defaultPendingTimeoutMS
	}
	if c.Pipeline.PendingCapacity <= 0 {
		c.Pipeline.PendingCapacity = defaultPendingCapacity
	}
	if c.Pipeline.HeavyHypotheses <= 0 {
		c.Pipeline.HeavyHypotheses = defaultHeavyHypotheses
	}
	if c.Pipeline.FastPathConfidence <= 0 {
		c.Pipeline.FastPathConfidence = defaultFastPathConf
	}
	if c.Pipeline.ASRWeight <= 0 {
		c.Pipeline.ASRWeight = defaultASRWeight
	}
}

func (c *Config) normalizeAudit() {
	if c.Audit.QueueCapacity <= 0 {
		c.Audit.QueueCapacity = defaultAuditQueue
	}
	if c.Audit.RetentionDays <= 0 {
		c.Audit.RetentionDays = defaultAuditRetention
	}
	if c.Audit.MirrorTailLines <= 0 {
		c.Audit.MirrorTailLines = defaultMirrorTailLines
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
