package config

const (
	defaultDataDir           = "~/.local/share/vink"
	defaultLogDir            = "~/.local/share/vink/logs"
	defaultAuditDir          = "~/.local/share/vink/audit"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 60
	defaultAutoAcceptScore   = 0.70
	defaultAutoAcceptMargin  = 0.12
	defaultSuggestScore      = 0.45
	defaultMaxSuggestions    = 5
	defaultFuzzyPoolSize     = 12
	defaultFuzzyMinScore     = 0.30
	defaultInlineTimeoutMS   = 300
	defaultFallbackTimeoutMS = 150
	defaultPendingTimeoutMS  = 1200
	defaultPendingCapacity   = 8
	defaultHeavyHypotheses   = 3
	defaultFastPathConf      = 0.99
	defaultASRWeight         = 0.4
	defaultAuditQueue        = 4096
	defaultAuditRetention    = 7
	defaultMirrorTailLines   = 1000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			AuditDir: defaultAuditDir,
		},
		Matcher: Matcher{
			AutoAcceptScore:  defaultAutoAcceptScore,
			AutoAcceptMargin: defaultAutoAcceptMargin,
			SuggestScore:     defaultSuggestScore,
			MaxSuggestions:   defaultMaxSuggestions,
			FuzzyPoolSize:    defaultFuzzyPoolSize,
			FuzzyMinScore:    defaultFuzzyMinScore,
		},
		Pipeline: Pipeline{
			InlineTimeoutMS:    defaultInlineTimeoutMS,
			FallbackTimeoutMS:  defaultFallbackTimeoutMS,
			PendingTimeoutMS:   defaultPendingTimeoutMS,
			PendingCapacity:    defaultPendingCapacity,
			HeavyHypotheses:    defaultHeavyHypotheses,
			FastPathConfidence: defaultFastPathConf,
			ASRWeight:          defaultASRWeight,
		},
		Audit: Audit{
			QueueCapacity:   defaultAuditQueue,
			RetentionDays:   defaultAuditRetention,
			MirrorTailLines: defaultMirrorTailLines,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
