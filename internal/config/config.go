// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "time"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir roots the file persistence layout.
	DataDir string `koanf:"data_dir"`

	// PostgresDSN switches persistence to the database store when set.
	PostgresDSN string `koanf:"postgres_dsn"`

	// MinSignalScore filters scanned signals below this score.
	MinSignalScore int `koanf:"min_signal_score"`

	// MinCandidateScore filters prioritized candidates below this score.
	MinCandidateScore int `koanf:"min_candidate_score"`

	// TopSignals caps how many retained signals feed generation.
	TopSignals int `koanf:"top_signals"`

	// CandidatesPerSignal asks the generator for this many per signal.
	CandidatesPerSignal int `koanf:"candidates_per_signal"`

	// ValidateConcurrency bounds parallel candidate validation.
	ValidateConcurrency int `koanf:"validate_concurrency"`

	// MaxListLimit caps GET /jobs?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// Feed endpoints. An empty URL disables the source.
	TrendsFeedURL      string `koanf:"trends_feed_url"`
	RedditFeedURL      string `koanf:"reddit_feed_url"`
	ProductHuntFeedURL string `koanf:"product_hunt_feed_url"`

	// Stage service endpoints. An empty URL disables the stage.
	BuilderURL  string `koanf:"builder_url"`
	PromoterURL string `koanf:"promoter_url"`
	SellerURL   string `koanf:"seller_url"`

	// StagePollInterval and StagePollDeadline shape downstream polling.
	StagePollInterval time.Duration `koanf:"stage_poll_interval"`
	StagePollDeadline time.Duration `koanf:"stage_poll_deadline"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		DataDir:             "data",
		MinSignalScore:      60,
		MinCandidateScore:   70,
		TopSignals:          3,
		CandidatesPerSignal: 3,
		ValidateConcurrency: 3,
		MaxListLimit:        100,
		StagePollInterval:   2 * time.Second,
		StagePollDeadline:   5 * time.Minute,
	}
}
