package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if PROSPECTOR_CONFIG is set
//  3. env (prefix PROSPECTOR_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PROSPECTOR_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: PROSPECTOR_ADDR, PROSPECTOR_MIN_SIGNAL_SCORE, ...
	// Map env keys like PROSPECTOR_MIN_SIGNAL_SCORE -> min_signal_score.
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PROSPECTOR_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "prospector_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataDir == "" && c.PostgresDSN == "":
		return fmt.Errorf("%w: data_dir or postgres_dsn required", ErrInvalidConfig)
	case c.MinSignalScore < 0 || c.MinSignalScore > 100:
		return fmt.Errorf("%w: min_signal_score must be within 0..100", ErrInvalidConfig)
	case c.MinCandidateScore < 0 || c.MinCandidateScore > 100:
		return fmt.Errorf("%w: min_candidate_score must be within 0..100", ErrInvalidConfig)
	case c.TopSignals <= 0:
		return fmt.Errorf("%w: top_signals must be positive", ErrInvalidConfig)
	case c.CandidatesPerSignal <= 0:
		return fmt.Errorf("%w: candidates_per_signal must be positive", ErrInvalidConfig)
	case c.ValidateConcurrency <= 0:
		return fmt.Errorf("%w: validate_concurrency must be positive", ErrInvalidConfig)
	case c.StagePollInterval <= 0 || c.StagePollDeadline <= 0:
		return fmt.Errorf("%w: stage polling intervals must be positive", ErrInvalidConfig)
	}
	return nil
}
