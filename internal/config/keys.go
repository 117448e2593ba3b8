package config

import (
	"fmt"
	"os"
	"strconv"
)

// keySpec binds one dotted config key to its env var and Config field.
// apply parses raw and stores it; it fails only on unparseable input.
type keySpec struct {
	key     string
	env     string
	secret  bool
	apply   func(cfg *Config, raw string) error
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", env: "FITFUEL_SERVER_PORT",
		apply: func(cfg *Config, raw string) error {
			port, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("not an integer: %w", err)
			}
			cfg.Server.Port = port
			return nil
		},
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", env: "FITFUEL_API_TOKEN", secret: true,
		apply:   func(cfg *Config, raw string) error { cfg.Server.APIToken = raw; return nil },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "storage.data_dir", env: "FITFUEL_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, raw string) error { cfg.Storage.DataDir = raw; return nil },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "coach.default_goal", env: "FITFUEL_COACH_DEFAULT_GOAL",
		apply:   func(cfg *Config, raw string) error { cfg.Coach.DefaultGoal = raw; return nil },
		extract: func(cfg Config) any { return cfg.Coach.DefaultGoal },
	},
	{
		key: "coach.analyze_delay", env: "FITFUEL_COACH_ANALYZE_DELAY",
		apply:   func(cfg *Config, raw string) error { cfg.Coach.AnalyzeDelay = raw; return nil },
		extract: func(cfg Config) any { return cfg.Coach.AnalyzeDelay },
	},
	{
		key: "log.level", env: "FITFUEL_LOG_LEVEL",
		apply:   func(cfg *Config, raw string) error { cfg.Log.Level = raw; return nil },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// applyBackend copies persisted values into cfg. Secrets never come from the
// backend.
func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		raw, ok, err := b.Get(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok {
			continue
		}
		if err := s.apply(cfg, raw); err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
	}
	return nil
}

// applyEnvOverrides applies FITFUEL_* variables. Unparseable values are
// reported and skipped.
func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		if err := s.apply(cfg, raw); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] ignoring %s=%q: %v\n", s.env, raw, err)
		}
	}
}
