package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kalambet/fitfuel/internal/workout"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Coach   CoachConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
	// APIToken guards the HTTP API when set. Empty disables auth.
	APIToken string
}

type StorageConfig struct {
	DataDir string
}

type CoachConfig struct {
	DefaultGoal  string
	AnalyzeDelay string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Coach: CoachConfig{
			DefaultGoal:  string(workout.Balance),
			AnalyzeDelay: "0s",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Goal returns the configured default goal. Unknown names mean Balance.
func (c CoachConfig) Goal() workout.Goal {
	return workout.ParseGoal(c.DefaultGoal)
}

// Delay returns the simulated analysis latency.
func (c CoachConfig) Delay() time.Duration {
	d, err := time.ParseDuration(c.AnalyzeDelay)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// SlogLevel maps the configured level name onto slog.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration from the platform-native backend, a .env file in
// the working directory, environment variables and the platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.fitfuel.app) and the API
// token falls back to the macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/fitfuel/config.json
// and the token falls back to $XDG_DATA_HOME/fitfuel/secrets.json.
//
// Environment variables (FITFUEL_*) override backend values on all platforms.
// Variables from .env never override ones already set in the environment.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{}, ".env")
}

// keychain abstracts secret store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b Backend, kc keychain, envFiles ...string) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "[WARN] could not read env file %s: %v. Ignoring it.\n", f, err)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.Server.APIToken == "" {
		if token, err := kc.Get(secretService, apiTokenAccount); err == nil && token != "" {
			cfg.Server.APIToken = token
		}
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d is out of range", cfg.Server.Port)
	}
	if d, err := time.ParseDuration(cfg.Coach.AnalyzeDelay); err != nil {
		return fmt.Errorf("invalid config: coach.analyze_delay: %w", err)
	} else if d < 0 {
		return fmt.Errorf("invalid config: coach.analyze_delay must not be negative")
	}
	return nil
}

const (
	secretService   = "fitfuel"
	apiTokenAccount = "api_token"
)

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
