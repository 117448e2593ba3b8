package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kalambet/fitfuel/internal/workout"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	value string
	err   error
}

func (m mockKeychain) Get(service, account string) (string, error) {
	return m.value, m.err
}

var errNoSecret = errors.New("no secret")

// mockBackend is an in-memory Backend.
type mockBackend struct {
	vals   map[string]string
	getErr error
}

func newMockBackend() *mockBackend {
	return &mockBackend{vals: map[string]string{}}
}

func (m *mockBackend) Get(key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *mockBackend) Set(key, val string) error { m.vals[key] = val; return nil }

func (m *mockBackend) Delete(key string) error {
	delete(m.vals, key)
	return nil
}

// clearEnv blanks every FITFUEL_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMockBackend(), mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Server.APIToken != "" {
		t.Errorf("Server.APIToken = %q, want empty", cfg.Server.APIToken)
	}
	if cfg.Coach.Goal() != workout.Balance {
		t.Errorf("Coach.Goal() = %s, want Balance", cfg.Coach.Goal())
	}
	if cfg.Coach.Delay() != 0 {
		t.Errorf("Coach.Delay() = %v, want 0", cfg.Coach.Delay())
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Errorf("Log.SlogLevel() = %v, want info", cfg.Log.SlogLevel())
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
}

func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newMockBackend()
	b.vals["server.port"] = "5100"
	b.vals["storage.data_dir"] = "/tmp/fitfuel-test"
	b.vals["coach.default_goal"] = "build-muscle"
	b.vals["coach.analyze_delay"] = "1.5s"
	b.vals["log.level"] = "debug"

	cfg, err := loadWith(b, mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5100 {
		t.Errorf("Server.Port = %d, want 5100", cfg.Server.Port)
	}
	if cfg.Storage.DataDir != "/tmp/fitfuel-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Coach.Goal() != workout.BuildMuscle {
		t.Errorf("Coach.Goal() = %s", cfg.Coach.Goal())
	}
	if cfg.Coach.Delay() != 1500*time.Millisecond {
		t.Errorf("Coach.Delay() = %v", cfg.Coach.Delay())
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("Log.SlogLevel() = %v", cfg.Log.SlogLevel())
	}
}

// TestEnvOverride verifies that environment variables override backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)

	b := newMockBackend()
	b.vals["server.port"] = "5100"
	t.Setenv("FITFUEL_SERVER_PORT", "6100")
	t.Setenv("FITFUEL_API_TOKEN", "env-token")

	cfg, err := loadWith(b, mockKeychain{value: "keychain-token"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6100 {
		t.Errorf("Server.Port = %d, want 6100", cfg.Server.Port)
	}
	if cfg.Server.APIToken != "env-token" {
		t.Errorf("APIToken = %q, want env-token", cfg.Server.APIToken)
	}
}

func TestInvalidEnvIntKeepsValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("FITFUEL_SERVER_PORT", "not-a-port")

	cfg, err := loadWith(newMockBackend(), mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
}

// TestSecretNotReadFromBackend verifies the token is never taken from the plain config.
func TestSecretNotReadFromBackend(t *testing.T) {
	clearEnv(t)

	b := newMockBackend()
	b.vals["server.api_token"] = "leaked"

	cfg, err := loadWith(b, mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.APIToken != "" {
		t.Errorf("APIToken = %q, want empty", cfg.Server.APIToken)
	}
}

// TestKeychainFallback verifies the secret store is consulted when no token is in the env.
func TestKeychainFallback(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMockBackend(), mockKeychain{value: "keychain-secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.APIToken != "keychain-secret" {
		t.Errorf("APIToken = %q, want %q", cfg.Server.APIToken, "keychain-secret")
	}
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("FITFUEL_LOG_LEVEL")
	os.Unsetenv("FITFUEL_SERVER_PORT")

	path := filepath.Join(t.TempDir(), ".env")
	content := "FITFUEL_LOG_LEVEL=warn\nFITFUEL_SERVER_PORT=7100\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("FITFUEL_LOG_LEVEL")
		os.Unsetenv("FITFUEL_SERVER_PORT")
	})

	cfg, err := loadWith(newMockBackend(), mockKeychain{err: errNoSecret}, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want 7100", cfg.Server.Port)
	}
}

func TestMissingDotEnvIgnored(t *testing.T) {
	clearEnv(t)

	missing := filepath.Join(t.TempDir(), "nope.env")
	if _, err := loadWith(newMockBackend(), mockKeychain{err: errNoSecret}, missing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		set  func(b *mockBackend)
	}{
		{"port zero", func(b *mockBackend) { b.vals["server.port"] = "0" }},
		{"port too large", func(b *mockBackend) { b.vals["server.port"] = "70000" }},
		{"bad delay", func(b *mockBackend) { b.vals["coach.analyze_delay"] = "soon" }},
		{"negative delay", func(b *mockBackend) { b.vals["coach.analyze_delay"] = "-1s" }},
		{"port not a number", func(b *mockBackend) { b.vals["server.port"] = "http" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			b := newMockBackend()
			tt.set(b)
			if _, err := loadWith(b, mockKeychain{err: errNoSecret}); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSetKeyRejects(t *testing.T) {
	b := newMockBackend()
	if err := setKeyIn(b, "server.api_token", "x"); err == nil {
		t.Error("expected error setting a secret")
	}
	if err := setKeyIn(b, "nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := setKeyIn(b, "server.port", "abc"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKeyIn(b, "server.port", "70000"); err == nil {
		t.Error("expected error for out-of-range port")
	}
	if err := setKeyIn(b, "coach.analyze_delay", "soon"); err == nil {
		t.Error("expected error for unparseable delay")
	}
	if len(b.vals) != 0 {
		t.Errorf("rejected values were written: %v", b.vals)
	}
}

func TestSetKeyThenLoad(t *testing.T) {
	clearEnv(t)
	b := newMockBackend()

	if err := setKeyIn(b, "server.port", "4300"); err != nil {
		t.Fatalf("setKeyIn: %v", err)
	}
	if err := setKeyIn(b, "coach.analyze_delay", "250ms"); err != nil {
		t.Fatalf("setKeyIn: %v", err)
	}

	cfg, err := loadWith(b, mockKeychain{err: errNoSecret})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 4300 || cfg.Coach.Delay() != 250*time.Millisecond {
		t.Errorf("cfg = %+v", cfg)
	}

	if err := unsetKeyIn(b, "server.port"); err != nil {
		t.Fatalf("unsetKeyIn: %v", err)
	}
	if err := unsetKeyIn(b, "server.api_token"); err == nil {
		t.Error("expected error unsetting a secret")
	}
}

func TestBackendReadError(t *testing.T) {
	clearEnv(t)
	b := newMockBackend()
	b.getErr = errors.New("defaults unavailable")

	if _, err := loadWith(b, mockKeychain{err: errNoSecret}); err == nil {
		t.Error("expected error when the backend cannot be read")
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Server.APIToken = "hidden"
	for _, k := range ShowAll(cfg) {
		if k.Key == "server.api_token" || k.Value == "hidden" {
			t.Errorf("ShowAll exposed secret: %+v", k)
		}
	}
	if len(ShowAll(cfg)) != len(ValidKeys()) {
		t.Errorf("ShowAll has %d keys, ValidKeys %d", len(ShowAll(cfg)), len(ValidKeys()))
	}
}
