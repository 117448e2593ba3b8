//go:build !darwin

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// secretFile is the on-disk secret store used where no keychain exists:
// service -> account -> value, mode 0600.
type secretFile map[string]map[string]string

func secretsFilePath() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "fitfuel", "secrets.json")
}

func readSecretFile(path string) (secretFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf secretFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return sf, nil
}

func keychainExec(service, account string) ([]byte, error) {
	sf, err := readSecretFile(secretsFilePath())
	if err != nil {
		return nil, fmt.Errorf("secret store not available: %w", err)
	}
	val, ok := sf[service][account]
	if !ok {
		return nil, fmt.Errorf("no secret %s/%s", service, account)
	}
	return []byte(val), nil
}

// keychainSet upserts one secret. An unreadable file is replaced.
func keychainSet(service, account, value string) error {
	path := secretsFilePath()
	sf, err := readSecretFile(path)
	if err != nil {
		sf = secretFile{}
	}
	if sf[service] == nil {
		sf[service] = map[string]string{}
	}
	sf[service][account] = value

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}
