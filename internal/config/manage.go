package config

import "fmt"

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all non-secret config key/value pairs from cfg.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		if s.secret {
			continue
		}
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
		})
	}
	return result
}

// SetKey writes a config key to the platform backend.
func SetKey(key, value string) error {
	return setKeyIn(newPlatformBackend(), key, value)
}

// setKeyIn rejects values that would make Load fail, so a bad `config set`
// cannot lock the user out of every command.
func setKeyIn(b Backend, key, value string) error {
	s, ok := lookupSpec(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}
	if s.secret {
		return fmt.Errorf("cannot set secret %q via config; use environment variable %s or `fitfuel config set-token`", key, s.env)
	}

	candidate := defaults()
	if err := s.apply(&candidate, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := validate(candidate); err != nil {
		return err
	}
	return b.Set(key, value)
}

// UnsetKey removes a key from the platform backend so its default applies again.
func UnsetKey(key string) error {
	return unsetKeyIn(newPlatformBackend(), key)
}

func unsetKeyIn(b Backend, key string) error {
	if s, ok := lookupSpec(key); ok && !s.secret {
		return b.Delete(key)
	}
	return fmt.Errorf("unknown config key: %q", key)
}

// SetAPIToken stores the HTTP API token in the platform secret store.
func SetAPIToken(token string) error {
	if token == "" {
		return fmt.Errorf("api token must not be empty")
	}
	return keychainSet(secretService, apiTokenAccount, token)
}

// ValidKeys returns the list of valid non-secret config key names.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}
