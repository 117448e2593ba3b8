package config

// Backend is where persisted (non-secret) settings live: the `defaults`
// domain com.fitfuel.app on macOS, a JSON file under $XDG_CONFIG_HOME
// elsewhere. Values are stored as strings; the key table parses them.
// Deleting a key that was never set is not an error.
type Backend interface {
	Get(key string) (val string, ok bool, err error)
	Set(key, val string) error
	Delete(key string) error
}
