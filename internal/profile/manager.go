package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kalambet/fitfuel/internal/achievement"
	"github.com/kalambet/fitfuel/internal/progress"
	"github.com/kalambet/fitfuel/internal/storage"
)

// KVStore is the durable key/value port the Manager persists through.
// Implemented by storage.Store.
type KVStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	// SetMany writes all pairs or none.
	SetMany(kv map[string]string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager provides cached, typed access to the persisted user state.
type Manager struct {
	store  KVStore
	clock  Clock
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.RWMutex
	cached   *State
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store KVStore) *Manager {
	return NewManagerWithClock(store, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store KVStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store:  store,
		clock:  clock,
		ttl:    ttl,
		logger: slog.Default(),
	}
}

// State loads the profile, daily intake and theme flag. Missing keys yield
// defaults; malformed values are logged and replaced with defaults.
func (m *Manager) State() (State, error) {
	m.mu.RLock()
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		s := copyState(m.cached)
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		return copyState(m.cached), nil
	}

	s, err := m.load()
	if err != nil {
		return State{}, err
	}
	m.cached = &s
	m.cachedAt = m.clock.Now()
	return copyState(&s), nil
}

// Profile returns the persisted profile.
func (m *Manager) Profile() (progress.Profile, error) {
	s, err := m.State()
	if err != nil {
		return progress.Profile{}, err
	}
	return s.Profile, nil
}

// DailyIntake returns the calories counted since the last explicit reset.
func (m *Manager) DailyIntake() (int, error) {
	s, err := m.State()
	if err != nil {
		return 0, err
	}
	return s.DailyIntake, nil
}

// DarkMode returns the persisted theme flag.
func (m *Manager) DarkMode() (bool, error) {
	s, err := m.State()
	if err != nil {
		return false, err
	}
	return s.DarkMode, nil
}

// SaveProfile persists p.
func (m *Manager) SaveProfile(p progress.Profile) error {
	blob, err := encodeProfile(p)
	if err != nil {
		return err
	}
	return m.set(KeyProfile, blob)
}

// SaveMeal persists the result of logging a meal. The profile and the
// intake counter are written together so a failed save never counts a meal
// in one and not the other.
func (m *Manager) SaveMeal(p progress.Profile, dailyIntake int) error {
	blob, err := encodeProfile(p)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err = m.store.SetMany(map[string]string{
		KeyProfile:     blob,
		KeyDailyIntake: strconv.Itoa(dailyIntake),
	})
	if err != nil {
		return fmt.Errorf("saving meal: %w", err)
	}
	m.cached = nil
	return nil
}

func encodeProfile(p progress.Profile) (string, error) {
	b, err := json.Marshal(profileBlob{Version: schemaVersion, Profile: p})
	if err != nil {
		return "", fmt.Errorf("marshalling profile: %w", err)
	}
	return string(b), nil
}

// SetDailyIntake persists the daily calorie counter.
func (m *Manager) SetDailyIntake(n int) error {
	return m.set(KeyDailyIntake, strconv.Itoa(n))
}

// ResetDailyIntake clears the daily calorie counter. The counter is never
// reset automatically.
func (m *Manager) ResetDailyIntake() error {
	return m.SetDailyIntake(0)
}

// SetDarkMode persists the theme flag.
func (m *Manager) SetDarkMode(on bool) error {
	return m.set(KeyDarkMode, strconv.FormatBool(on))
}

func (m *Manager) set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(key, value); err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	m.cached = nil
	return nil
}

func (m *Manager) load() (State, error) {
	s := State{Profile: progress.DefaultProfile()}

	if raw, ok, err := m.store.Get(KeyProfile); err != nil {
		return State{}, fmt.Errorf("loading %q: %w", KeyProfile, err)
	} else if ok {
		s.Profile = m.decodeProfile(raw)
	}

	if raw, ok, err := m.store.Get(KeyDailyIntake); err != nil {
		return State{}, fmt.Errorf("loading %q: %w", KeyDailyIntake, err)
	} else if ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			m.logger.Warn("malformed stored value, using default", "key", KeyDailyIntake, "value", raw)
		} else {
			s.DailyIntake = n
		}
	}

	if raw, ok, err := m.store.Get(KeyDarkMode); err != nil {
		return State{}, fmt.Errorf("loading %q: %w", KeyDarkMode, err)
	} else if ok {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			m.logger.Warn("malformed stored value, using default", "key", KeyDarkMode, "value", raw)
		} else {
			s.DarkMode = b
		}
	}

	return s, nil
}

// decodeProfile parses a stored profile blob, falling back to the default
// profile when the blob cannot be trusted.
func (m *Manager) decodeProfile(raw string) progress.Profile {
	blob := profileBlob{Profile: progress.DefaultProfile()}
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		m.logger.Warn("malformed profile blob, using defaults", "key", KeyProfile, "error", err)
		return progress.DefaultProfile()
	}
	if blob.Version > schemaVersion {
		m.logger.Warn("profile blob from a newer version, using defaults", "key", KeyProfile, "version", blob.Version)
		return progress.DefaultProfile()
	}
	return normalize(blob.Profile)
}

// normalize restores the profile invariants on decoded data.
func normalize(p progress.Profile) progress.Profile {
	if p.DailyCalorieGoal <= 0 {
		p.DailyCalorieGoal = progress.DefaultCalorieGoal
	}
	if p.CurrentStreak < 0 {
		p.CurrentStreak = 0
	}
	if p.TotalMealsLogged < 0 {
		p.TotalMealsLogged = 0
	}
	if p.Achievements == nil {
		p.Achievements = achievement.Set{}
	}

	meals := make([]string, 0, progress.MaxFrequentMeals)
	for _, meal := range p.FrequentMeals {
		if len(meals) == progress.MaxFrequentMeals {
			break
		}
		dup := false
		for _, seen := range meals {
			if seen == meal {
				dup = true
				break
			}
		}
		if !dup {
			meals = append(meals, meal)
		}
	}
	p.FrequentMeals = meals
	return p
}

func copyState(s *State) State {
	if s == nil {
		return State{}
	}
	cp := *s
	cp.Profile = s.Profile.Clone()
	return cp
}

var _ KVStore = (*storage.Store)(nil)
