package workout

import (
	"encoding/json"
	"strings"
)

// Goal is the user's training objective. It selects a workout template.
type Goal string

const (
	Balance     Goal = "Balance"
	BurnFat     Goal = "BurnFat"
	BuildMuscle Goal = "BuildMuscle"
)

// Goals lists every known goal in display order.
func Goals() []Goal {
	return []Goal{Balance, BurnFat, BuildMuscle}
}

// ParseGoal maps user input to a Goal. It accepts the canonical names and
// the spaced labels ("Burn Fat"), ignoring case, spaces, dashes and
// underscores. Anything unrecognised becomes Balance.
func ParseGoal(s string) Goal {
	norm := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
	switch norm {
	case "burnfat":
		return BurnFat
	case "buildmuscle":
		return BuildMuscle
	default:
		return Balance
	}
}

// Valid reports whether g is one of the known goals.
func (g Goal) Valid() bool {
	switch g {
	case Balance, BurnFat, BuildMuscle:
		return true
	}
	return false
}

// Label is the human-readable goal name.
func (g Goal) Label() string {
	switch g {
	case BurnFat:
		return "Burn Fat"
	case BuildMuscle:
		return "Build Muscle"
	default:
		return "Balance"
	}
}

// UnmarshalJSON accepts any spelling ParseGoal understands. An empty string
// stays empty so callers can apply their own default.
func (g *Goal) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*g = ""
		return nil
	}
	*g = ParseGoal(s)
	return nil
}

// Intensity describes how hard a plan is.
type Intensity string

const (
	Moderate Intensity = "Moderate"
	High     Intensity = "High"
)

// Plan is a fixed five-exercise workout for one goal.
type Plan struct {
	Category        Goal      `json:"category"`
	Label           string    `json:"label"`
	Exercises       []string  `json:"exercises"`
	DurationMinutes int       `json:"durationMinutes"`
	Intensity       Intensity `json:"intensity"`
}

// CountdownSeconds is the length of the "burn this meal" timer.
func (p Plan) CountdownSeconds() int {
	return p.DurationMinutes * 60
}
