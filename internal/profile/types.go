package profile

import "github.com/kalambet/fitfuel/internal/progress"

// Storage keys. They match the browser app's localStorage layout so exported
// data stays interchangeable.
const (
	KeyProfile           = "mealWorkoutUserData"
	KeyDailyIntake       = "dailyIntake"
	KeyDarkMode          = "darkMode"
	KeyCompletedWorkouts = "completedWorkouts"
)

// schemaVersion is written into every profile blob. Blobs without a version
// predate versioning and are read as version 1.
const schemaVersion = 1

// State is everything persisted for the single local user.
type State struct {
	Profile     progress.Profile `json:"profile"`
	DailyIntake int              `json:"dailyIntake"`
	DarkMode    bool             `json:"darkMode"`
}

type profileBlob struct {
	Version int `json:"version"`
	progress.Profile
}
