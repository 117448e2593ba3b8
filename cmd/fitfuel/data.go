package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/fitfuel/internal/config"
	"github.com/kalambet/fitfuel/internal/profile"
	"github.com/kalambet/fitfuel/internal/progress"
	"github.com/kalambet/fitfuel/internal/storage"
	"github.com/kalambet/fitfuel/internal/workout"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export or purge stored data",
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all stored data as a key/value JSON snapshot",
	Long: `Write every stored key plus the completed-workout log as one JSON object.
The layout matches the browser app's localStorage: workouts carry type and
duration, and achievements are listed by title.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := exportData(store, w); err != nil {
			return err
		}
		if output != "" {
			printSuccess("Exported to %s", output)
		}
		return nil
	},
}

var dataPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the profile, intake, theme and workout log",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete ALL stored data. Use --confirm to proceed.")
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if serverRunning(cfg.Server.Port) {
			return fmt.Errorf("server is running; stop it with `fitfuel stop` first")
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		n, err := purgeData(store)
		if err != nil {
			return err
		}
		printSuccess("Purged stored state and %d workouts", n)
		return nil
	},
}

func init() {
	dataExportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	dataPurgeCmd.Flags().Bool("confirm", false, "confirm deletion")
	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataPurgeCmd)
}

type exportSource interface {
	All() (map[string]string, error)
	CountWorkouts() (int, error)
	ListWorkouts(limit, offset int) ([]storage.CompletedWorkout, error)
}

// browserPlan is a workout as the browser app stores it.
type browserPlan struct {
	Type      string   `json:"type"`
	Exercises []string `json:"exercises"`
	Duration  int      `json:"duration"`
	Intensity string   `json:"intensity"`
}

// browserUserData is the profile as the browser app stores it: badges are
// kept by title.
type browserUserData struct {
	Name             string   `json:"name"`
	DailyCalorieGoal int      `json:"dailyCalorieGoal"`
	CurrentStreak    int      `json:"currentStreak"`
	TotalMealsLogged int      `json:"totalMealsLogged"`
	Achievements     []string `json:"achievements"`
	FrequentMeals    []string `json:"frequentMeals"`
}

// exportedWorkout is one element of the completedWorkouts array.
type exportedWorkout struct {
	Meal      string       `json:"meal"`
	Workout   *browserPlan `json:"workout"`
	Timestamp string       `json:"timestamp"`
}

// exportData writes the store as a flat key to string-value object in the
// browser app's localStorage layout. The workout log is folded into the
// completedWorkouts key as a JSON array.
func exportData(src exportSource, w io.Writer) error {
	kv, err := src.All()
	if err != nil {
		return fmt.Errorf("reading key/value data: %w", err)
	}

	total, err := src.CountWorkouts()
	if err != nil {
		return fmt.Errorf("counting workouts: %w", err)
	}
	entries, err := src.ListWorkouts(total, 0)
	if err != nil {
		return fmt.Errorf("listing workouts: %w", err)
	}

	workouts := make([]exportedWorkout, 0, len(entries))
	for _, e := range entries {
		workouts = append(workouts, exportedWorkout{
			Meal:      e.MealText,
			Workout:   toBrowserPlan(e.PlanJSON),
			Timestamp: e.CompletedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	blob, err := json.Marshal(workouts)
	if err != nil {
		return fmt.Errorf("marshalling workouts: %w", err)
	}

	out := make(map[string]string, len(kv)+1)
	for k, v := range kv {
		out[k] = v
	}
	if raw, ok := kv[profile.KeyProfile]; ok {
		out[profile.KeyProfile] = toBrowserUserData(raw)
	}
	out[profile.KeyCompletedWorkouts] = string(blob)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// toBrowserPlan converts a logged plan. Unreadable plans export as null.
func toBrowserPlan(planJSON string) *browserPlan {
	var p workout.Plan
	if err := json.Unmarshal([]byte(planJSON), &p); err != nil {
		return nil
	}
	exercises := p.Exercises
	if exercises == nil {
		exercises = []string{}
	}
	return &browserPlan{
		Type:      p.Label,
		Exercises: exercises,
		Duration:  p.DurationMinutes,
		Intensity: string(p.Intensity),
	}
}

// toBrowserUserData rewrites a stored profile with badge titles. A blob that
// does not decode is exported unchanged.
func toBrowserUserData(raw string) string {
	var p progress.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return raw
	}
	frequent := p.FrequentMeals
	if frequent == nil {
		frequent = []string{}
	}
	b, err := json.Marshal(browserUserData{
		Name:             p.Name,
		DailyCalorieGoal: p.DailyCalorieGoal,
		CurrentStreak:    p.CurrentStreak,
		TotalMealsLogged: p.TotalMealsLogged,
		Achievements:     p.Achievements.Titles(),
		FrequentMeals:    frequent,
	})
	if err != nil {
		return raw
	}
	return string(b)
}

type purgeTarget interface {
	Delete(key string) error
	ClearWorkouts() (int, error)
}

// purgeData removes the persisted state keys and the workout log. Keys that
// were never written are skipped.
func purgeData(t purgeTarget) (int, error) {
	for _, key := range []string{profile.KeyProfile, profile.KeyDailyIntake, profile.KeyDarkMode} {
		if err := t.Delete(key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("deleting %q: %w", key, err)
		}
	}
	n, err := t.ClearWorkouts()
	if err != nil {
		return 0, fmt.Errorf("clearing workouts: %w", err)
	}
	return n, nil
}
