package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/fitfuel/internal/api"
	"github.com/kalambet/fitfuel/internal/config"
	"github.com/kalambet/fitfuel/internal/nutrition"
	"github.com/kalambet/fitfuel/internal/session"
	"github.com/kalambet/fitfuel/internal/workout"
)

// countdownInterval is swapped out by tests.
var countdownInterval = time.Second

// --- onboard ---

var onboardCmd = &cobra.Command{
	Use:   "onboard <name>",
	Short: "Set your name and daily calorie goal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal, _ := cmd.Flags().GetInt("calories")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/onboard", api.OnboardRequest{
			Name:             strings.Join(args, " "),
			DailyCalorieGoal: goal,
		})
		if err != nil {
			return err
		}

		var p struct {
			Name             string `json:"name"`
			DailyCalorieGoal int    `json:"dailyCalorieGoal"`
		}
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}

		printSuccess("Welcome, %s! Daily goal: %d kcal", p.Name, p.DailyCalorieGoal)
		return nil
	},
}

func init() {
	onboardCmd.Flags().Int("calories", 2000, "daily calorie goal")
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze <meal>",
	Short: "Estimate a meal, log it and get a workout",
	Long: `Estimate the macros of a meal, log it to today's intake and recommend a
workout for your goal.

Examples:
  fitfuel analyze "grilled chicken with rice and broccoli"
  fitfuel analyze --goal BurnFat "two slices of bread with cheese"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goalFlag, _ := cmd.Flags().GetString("goal")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := api.MealRequest{Meal: strings.Join(args, " ")}
		if goalFlag != "" {
			req.Goal = workout.ParseGoal(goalFlag)
		}

		resp, err := client.post(cmd.Context(), "/meals", req)
		if err != nil {
			return err
		}

		var a session.Analysis
		if err := decodeJSON(resp, &a); err != nil {
			return err
		}

		printMacros(a.Macros)
		printPlan(a.Plan)
		fmt.Printf("\n%s\n", colorize(colorCyan, a.Message))
		for _, b := range a.NewBadges {
			printBadge(b.Title())
		}
		fmt.Printf("\nToday: %s %d / %d kcal (%d%%)\n",
			progressBar(a.Progress.Percent), a.Progress.Consumed, a.Progress.Goal, a.Progress.Percent)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("goal", "", "Balance, BurnFat or BuildMuscle (default from config)")
}

// --- roulette ---

var rouletteCmd = &cobra.Command{
	Use:   "roulette",
	Short: "Spin the workout roulette",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/roulette", api.RouletteRequest{})
		if err != nil {
			return err
		}

		var rec session.Recommendation
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}

		printStep("The roulette landed on %s", rec.Goal.Label())
		printPlan(rec.Plan)
		fmt.Printf("\n%s\n", colorize(colorCyan, rec.Message))
		return nil
	},
}

// --- cheat ---

var cheatCmd = &cobra.Command{
	Use:   "cheat <meal>",
	Short: "See the workout that burns off a cheat meal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/cheat-meal", api.MealRequest{Meal: strings.Join(args, " ")})
		if err != nil {
			return err
		}

		var rec session.Recommendation
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}

		if rec.Macros != nil {
			printMacros(*rec.Macros)
		}
		printPlan(rec.Plan)
		printWarning("Cheat meals are not logged")
		return nil
	},
}

// --- burn ---

var burnCmd = &cobra.Command{
	Use:   "burn <meal>",
	Short: "Start a workout to burn off a meal",
	Long: `Record a workout for a meal in the completed-workout log. With --timer the
countdown runs in the terminal until it finishes or you press Ctrl-C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goalFlag, _ := cmd.Flags().GetString("goal")
		timer, _ := cmd.Flags().GetBool("timer")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := api.BurnRequest{
			Meal: strings.Join(args, " "),
			Goal: workout.ParseGoal(goalFlag),
		}
		resp, err := client.post(cmd.Context(), "/burn", req)
		if err != nil {
			return err
		}

		var b session.Burn
		if err := decodeJSON(resp, &b); err != nil {
			return err
		}

		printPlan(b.Plan)
		printSuccess("Workout %s logged", b.ID)
		if !timer {
			return nil
		}
		return runTimer(cmd.Context(), b.CountdownSeconds)
	},
}

func init() {
	burnCmd.Flags().String("goal", string(workout.BurnFat), "Balance, BurnFat or BuildMuscle")
	burnCmd.Flags().Bool("timer", false, "run the countdown in the terminal")
}

func runTimer(ctx context.Context, seconds int) error {
	err := session.Countdown(ctx, seconds, countdownInterval, func(remaining int) {
		fmt.Fprintf(os.Stderr, "\r%s %s ", colorize(colorBold, "⏱"), formatClock(remaining))
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		printWarning("Timer stopped")
		return nil
	}
	printSuccess("Workout complete! Great job!")
	return nil
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// --- plan ---

var planCmd = &cobra.Command{
	Use:   "plan <goal>",
	Short: "Show the workout plan for a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/workouts/plans/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var rec session.Recommendation
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}
		printPlan(rec.Plan)
		return nil
	},
}

// --- dashboard ---

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show today's progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/dashboard")
		if err != nil {
			return err
		}

		var d session.Dashboard
		if err := decodeJSON(resp, &d); err != nil {
			return err
		}

		fmt.Println(colorize(colorBold, d.Greeting))
		fmt.Printf("%s %d / %d kcal (%d%%), %d left\n",
			progressBar(d.Progress.Percent), d.Progress.Consumed, d.Progress.Goal, d.Progress.Percent, d.Progress.Remaining)
		fmt.Printf("Streak: %d  Meals logged: %d\n", d.Profile.CurrentStreak, d.Profile.TotalMealsLogged)
		if len(d.Badges) > 0 {
			fmt.Printf("Badges: %s\n", strings.Join(d.Badges, "  "))
		}
		if len(d.Profile.FrequentMeals) > 0 {
			fmt.Printf("Frequent meals: %s\n", strings.Join(d.Profile.FrequentMeals, ", "))
		}
		fmt.Printf("\n%s\n", d.Tip)
		return nil
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect the user profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}

		var view api.StateView
		if err := decodeJSON(resp, &view); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
}

// --- intake ---

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Manage the daily calorie counter",
}

var intakeResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset today's calorie intake to zero",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/intake/reset", nil)
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}

		printSuccess("Daily intake reset")
		return nil
	},
}

func init() {
	intakeCmd.AddCommand(intakeResetCmd)
}

// --- theme ---

var themeCmd = &cobra.Command{
	Use:       "theme <dark|light>",
	Short:     "Switch between dark and light mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"dark", "light"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var dark bool
		switch strings.ToLower(args[0]) {
		case "dark":
			dark = true
		case "light":
			dark = false
		default:
			return fmt.Errorf("unknown theme %q, want dark or light", args[0])
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put(cmd.Context(), "/settings/dark-mode", api.DarkModeRequest{Enabled: dark})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}

		printSuccess("Theme set to %s", strings.ToLower(args[0]))
		return nil
	},
}

// --- workouts ---

var workoutsCmd = &cobra.Command{
	Use:   "workouts",
	Short: "List completed workouts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/workouts?limit=%d&offset=%d", limit, offset))
		if err != nil {
			return err
		}

		var list struct {
			Workouts []api.WorkoutEntry `json:"workouts"`
			Total    int                `json:"total"`
		}
		if err := decodeJSON(resp, &list); err != nil {
			return err
		}

		if len(list.Workouts) == 0 {
			fmt.Println("No workouts yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tGOAL\tMEAL")
		for _, e := range list.Workouts {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.CompletedAt.Local().Format("2006-01-02 15:04"), e.Goal, e.Meal)
		}
		w.Flush()
		fmt.Printf("\n%d of %d\n", len(list.Workouts), list.Total)
		return nil
	},
}

func init() {
	workoutsCmd.Flags().Int("limit", 20, "maximum number of workouts")
	workoutsCmd.Flags().Int("offset", 0, "number of workouts to skip")
}

// --- foods ---

var foodsCmd = &cobra.Command{
	Use:   "foods",
	Short: "List the foods the estimator recognises",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEYWORD\tKCAL\tPROTEIN\tCARBS\tFAT")
		for _, f := range nutrition.Foods() {
			fmt.Fprintf(w, "%s\t%.0f\t%.1fg\t%.1fg\t%.1fg\n", f.Keyword, f.Calories, f.ProteinGrams, f.CarbGrams, f.FatGrams)
		}
		return w.Flush()
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s  (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Restore a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token <token>",
	Short: "Store the HTTP API token in the platform secret store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetAPIToken(args[0]); err != nil {
			return err
		}
		printSuccess("API token stored; restart the server to apply it")
		return nil
	},
}

func init() {
	configSetCmd.Long = "Set a configuration value in the platform backend.\n\nKeys: " + strings.Join(config.ValidKeys(), ", ")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configSetTokenCmd)
}

// --- rendering ---

func printMacros(m nutrition.Macros) {
	fmt.Printf("%s %d kcal  protein %.0fg  carbs %.0fg  fat %.0fg\n",
		colorize(colorBold, "Estimate:"), m.Calories, m.ProteinGrams, m.CarbGrams, m.FatGrams)
}

func printPlan(p workout.Plan) {
	fmt.Printf("\n%s (%d min, %s intensity)\n", colorize(colorBold, p.Label), p.DurationMinutes, p.Intensity)
	for _, e := range p.Exercises {
		fmt.Printf("  • %s\n", e)
	}
}
