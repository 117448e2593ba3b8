package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/fitfuel/internal/achievement"
	"github.com/kalambet/fitfuel/internal/nutrition"
	"github.com/kalambet/fitfuel/internal/profile"
	"github.com/kalambet/fitfuel/internal/progress"
	"github.com/kalambet/fitfuel/internal/storage"
	"github.com/kalambet/fitfuel/internal/workout"
)

// WorkoutLog is the append-only completed-workout log.
type WorkoutLog interface {
	AppendWorkout(w storage.CompletedWorkout) error
}

// StateStore persists profile state between user actions.
type StateStore interface {
	State() (profile.State, error)
	SaveProfile(p progress.Profile) error
	SaveMeal(p progress.Profile, dailyIntake int) error
	ResetDailyIntake() error
	SetDarkMode(on bool) error
}

// Deps holds the collaborators of a Coach.
type Deps struct {
	Estimator *nutrition.Estimator
	Coach     *workout.Coach
	State     StateStore
	Workouts  WorkoutLog
	// AnalyzeDelay simulates estimation latency before a meal is analysed.
	AnalyzeDelay time.Duration
	Now          func() time.Time
}

// Coach runs user actions against the core and persists the results.
type Coach struct {
	estimator *nutrition.Estimator
	coach     *workout.Coach
	state     StateStore
	workouts  WorkoutLog
	delay     time.Duration
	now       func() time.Time
	logger    *slog.Logger

	// mu serialises every state write; the HTTP and MCP fronts share one
	// Coach. A write that skips it can be overwritten by an in-flight meal.
	mu sync.Mutex
}

// New creates a Coach. Nil estimator or coach are replaced with time-seeded ones.
func New(deps Deps) *Coach {
	c := &Coach{
		estimator: deps.Estimator,
		coach:     deps.Coach,
		state:     deps.State,
		workouts:  deps.Workouts,
		delay:     deps.AnalyzeDelay,
		now:       deps.Now,
		logger:    slog.Default(),
	}
	if c.estimator == nil {
		c.estimator = nutrition.NewEstimator(nil)
	}
	if c.coach == nil {
		c.coach = workout.NewCoach(nil)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Analysis is the outcome of analysing and logging one meal.
type Analysis struct {
	Meal        string           `json:"meal"`
	Goal        workout.Goal     `json:"goal"`
	Macros      nutrition.Macros `json:"macros"`
	Plan        workout.Plan     `json:"plan"`
	Message     string           `json:"message"`
	NewBadges   achievement.Set  `json:"newBadges"`
	Profile     progress.Profile `json:"profile"`
	DailyIntake int              `json:"dailyIntake"`
	Progress    progress.Daily   `json:"progress"`
}

// Recommendation is a workout suggestion that is not tied to logging a meal.
type Recommendation struct {
	Goal    workout.Goal      `json:"goal"`
	Macros  *nutrition.Macros `json:"macros,omitempty"`
	Plan    workout.Plan      `json:"plan"`
	Message string            `json:"message,omitempty"`
}

// Burn is a started "burn this meal" timer.
type Burn struct {
	ID               string       `json:"id"`
	Meal             string       `json:"meal"`
	Plan             workout.Plan `json:"plan"`
	CountdownSeconds int          `json:"countdownSeconds"`
	StartedAt        time.Time    `json:"startedAt"`
}

// Dashboard is the at-a-glance view of the user's day.
type Dashboard struct {
	Greeting    string           `json:"greeting"`
	Tip         string           `json:"tip"`
	Profile     progress.Profile `json:"profile"`
	Badges      []string         `json:"badges"`
	DailyIntake int              `json:"dailyIntake"`
	Progress    progress.Daily   `json:"progress"`
	DarkMode    bool             `json:"darkMode"`
}

// Onboard creates and stores the profile. Existing progress counters are
// kept so re-onboarding only renames the user and changes the goal.
func (c *Coach) Onboard(ctx context.Context, name string, dailyCalorieGoal int) (progress.Profile, error) {
	fresh, err := progress.Onboard(name, dailyCalorieGoal)
	if err != nil {
		return progress.Profile{}, err
	}
	if err := ctx.Err(); err != nil {
		return progress.Profile{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.state.State()
	if err != nil {
		return progress.Profile{}, fmt.Errorf("loading state: %w", err)
	}
	p := s.Profile
	p.Name = fresh.Name
	p.DailyCalorieGoal = fresh.DailyCalorieGoal

	if err := c.state.SaveProfile(p); err != nil {
		return progress.Profile{}, fmt.Errorf("saving profile: %w", err)
	}
	c.logger.Info("user onboarded", "name", p.Name, "daily_calorie_goal", p.DailyCalorieGoal)
	return p, nil
}

// AnalyzeMeal estimates a meal, recommends a workout for goal and logs the
// meal into the profile. Blank meals are rejected without touching state.
// Cancelling ctx during the simulated delay leaves state unchanged.
func (c *Coach) AnalyzeMeal(ctx context.Context, mealText string, goal workout.Goal) (Analysis, error) {
	if strings.TrimSpace(mealText) == "" {
		return Analysis{}, progress.Invalid("meal", "please enter a meal first")
	}
	if !goal.Valid() {
		goal = workout.Balance
	}

	if err := c.wait(ctx); err != nil {
		return Analysis{}, err
	}

	macros := c.estimator.Estimate(mealText)
	plan := workout.Recommend(goal, &macros)
	msg := c.coach.Message(goal)

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.state.State()
	if err != nil {
		return Analysis{}, fmt.Errorf("loading state: %w", err)
	}

	next, intake := progress.ApplyMealLogged(s.Profile, macros, mealText, s.DailyIntake)
	if err := c.state.SaveMeal(next, intake); err != nil {
		return Analysis{}, fmt.Errorf("saving meal: %w", err)
	}

	newBadges := next.Achievements.Diff(s.Profile.Achievements)
	c.logger.Debug("meal analysed",
		"calories", macros.Calories,
		"goal", goal,
		"total_meals", next.TotalMealsLogged,
		"new_badges", len(newBadges),
	)

	return Analysis{
		Meal:        mealText,
		Goal:        goal,
		Macros:      macros,
		Plan:        plan,
		Message:     msg,
		NewBadges:   newBadges,
		Profile:     next,
		DailyIntake: intake,
		Progress:    progress.DailyProgress(intake, next.DailyCalorieGoal),
	}, nil
}

func (c *Coach) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Recommend returns the plan and a coach message for goal without logging
// anything.
func (c *Coach) Recommend(ctx context.Context, goal workout.Goal) (Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return Recommendation{}, err
	}
	if !goal.Valid() {
		goal = workout.Balance
	}
	return Recommendation{
		Goal:    goal,
		Plan:    workout.Recommend(goal, nil),
		Message: c.coach.Message(goal),
	}, nil
}

// SpinRoulette picks a random goal and recommends its workout. last is the
// most recent estimate, if any; it does not affect the plan.
func (c *Coach) SpinRoulette(ctx context.Context, last *nutrition.Macros) (Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return Recommendation{}, err
	}
	goal := c.coach.SpinGoal()
	return Recommendation{
		Goal:    goal,
		Macros:  last,
		Plan:    workout.Recommend(goal, last),
		Message: c.coach.Message(goal),
	}, nil
}

// CheatMealBurn estimates a cheat meal and returns the plan that burns it
// off. The meal is not logged.
func (c *Coach) CheatMealBurn(ctx context.Context, mealText string) (Recommendation, error) {
	if strings.TrimSpace(mealText) == "" {
		return Recommendation{}, progress.Invalid("meal", "please enter a cheat meal first")
	}
	if err := ctx.Err(); err != nil {
		return Recommendation{}, err
	}
	macros := c.estimator.Estimate(mealText)
	return Recommendation{
		Goal:   workout.BurnFat,
		Macros: &macros,
		Plan:   workout.BurnPlanFor(macros),
	}, nil
}

// BurnThisMeal records plan in the completed-workout log and returns the
// countdown to run.
func (c *Coach) BurnThisMeal(ctx context.Context, mealText string, plan workout.Plan) (Burn, error) {
	if len(plan.Exercises) == 0 || plan.DurationMinutes <= 0 {
		return Burn{}, progress.Invalid("workout", "please analyze a meal first")
	}
	if err := ctx.Err(); err != nil {
		return Burn{}, err
	}

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return Burn{}, fmt.Errorf("marshalling plan: %w", err)
	}

	b := Burn{
		ID:               uuid.New().String(),
		Meal:             mealText,
		Plan:             plan,
		CountdownSeconds: plan.CountdownSeconds(),
		StartedAt:        c.now().UTC(),
	}
	entry := storage.CompletedWorkout{
		ID:          b.ID,
		MealText:    mealText,
		Goal:        string(plan.Category),
		PlanJSON:    string(planJSON),
		CompletedAt: b.StartedAt,
	}
	if err := c.workouts.AppendWorkout(entry); err != nil {
		return Burn{}, fmt.Errorf("logging workout: %w", err)
	}
	c.logger.Info("workout timer started", "id", b.ID, "goal", plan.Category, "seconds", b.CountdownSeconds)
	return b, nil
}

// ResetIntake zeroes the daily calorie counter. It waits for any meal being
// logged so the reset is never undone by that meal's save.
func (c *Coach) ResetIntake(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.state.ResetDailyIntake(); err != nil {
		return fmt.Errorf("resetting intake: %w", err)
	}
	c.logger.Info("daily intake reset")
	return nil
}

// SetDarkMode persists the theme flag.
func (c *Coach) SetDarkMode(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.state.SetDarkMode(on); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	return nil
}

// Dashboard assembles the greeting, tip and daily progress.
func (c *Coach) Dashboard(ctx context.Context) (Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return Dashboard{}, err
	}
	s, err := c.state.State()
	if err != nil {
		return Dashboard{}, fmt.Errorf("loading state: %w", err)
	}
	now := c.now()
	return Dashboard{
		Greeting:    progress.Greeting(now, s.Profile),
		Tip:         progress.TipAt(now),
		Profile:     s.Profile,
		Badges:      s.Profile.Achievements.Titles(),
		DailyIntake: s.DailyIntake,
		Progress:    progress.DailyProgress(s.DailyIntake, s.Profile.DailyCalorieGoal),
		DarkMode:    s.DarkMode,
	}, nil
}
