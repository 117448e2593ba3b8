package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/fitfuel/internal/nutrition"
	"github.com/kalambet/fitfuel/internal/profile"
	"github.com/kalambet/fitfuel/internal/progress"
	"github.com/kalambet/fitfuel/internal/session"
	"github.com/kalambet/fitfuel/internal/storage"
	"github.com/kalambet/fitfuel/internal/workout"
)

const maxRequestBodySize = 1 << 20 // 1MB

type AppDeps struct {
	Store       *storage.Store
	Profile     *profile.Manager
	Coach       *session.Coach
	DefaultGoal workout.Goal
	Token       string
}

type OnboardRequest struct {
	Name             string `json:"name"`
	DailyCalorieGoal int    `json:"dailyCalorieGoal"`
}

type MealRequest struct {
	Meal string       `json:"meal"`
	Goal workout.Goal `json:"goal,omitempty"`
}

type RouletteRequest struct {
	LastMacros *nutrition.Macros `json:"lastMacros"`
}

// BurnRequest starts a workout timer. Plan wins over Goal when both are set.
type BurnRequest struct {
	Meal string        `json:"meal"`
	Goal workout.Goal  `json:"goal,omitempty"`
	Plan *workout.Plan `json:"plan,omitempty"`
}

type DarkModeRequest struct {
	Enabled bool `json:"enabled"`
}

// WorkoutEntry is a completed-workout log row as served over HTTP.
type WorkoutEntry struct {
	ID          string          `json:"id"`
	Meal        string          `json:"meal"`
	Goal        string          `json:"goal"`
	Plan        json.RawMessage `json:"plan"`
	CompletedAt time.Time       `json:"completedAt"`
}

// StateView is the persisted state as served to clients.
type StateView struct {
	Profile     progress.Profile `json:"profile"`
	Badges      []string         `json:"badges"`
	DailyIntake int              `json:"dailyIntake"`
	DarkMode    bool             `json:"darkMode"`
}

func NewAppHandler(deps AppDeps) http.Handler {
	if !deps.DefaultGoal.Valid() {
		deps.DefaultGoal = workout.Balance
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/profile", handleGetProfile(deps))
		r.Post("/onboard", handleOnboard(deps))
		r.Post("/meals", handleAnalyzeMeal(deps))
		r.Post("/roulette", handleRoulette(deps))
		r.Post("/cheat-meal", handleCheatMeal(deps))
		r.Post("/burn", handleBurn(deps))
		r.Get("/workouts", handleListWorkouts(deps))
		r.Get("/workouts/plans/{goal}", handleGetPlan(deps))
		r.Get("/workouts/{id}", handleGetWorkout(deps))
		r.Get("/foods", handleListFoods)
		r.Get("/dashboard", handleDashboard(deps))
		r.Put("/settings/dark-mode", handleSetDarkMode(deps))
		r.Post("/intake/reset", handleResetIntake(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Profile.State()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, StateView{
			Profile:     s.Profile,
			Badges:      s.Profile.Achievements.Titles(),
			DailyIntake: s.DailyIntake,
			DarkMode:    s.DarkMode,
		})
	}
}

func handleOnboard(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OnboardRequest
		if !decodeBody(w, r, &req) {
			return
		}
		p, err := deps.Coach.Onboard(r.Context(), req.Name, req.DailyCalorieGoal)
		if err != nil {
			coachError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleAnalyzeMeal(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MealRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Goal == "" {
			req.Goal = deps.DefaultGoal
		}
		a, err := deps.Coach.AnalyzeMeal(r.Context(), req.Meal, req.Goal)
		if err != nil {
			coachError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleRoulette(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The body is optional; chunked requests report ContentLength -1
		// even when empty, so an immediate EOF counts as no body.
		var req RouletteRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		rec, err := deps.Coach.SpinRoulette(r.Context(), req.LastMacros)
		if err != nil {
			coachError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleCheatMeal(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MealRequest
		if !decodeBody(w, r, &req) {
			return
		}
		rec, err := deps.Coach.CheatMealBurn(r.Context(), req.Meal)
		if err != nil {
			coachError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleBurn(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BurnRequest
		if !decodeBody(w, r, &req) {
			return
		}
		var plan workout.Plan
		switch {
		case req.Plan != nil:
			plan = *req.Plan
		case req.Goal != "":
			plan = workout.Recommend(req.Goal, nil)
		}
		b, err := deps.Coach.BurnThisMeal(r.Context(), req.Meal, plan)
		if err != nil {
			coachError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func handleListWorkouts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		rows, err := deps.Store.ListWorkouts(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list workouts: %v", err)
			return
		}
		total, err := deps.Store.CountWorkouts()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to count workouts: %v", err)
			return
		}

		entries := make([]WorkoutEntry, len(rows))
		for i, row := range rows {
			entries[i] = toWorkoutEntry(row)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"workouts": entries,
			"total":    total,
		})
	}
}

func handleGetWorkout(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		row, err := deps.Store.GetWorkout(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "workout not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get workout: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, toWorkoutEntry(row))
	}
}

func toWorkoutEntry(row storage.CompletedWorkout) WorkoutEntry {
	plan := json.RawMessage(row.PlanJSON)
	if !json.Valid(plan) {
		plan = json.RawMessage("null")
	}
	return WorkoutEntry{
		ID:          row.ID,
		Meal:        row.MealText,
		Goal:        row.Goal,
		Plan:        plan,
		CompletedAt: row.CompletedAt,
	}
}

func handleGetPlan(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		goal := workout.ParseGoal(chi.URLParam(r, "goal"))
		rec, err := deps.Coach.Recommend(r.Context(), goal)
		if err != nil {
			coachError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleListFoods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nutrition.Foods())
}

func handleDashboard(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := deps.Coach.Dashboard(r.Context())
		if err != nil {
			coachError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleSetDarkMode(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DarkModeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := deps.Coach.SetDarkMode(r.Context(), req.Enabled); err != nil {
			coachError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"darkMode": req.Enabled})
	}
}

func handleResetIntake(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Coach.ResetIntake(r.Context()); err != nil {
			coachError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"dailyIntake": 0})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

// coachError maps session errors onto HTTP status codes.
func coachError(w http.ResponseWriter, err error) {
	var verr *progress.ValidationError
	switch {
	case errors.As(err, &verr):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", verr.Reason)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpError(w, http.StatusServiceUnavailable, "request_cancelled", "request cancelled: %v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
