package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/fitfuel/internal/profile"
	"github.com/kalambet/fitfuel/internal/progress"
	"github.com/kalambet/fitfuel/internal/session"
	"github.com/kalambet/fitfuel/internal/storage"
	"github.com/kalambet/fitfuel/internal/workout"
)

// recentWorkouts is how many log entries user://workouts serves.
const recentWorkouts = 10

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store       *storage.Store
	Profile     *profile.Manager
	Coach       *session.Coach
	DefaultGoal workout.Goal
}

// NewMCPServer creates an MCP server with all fitfuel tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if !deps.DefaultGoal.Valid() {
		deps.DefaultGoal = workout.Balance
	}

	s := server.NewMCPServer(
		"fitfuel",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("fitfuel: estimate meal macros, log meals and get a workout to match."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("analyze_meal",
			mcp.WithDescription("Estimate the macros of a meal, log it and recommend a workout for the goal."),
			mcp.WithString("meal", mcp.Description("Free-text meal description"), mcp.Required()),
			mcp.WithString("goal", mcp.Description("Balance, BurnFat or BuildMuscle (default from config)")),
		),
		mcpAnalyzeMeal(deps),
	)

	s.AddTool(
		mcp.NewTool("recommend_workout",
			mcp.WithDescription("Recommend a workout without logging a meal. Use goal \"random\" to spin the roulette."),
			mcp.WithString("goal", mcp.Description("Balance, BurnFat, BuildMuscle or random")),
		),
		mcpRecommendWorkout(deps),
	)

	s.AddTool(
		mcp.NewTool("cheat_meal_burn",
			mcp.WithDescription("Estimate a cheat meal and return the fat-burning workout that offsets it. The meal is not logged."),
			mcp.WithString("meal", mcp.Description("Free-text cheat meal description"), mcp.Required()),
		),
		mcpCheatMealBurn(deps),
	)

	s.AddTool(
		mcp.NewTool("onboard",
			mcp.WithDescription("Set the user's name and daily calorie goal."),
			mcp.WithString("name", mcp.Description("User name"), mcp.Required()),
			mcp.WithNumber("daily_calorie_goal", mcp.Description("Daily calorie goal (default 2000)")),
		),
		mcpOnboard(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"User Profile",
			mcp.WithResourceDescription("Current profile, daily intake and theme as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://workouts",
			"Recent Workouts",
			mcp.WithResourceDescription("Last 10 completed workouts"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceWorkouts(deps),
	)

	return s
}

func mcpAnalyzeMeal(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		meal, err := req.RequireString("meal")
		if err != nil {
			return mcpError("meal is required"), nil
		}
		goal := deps.DefaultGoal
		if g := req.GetString("goal", ""); g != "" {
			goal = workout.ParseGoal(g)
		}

		a, err := deps.Coach.AnalyzeMeal(ctx, meal, goal)
		if err != nil {
			return mcpCoachError(err), nil
		}
		return mcpJSON(a)
	}
}

func mcpRecommendWorkout(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		g := req.GetString("goal", "")

		var rec session.Recommendation
		var err error
		switch {
		case g == "random":
			rec, err = deps.Coach.SpinRoulette(ctx, nil)
		case g == "":
			rec, err = deps.Coach.Recommend(ctx, deps.DefaultGoal)
		default:
			rec, err = deps.Coach.Recommend(ctx, workout.ParseGoal(g))
		}
		if err != nil {
			return mcpCoachError(err), nil
		}
		return mcpJSON(rec)
	}
}

func mcpCheatMealBurn(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		meal, err := req.RequireString("meal")
		if err != nil {
			return mcpError("meal is required"), nil
		}
		rec, err := deps.Coach.CheatMealBurn(ctx, meal)
		if err != nil {
			return mcpCoachError(err), nil
		}
		return mcpJSON(rec)
	}
}

func mcpOnboard(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		goal := req.GetInt("daily_calorie_goal", progress.DefaultCalorieGoal)

		p, err := deps.Coach.Onboard(ctx, name, goal)
		if err != nil {
			return mcpCoachError(err), nil
		}
		return mcpText(fmt.Sprintf("Welcome, %s! Daily goal set to %d kcal.", p.Name, p.DailyCalorieGoal)), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s, err := deps.Profile.State()
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}

		b, err := json.Marshal(StateView{
			Profile:     s.Profile,
			Badges:      s.Profile.Achievements.Titles(),
			DailyIntake: s.DailyIntake,
			DarkMode:    s.DarkMode,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceWorkouts(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		total, err := deps.Store.CountWorkouts()
		if err != nil {
			return nil, fmt.Errorf("failed to count workouts: %w", err)
		}
		offset := total - recentWorkouts
		if offset < 0 {
			offset = 0
		}
		rows, err := deps.Store.ListWorkouts(recentWorkouts, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list workouts: %w", err)
		}

		entries := make([]WorkoutEntry, len(rows))
		for i, row := range rows {
			entries[i] = toWorkoutEntry(row)
		}

		b, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal workouts: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpCoachError(err error) *mcp.CallToolResult {
	var verr *progress.ValidationError
	if errors.As(err, &verr) {
		return mcpError(verr.Reason)
	}
	return mcpError(err.Error())
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
