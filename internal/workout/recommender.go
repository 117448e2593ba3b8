package workout

import (
	"math/rand"
	"sync"
	"time"

	"github.com/kalambet/fitfuel/internal/nutrition"
)

var plans = map[Goal]Plan{
	Balance: {
		Category:        Balance,
		Label:           "Balanced Training",
		Exercises:       []string{"20 Push-ups", "30 Squats", "1-minute Plank", "15 Burpees", "20 Mountain Climbers"},
		DurationMinutes: 25,
		Intensity:       Moderate,
	},
	BurnFat: {
		Category:        BurnFat,
		Label:           "Fat Burning HIIT",
		Exercises:       []string{"30 Jumping Jacks", "20 High Knees", "15 Burpees", "30 Mountain Climbers", "20 Jump Squats"},
		DurationMinutes: 30,
		Intensity:       High,
	},
	BuildMuscle: {
		Category:        BuildMuscle,
		Label:           "Strength Training",
		Exercises:       []string{"25 Push-ups", "20 Pike Push-ups", "30 Squats", "15 Diamond Push-ups", "20 Lunges (each leg)"},
		DurationMinutes: 35,
		Intensity:       High,
	},
}

var messages = map[Goal][]string{
	Balance: {
		"Perfect! Let's maintain that beautiful balance! 🌟",
		"Your body is a temple - let's keep it strong and balanced! 💪",
		"Balanced nutrition calls for balanced movement! Let's go! 🎯",
	},
	BurnFat: {
		"Time to turn up the heat and melt those calories! 🔥",
		"Let's torch those calories with some high-intensity fun! ⚡",
		"Your fat-burning journey starts now - let's ignite it! 🚀",
	},
	BuildMuscle: {
		"Time to build that strength and sculpt those muscles! 💪",
		"Let's turn that protein into pure power! 🏋️‍♂️",
		"Muscle-building mode activated - let's get swole! 💥",
	},
}

// Recommend returns the plan for goal. The estimate does not influence the
// choice. Unknown goals get the Balance plan.
func Recommend(goal Goal, _ *nutrition.Macros) Plan {
	p, ok := plans[goal]
	if !ok {
		p = plans[Balance]
	}
	p.Exercises = append([]string(nil), p.Exercises...)
	return p
}

// BurnPlanFor is the plan that burns off a cheat meal.
func BurnPlanFor(estimate nutrition.Macros) Plan {
	return Recommend(BurnFat, &estimate)
}

// Messages returns the canned coach messages for goal.
func Messages(goal Goal) []string {
	m, ok := messages[goal]
	if !ok {
		m = messages[Balance]
	}
	return append([]string(nil), m...)
}

// Coach picks motivational messages and roulette goals at random.
type Coach struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCoach creates a Coach backed by rng; nil means a time-seeded source.
func NewCoach(rng *rand.Rand) *Coach {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Coach{rng: rng}
}

// Message returns one of the messages for goal, chosen uniformly.
func (c *Coach) Message(goal Goal) string {
	m := Messages(goal)
	return m[c.intn(len(m))]
}

// SpinGoal picks a goal uniformly for the workout roulette.
func (c *Coach) SpinGoal() Goal {
	goals := Goals()
	return goals[c.intn(len(goals))]
}

func (c *Coach) intn(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Intn(n)
}
