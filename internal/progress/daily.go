package progress

import (
	"math"
	"time"
)

// Daily is the calorie progress shown on the dashboard.
type Daily struct {
	Consumed  int `json:"consumed"`
	Goal      int `json:"goal"`
	Percent   int `json:"percent"`
	Remaining int `json:"remaining"`
}

// DailyProgress compares intake against goal. Percent may exceed 100.
func DailyProgress(intake, goal int) Daily {
	if goal <= 0 {
		goal = DefaultCalorieGoal
	}
	remaining := goal - intake
	if remaining < 0 {
		remaining = 0
	}
	return Daily{
		Consumed:  intake,
		Goal:      goal,
		Percent:   int(math.Round(float64(intake) / float64(goal) * 100)),
		Remaining: remaining,
	}
}

// Greeting is the time-of-day salutation, personalised once onboarded.
func Greeting(now time.Time, p Profile) string {
	var g string
	switch h := now.Hour(); {
	case h < 12:
		g = "Good morning"
	case h < 17:
		g = "Good afternoon"
	default:
		g = "Good evening"
	}
	if p.Onboarded() {
		g += ", " + p.Name
	}
	return g
}

var tips = []string{
	"💡 Drink water before, during, and after your workout!",
	"🌟 Consistency beats perfection - small steps lead to big changes!",
	"🔥 Your body can do it - it's your mind you need to convince!",
	"💪 Progress, not perfection, is the goal!",
	"⚡ The best workout is the one you actually do!",
	"🎯 Set small, achievable goals and celebrate every victory!",
	"🌈 Mix up your workouts to keep things fun and engaging!",
	"🧘‍♀️ Rest days are just as important as workout days!",
}

// tipRotation matches the dashboard's ten-second tip carousel.
const tipRotation = 10 * time.Second

// Tip returns the i-th fitness tip, wrapping around.
func Tip(i int) string {
	n := len(tips)
	return tips[((i%n)+n)%n]
}

// TipAt returns the tip shown at time now.
func TipAt(now time.Time) string {
	return Tip(int(now.Unix() / int64(tipRotation/time.Second)))
}
