package progress

import (
	"strings"

	"github.com/kalambet/fitfuel/internal/achievement"
	"github.com/kalambet/fitfuel/internal/nutrition"
)

const (
	// DefaultCalorieGoal applies when no positive goal was given.
	DefaultCalorieGoal = 2000
	// MaxFrequentMeals caps the frequent-meal list. New meals are dropped
	// once it is full.
	MaxFrequentMeals = 5
	// mealsPerStreak is how many logged meals complete one streak step.
	mealsPerStreak = 3
)

// Profile is the durable user state.
type Profile struct {
	Name             string          `json:"name"`
	DailyCalorieGoal int             `json:"dailyCalorieGoal"`
	CurrentStreak    int             `json:"currentStreak"`
	TotalMealsLogged int             `json:"totalMealsLogged"`
	Achievements     achievement.Set `json:"achievements"`
	FrequentMeals    []string        `json:"frequentMeals"`
}

// DefaultProfile is the state before onboarding.
func DefaultProfile() Profile {
	return Profile{
		DailyCalorieGoal: DefaultCalorieGoal,
		Achievements:     achievement.Set{},
		FrequentMeals:    []string{},
	}
}

// Onboarded reports whether the user has set a name.
func (p Profile) Onboarded() bool {
	return strings.TrimSpace(p.Name) != ""
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	cp := p
	cp.Achievements = append(achievement.Set{}, p.Achievements...)
	cp.FrequentMeals = append([]string{}, p.FrequentMeals...)
	return cp
}

// Onboard creates the initial profile. A blank name is rejected; a
// non-positive calorie goal becomes DefaultCalorieGoal.
func Onboard(name string, dailyCalorieGoal int) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, Invalid("name", "must not be empty")
	}
	p := DefaultProfile()
	p.Name = name
	if dailyCalorieGoal > 0 {
		p.DailyCalorieGoal = dailyCalorieGoal
	}
	return p, nil
}

// ApplyMealLogged folds one analysed meal into the profile and the daily
// intake counter. It does not modify p.
func ApplyMealLogged(p Profile, estimate nutrition.Macros, mealText string, dailyIntake int) (Profile, int) {
	next := p.Clone()

	next.TotalMealsLogged = p.TotalMealsLogged + 1
	intake := dailyIntake + estimate.Calories

	earned := achievement.Evaluate(estimate, next.TotalMealsLogged)
	next.Achievements = next.Achievements.Union(earned)

	if !containsMeal(next.FrequentMeals, mealText) && len(next.FrequentMeals) < MaxFrequentMeals {
		next.FrequentMeals = append(next.FrequentMeals, mealText)
	}

	if next.TotalMealsLogged%mealsPerStreak == 0 {
		next.CurrentStreak = p.CurrentStreak + 1
	}

	return next, intake
}

func containsMeal(meals []string, meal string) bool {
	for _, m := range meals {
		if m == meal {
			return true
		}
	}
	return false
}
