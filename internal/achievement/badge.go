package achievement

import (
	"encoding/json"
	"sort"

	"github.com/kalambet/fitfuel/internal/nutrition"
)

// Badge identifies an achievement. The set of badges is closed.
type Badge string

const (
	HighProtein     Badge = "high-protein"
	HighCarb        Badge = "high-carb"
	HighFat         Badge = "high-fat"
	HighCalorie     Badge = "high-calorie"
	MealMilestone10 Badge = "meal-milestone-10"
	MealMilestone50 Badge = "meal-milestone-50"
)

// All lists every badge in canonical order.
func All() []Badge {
	return []Badge{HighProtein, HighCarb, HighFat, HighCalorie, MealMilestone10, MealMilestone50}
}

var titles = map[Badge]string{
	HighProtein:     "Protein Champ 🥩",
	HighCarb:        "Carb Overlord 🍞",
	HighFat:         "Fat Fighter 🥑",
	HighCalorie:     "Calorie Crusher 🔥",
	MealMilestone10: "Meal Master 🍽️",
	MealMilestone50: "Nutrition Ninja 🥷",
}

// Title is the display name of b.
func (b Badge) Title() string {
	if t, ok := titles[b]; ok {
		return t
	}
	return string(b)
}

// ParseBadge accepts a badge ID or its display title.
func ParseBadge(s string) (Badge, bool) {
	for _, b := range All() {
		if s == string(b) || s == titles[b] {
			return b, true
		}
	}
	return "", false
}

func rank(b Badge) int {
	for i, v := range All() {
		if v == b {
			return i
		}
	}
	return len(titles)
}

// Set is a duplicate-free collection of badges kept in canonical order.
type Set []Badge

// NewSet builds a Set from badges, dropping duplicates and unknown IDs.
func NewSet(badges ...Badge) Set {
	seen := make(map[Badge]bool, len(badges))
	out := make(Set, 0, len(badges))
	for _, b := range badges {
		if _, ok := titles[b]; !ok || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

// Has reports whether b is in the set.
func (s Set) Has(b Badge) bool {
	for _, v := range s {
		if v == b {
			return true
		}
	}
	return false
}

// Union returns s ∪ other. Neither input is modified.
func (s Set) Union(other Set) Set {
	all := make([]Badge, 0, len(s)+len(other))
	all = append(all, s...)
	all = append(all, other...)
	return NewSet(all...)
}

// Diff returns the badges in s that are not in other.
func (s Set) Diff(other Set) Set {
	out := Set{}
	for _, b := range s {
		if !other.Has(b) {
			out = append(out, b)
		}
	}
	return out
}

// Titles returns the display names of the set.
func (s Set) Titles() []string {
	out := make([]string, len(s))
	for i, b := range s {
		out[i] = b.Title()
	}
	return out
}

// UnmarshalJSON decodes a list of IDs or titles. Unknown entries are dropped.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	badges := make([]Badge, 0, len(raw))
	for _, r := range raw {
		if b, ok := ParseBadge(r); ok {
			badges = append(badges, b)
		}
	}
	*s = NewSet(badges...)
	return nil
}

// Thresholds that award a badge. Macro thresholds are strict, milestones inclusive.
const (
	proteinThreshold = 25
	carbThreshold    = 40
	fatThreshold     = 15
	calorieThreshold = 500
	firstMilestone   = 10
	secondMilestone  = 50
)

// Evaluate returns the badges earned by one meal, given the meal count
// including that meal.
func Evaluate(estimate nutrition.Macros, totalMeals int) Set {
	var earned []Badge
	if estimate.ProteinGrams > proteinThreshold {
		earned = append(earned, HighProtein)
	}
	if estimate.CarbGrams > carbThreshold {
		earned = append(earned, HighCarb)
	}
	if estimate.FatGrams > fatThreshold {
		earned = append(earned, HighFat)
	}
	if estimate.Calories > calorieThreshold {
		earned = append(earned, HighCalorie)
	}
	if totalMeals >= firstMilestone {
		earned = append(earned, MealMilestone10)
	}
	if totalMeals >= secondMilestone {
		earned = append(earned, MealMilestone50)
	}
	return NewSet(earned...)
}
