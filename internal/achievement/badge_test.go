package achievement

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/kalambet/fitfuel/internal/nutrition"
)

func TestEvaluate_AllBadges(t *testing.T) {
	got := Evaluate(nutrition.Macros{Calories: 600, ProteinGrams: 30, CarbGrams: 45, FatGrams: 20}, 50)
	if !reflect.DeepEqual(got, Set(All())) {
		t.Errorf("Evaluate = %v, want %v", got, All())
	}
}

func TestEvaluate_MacroBadgesAtTenMeals(t *testing.T) {
	got := Evaluate(nutrition.Macros{Calories: 600, ProteinGrams: 30, CarbGrams: 45, FatGrams: 20}, 10)
	want := Set{HighProtein, HighCarb, HighFat, HighCalorie, MealMilestone10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Evaluate = %v, want %v", got, want)
	}
}

func TestEvaluate_None(t *testing.T) {
	got := Evaluate(nutrition.Macros{Calories: 100, ProteinGrams: 1, CarbGrams: 1, FatGrams: 1}, 1)
	if len(got) != 0 {
		t.Errorf("Evaluate = %v, want empty", got)
	}
}

func TestEvaluate_Boundaries(t *testing.T) {
	// Macro thresholds are strict; equal values do not earn a badge.
	got := Evaluate(nutrition.Macros{Calories: 500, ProteinGrams: 25, CarbGrams: 40, FatGrams: 15}, 9)
	if len(got) != 0 {
		t.Errorf("Evaluate at thresholds = %v, want empty", got)
	}

	got = Evaluate(nutrition.Macros{Calories: 501, ProteinGrams: 26, CarbGrams: 41, FatGrams: 16}, 10)
	if len(got) != 5 {
		t.Errorf("Evaluate just over thresholds = %v, want 5 badges", got)
	}
}

func TestSetUnionIdempotent(t *testing.T) {
	a := NewSet(HighFat, HighProtein)
	b := NewSet(HighProtein, MealMilestone10)

	u := a.Union(b)
	want := Set{HighProtein, HighFat, MealMilestone10}
	if !reflect.DeepEqual(u, want) {
		t.Errorf("Union = %v, want %v", u, want)
	}
	if again := u.Union(b); !reflect.DeepEqual(again, u) {
		t.Errorf("second Union = %v, want %v", again, u)
	}
	if !reflect.DeepEqual(a, Set{HighProtein, HighFat}) {
		t.Errorf("Union modified its receiver: %v", a)
	}
}

func TestSetDiff(t *testing.T) {
	got := NewSet(HighProtein, HighCarb, HighFat).Diff(NewSet(HighCarb))
	want := Set{HighProtein, HighFat}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %v, want %v", got, want)
	}
}

func TestNewSetDropsUnknownAndDuplicates(t *testing.T) {
	got := NewSet(HighCarb, "bogus", HighCarb)
	if !reflect.DeepEqual(got, Set{HighCarb}) {
		t.Errorf("NewSet = %v, want [high-carb]", got)
	}
}

func TestSetUnmarshalLegacyTitles(t *testing.T) {
	var s Set
	data := `["Protein Champ 🥩","high-fat","Meal Master 🍽️","Unknown Badge"]`
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := Set{HighProtein, HighFat, MealMilestone10}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("decoded = %v, want %v", s, want)
	}
}

func TestBadgeTitle(t *testing.T) {
	if got := MealMilestone50.Title(); got != "Nutrition Ninja 🥷" {
		t.Errorf("Title = %q", got)
	}
	if got := Badge("other").Title(); got != "other" {
		t.Errorf("unknown Title = %q, want %q", got, "other")
	}
}
