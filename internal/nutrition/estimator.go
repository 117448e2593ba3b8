package nutrition

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// foods is ordered so sums are accumulated in a stable order.
var foods = []Food{
	{Keyword: "chicken", Calories: 165, ProteinGrams: 31, CarbGrams: 0, FatGrams: 3.6},
	{Keyword: "rice", Calories: 130, ProteinGrams: 2.7, CarbGrams: 28, FatGrams: 0.3},
	{Keyword: "broccoli", Calories: 34, ProteinGrams: 2.8, CarbGrams: 7, FatGrams: 0.4},
	{Keyword: "salmon", Calories: 208, ProteinGrams: 22, CarbGrams: 0, FatGrams: 12},
	{Keyword: "pasta", Calories: 131, ProteinGrams: 5, CarbGrams: 25, FatGrams: 1.1},
	{Keyword: "egg", Calories: 155, ProteinGrams: 13, CarbGrams: 1.1, FatGrams: 11},
	{Keyword: "bread", Calories: 265, ProteinGrams: 9, CarbGrams: 49, FatGrams: 3.2},
	{Keyword: "banana", Calories: 89, ProteinGrams: 1.1, CarbGrams: 23, FatGrams: 0.3},
	{Keyword: "apple", Calories: 52, ProteinGrams: 0.3, CarbGrams: 14, FatGrams: 0.2},
	{Keyword: "cheese", Calories: 113, ProteinGrams: 7, CarbGrams: 1, FatGrams: 9},
	{Keyword: "yogurt", Calories: 59, ProteinGrams: 10, CarbGrams: 3.6, FatGrams: 0.4},
	{Keyword: "oatmeal", Calories: 68, ProteinGrams: 2.4, CarbGrams: 12, FatGrams: 1.4},
}

// Fallback ranges used when no keyword matches. Each is [min, min+span).
const (
	fallbackCaloriesMin  = 300
	fallbackCaloriesSpan = 200
	fallbackProteinMin   = 15
	fallbackProteinSpan  = 10
	fallbackCarbsMin     = 30
	fallbackCarbsSpan    = 20
	fallbackFatMin       = 10
	fallbackFatSpan      = 8
)

// Foods returns a copy of the known keyword table.
func Foods() []Food {
	out := make([]Food, len(foods))
	copy(out, foods)
	return out
}

// Estimator turns free-text meal descriptions into macro estimates.
type Estimator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEstimator creates an Estimator drawing fallback values from rng.
// A nil rng is replaced with a time-seeded source.
func NewEstimator(rng *rand.Rand) *Estimator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Estimator{rng: rng}
}

// Estimate sums the contribution of every known keyword found in mealText.
// A keyword counts once however many times it appears. When nothing matches,
// the result is drawn uniformly from the fallback ranges.
func (e *Estimator) Estimate(mealText string) Macros {
	lower := strings.ToLower(mealText)

	var total Food
	matched := false
	for _, f := range foods {
		if !strings.Contains(lower, f.Keyword) {
			continue
		}
		matched = true
		total.Calories += f.Calories
		total.ProteinGrams += f.ProteinGrams
		total.CarbGrams += f.CarbGrams
		total.FatGrams += f.FatGrams
	}

	if !matched {
		return e.fallback()
	}

	return Macros{
		Calories:     int(math.Round(total.Calories)),
		ProteinGrams: math.Round(total.ProteinGrams),
		CarbGrams:    math.Round(total.CarbGrams),
		FatGrams:     math.Round(total.FatGrams),
	}
}

func (e *Estimator) fallback() Macros {
	e.mu.Lock()
	cal := fallbackCaloriesMin + e.rng.Float64()*fallbackCaloriesSpan
	protein := fallbackProteinMin + e.rng.Float64()*fallbackProteinSpan
	carbs := fallbackCarbsMin + e.rng.Float64()*fallbackCarbsSpan
	fat := fallbackFatMin + e.rng.Float64()*fallbackFatSpan
	e.mu.Unlock()

	return Macros{
		Calories:     int(roundBelow(cal, fallbackCaloriesMin+fallbackCaloriesSpan)),
		ProteinGrams: roundBelow(protein, fallbackProteinMin+fallbackProteinSpan),
		CarbGrams:    roundBelow(carbs, fallbackCarbsMin+fallbackCarbsSpan),
		FatGrams:     roundBelow(fat, fallbackFatMin+fallbackFatSpan),
	}
}

// roundBelow rounds v to the nearest integer, keeping it under the exclusive
// upper bound max.
func roundBelow(v, max float64) float64 {
	r := math.Round(v)
	if r >= max {
		return max - 1
	}
	return r
}
