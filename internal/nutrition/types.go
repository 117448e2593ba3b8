package nutrition

// Macros is the estimated macronutrient content of one meal. Values are
// rounded to whole calories and grams when produced.
type Macros struct {
	Calories     int     `json:"calories"`
	ProteinGrams float64 `json:"protein"`
	CarbGrams    float64 `json:"carbs"`
	FatGrams     float64 `json:"fat"`
}

// Food is the per-occurrence contribution of one known keyword.
type Food struct {
	Keyword      string  `json:"keyword"`
	Calories     float64 `json:"calories"`
	ProteinGrams float64 `json:"protein"`
	CarbGrams    float64 `json:"carbs"`
	FatGrams     float64 `json:"fat"`
}
