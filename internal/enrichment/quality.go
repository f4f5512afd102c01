package enrichment

import "github.com/foodlens/backend/internal/domain"

const (
	completenessPoints = 6
	nutritionMaxPoints = 30
	nutritionPenalty   = 10
	maxQualityScore    = 100
)

// completenessFields each add completenessPoints when present
var completenessFields = []string{
	FieldProductName,
	FieldBrands,
	FieldCategories,
	FieldIngredientsText,
	FieldNutriments,
}

// nutrientLimits are per-100g thresholds above which a penalty applies
var nutrientLimits = []struct {
	key   string
	limit float64
}{
	{NutrimentSugars, 15},
	{NutrimentSalt, 1.5},
	{NutrimentSaturatedFat, 5},
}

// Breakdown is the quality score split into its components
type Breakdown struct {
	Grade        int `json:"grade"`
	Completeness int `json:"completeness"`
	Nutrition    int `json:"nutrition"`
	Total        int `json:"total"`
}

// QualityBreakdown scores a raw payload from its grade (0-40), data
// completeness (0-30) and sugar/salt/saturated fat levels (0-30).
// Missing or unparsable nutrient values are not penalized.
func QualityBreakdown(p domain.RawPayload) Breakdown {
	b := Breakdown{
		Grade:     NormalizeGrade(p[FieldNutriscoreGrade]).QualityPoints(),
		Nutrition: nutritionMaxPoints,
	}

	for _, field := range completenessFields {
		if truthy(p[field]) {
			b.Completeness += completenessPoints
		}
	}

	nutriments := asMap(p[FieldNutriments])
	for _, threshold := range nutrientLimits {
		if v, ok := ParseNumber(nutriments[threshold.key]); ok && v > threshold.limit {
			b.Nutrition -= nutritionPenalty
		}
	}
	b.Nutrition = max(0, b.Nutrition)

	b.Total = min(maxQualityScore, max(0, b.Grade+b.Completeness+b.Nutrition))
	return b
}

// QualityScore returns the 0-100 quality score of a raw payload
func QualityScore(p domain.RawPayload) int {
	return QualityBreakdown(p).Total
}
