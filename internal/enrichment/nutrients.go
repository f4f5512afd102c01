package enrichment

import (
	"strconv"

	"github.com/foodlens/backend/internal/domain"
)

// Canonical nutrient names in an enriched record
const (
	NutrientEnergyKcal   = "energy_kcal"
	NutrientFat          = "fat"
	NutrientSaturatedFat = "saturated_fat"
	NutrientSugars       = "sugars"
	NutrientSalt         = "salt"
	NutrientProteins     = "proteins"
	NutrientFiber        = "fiber"
)

type trackedNutrient struct {
	name string
	key  string
	unit string
}

var trackedNutrients = []trackedNutrient{
	{NutrientEnergyKcal, NutrimentEnergyKcal, "kcal"},
	{NutrientFat, NutrimentFat, "g"},
	{NutrientSaturatedFat, NutrimentSaturatedFat, "g"},
	{NutrientSugars, NutrimentSugars, "g"},
	{NutrientSalt, NutrimentSalt, "g"},
	{NutrientProteins, NutrimentProteins, "g"},
	{NutrientFiber, NutrimentFiber, "g"},
}

// ExtractNutrients picks the tracked per-100g values out of a nutriments map.
// A field is included only when its value parses as a number; anything else
// is left out rather than reported.
func ExtractNutrients(nutriments any) map[string]domain.Nutrient {
	nutrients := make(map[string]domain.Nutrient)
	source := asMap(nutriments)
	if len(source) == 0 {
		return nutrients
	}

	for _, tracked := range trackedNutrients {
		value, ok := ParseNumber(source[tracked.key])
		if !ok {
			continue
		}
		nutrients[tracked.name] = domain.Nutrient{
			Value: roundTo2(value),
			Unit:  tracked.unit,
		}
	}
	return nutrients
}

// roundTo2 rounds the exact binary value half to even, so 0.125 gives 0.12
// and 2.675 (stored just below) gives 2.67.
func roundTo2(v float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
