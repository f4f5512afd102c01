package enrichment

import "github.com/foodlens/backend/internal/domain"

// maxCategories bounds the categories kept per product
const maxCategories = 5

// Enrich builds the enriched record of one raw payload. It never fails:
// missing or malformed fields fall back to empty values.
func Enrich(p domain.RawPayload) domain.EnrichedRecord {
	grade := NormalizeGrade(p[FieldNutriscoreGrade])
	imageURL := passthrough(p[FieldImageURL])

	return domain.EnrichedRecord{
		ProductName:       cleanString(p[FieldProductName]),
		Brand:             cleanString(p[FieldBrands]),
		Categories:        parseCategories(p[FieldCategories]),
		Countries:         splitList(p[FieldCountries]),
		NutriscoreGrade:   string(grade),
		NutriscoreScore:   grade.Ordinal(),
		Nutrients:         ExtractNutrients(p[FieldNutriments]),
		DetectedAllergens: DetectAllergens(cleanIngredients(p[FieldIngredientsText])),
		QualityScore:      QualityScore(p),
		HasImage:          truthy(p[FieldImageURL]),
		ImageURL:          imageURL,
		Barcode:           passthrough(p[FieldCode]),
	}
}

func parseCategories(v any) []string {
	categories := splitList(v)
	if len(categories) > maxCategories {
		categories = categories[:maxCategories]
	}
	return categories
}

func cleanIngredients(v any) string {
	if !truthy(v) {
		return ""
	}
	return stringify(v)
}
