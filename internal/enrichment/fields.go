// Package enrichment turns raw Open Food Facts payloads into normalized,
// scored records. Every function here is pure: no I/O, no shared state, and
// the same payload always yields the same record.
package enrichment

// Payload keys read from a raw Open Food Facts product
const (
	FieldCode            = "code"
	FieldProductName     = "product_name"
	FieldBrands          = "brands"
	FieldCategories      = "categories"
	FieldCountries       = "countries"
	FieldNutriscoreGrade = "nutriscore_grade"
	FieldIngredientsText = "ingredients_text"
	FieldNutriments      = "nutriments"
	FieldImageURL        = "image_url"
)

// Nutriment keys (per 100g) inside the nutriments map
const (
	NutrimentEnergyKcal   = "energy-kcal_100g"
	NutrimentFat          = "fat_100g"
	NutrimentSaturatedFat = "saturated-fat_100g"
	NutrimentSugars       = "sugars_100g"
	NutrimentSalt         = "salt_100g"
	NutrimentProteins     = "proteins_100g"
	NutrimentFiber        = "fiber_100g"
)
