package enrichment

import (
	"slices"
	"strings"
)

// allergenVocabulary is scanned in this order; the order of the detected
// list follows it, not the order of the ingredients text.
var allergenVocabulary = []string{
	"gluten", "wheat", "milk", "dairy", "eggs", "egg", "nuts", "peanuts",
	"soy", "soja", "fish", "shellfish", "sesame", "mustard", "celery",
	"lupin", "molluscs", "sulphites", "lait", "oeufs", "noix", "arachides",
}

var accentReplacer = strings.NewReplacer("é", "e", "è", "e")

// DetectAllergens returns the vocabulary terms contained in the ingredients
// text. Matching is plain substring containment on the lower-cased text, so
// "egg" also matches "eggplant".
func DetectAllergens(ingredients string) []string {
	detected := []string{}
	if ingredients == "" {
		return detected
	}

	text := strings.ToLower(ingredients)
	for _, term := range allergenVocabulary {
		if !strings.Contains(text, term) {
			continue
		}
		name := accentReplacer.Replace(term)
		if !slices.Contains(detected, name) {
			detected = append(detected, name)
		}
	}
	return detected
}
