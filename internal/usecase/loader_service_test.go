package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
	"github.com/foodlens/backend/internal/enrichment"
)

func enrichedOutcome(rawID string, payload domain.RawPayload) domain.Outcome {
	return domain.NewSuccessOutcome(rawID, enrichment.Enrich(payload), time.Now())
}

func newTestLoader(t *testing.T, outcomes domain.OutcomeStore, catalog domain.CatalogWriter) *LoaderService {
	t.Helper()
	contract, err := NewRecordContract()
	require.NoError(t, err)
	return NewLoaderService(outcomes, catalog, contract, zap.NewNop())
}

func TestLoaderRun_TransfersAndSkips(t *testing.T) {
	ctx := context.Background()
	outcomes := NewMockOutcomeStore(
		enrichedOutcome("r1", domain.RawPayload{
			"code":             "3017620422003",
			"product_name":     "Nutella",
			"brands":           "Ferrero",
			"categories":       "Spreads, Sweet spreads",
			"nutriscore_grade": "e",
			"ingredients_text": "sugar, hazelnuts, milk",
			"nutriments":       map[string]any{"sugars_100g": 56.3, "fat_100g": 30.9},
		}),
		domain.NewFailedOutcome("r2", "payload is not an object", time.Now()),
		enrichedOutcome("r3", domain.RawPayload{
			"product_name": "Kinder Bueno",
			"brands":       "Ferrero",
			"categories":   "Spreads, Biscuits",
		}),
	)
	catalog := NewMockCatalog()
	loader := newTestLoader(t, outcomes, catalog)

	stats, err := loader.Run(ctx, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.LoadStats{Transferred: 2}, stats)

	require.Contains(t, catalog.products, "r1")
	nutella := catalog.products["r1"]
	assert.Equal(t, "Nutella", nutella.ProductName)
	assert.Equal(t, "3017620422003", nutella.Barcode)
	require.NotNil(t, nutella.NutriscoreGrade)
	assert.Equal(t, "e", *nutella.NutriscoreGrade)
	require.NotNil(t, nutella.BrandID)
	assert.Equal(t, catalog.brands["Ferrero"], *nutella.BrandID)

	nutellaID := catalog.productIDs["r1"]
	assert.Len(t, catalog.links[nutellaID], 2)
	assert.Equal(t, domain.Nutrient{Value: 56.3, Unit: "g"}, catalog.nutrients[nutellaID]["sugars"])
	assert.Contains(t, catalog.allergens[nutellaID], "milk")

	assert.Equal(t, 1, catalog.createBrandCalls["Ferrero"])
	assert.Equal(t, 1, catalog.createCategoryCalls["Spreads"])
	assert.Len(t, catalog.categories, 3)

	again, err := loader.Run(ctx, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.LoadStats{Skipped: 2}, again)
	assert.Len(t, catalog.products, 2)
}

func TestLoaderRun_Limit(t *testing.T) {
	outcomes := NewMockOutcomeStore(
		enrichedOutcome("r1", domain.RawPayload{"product_name": "A"}),
		enrichedOutcome("r2", domain.RawPayload{"product_name": "B"}),
		enrichedOutcome("r3", domain.RawPayload{"product_name": "C"}),
	)
	catalog := NewMockCatalog()

	stats, err := newTestLoader(t, outcomes, catalog).Run(context.Background(), LoadOptions{Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, domain.LoadStats{Transferred: 2}, stats)
	assert.NotContains(t, catalog.products, "r3")
}

func TestLoaderRun_UnknownGradeAndMissingName(t *testing.T) {
	outcomes := NewMockOutcomeStore(enrichedOutcome("r1", domain.RawPayload{"nutriscore_grade": "not-applicable"}))
	catalog := NewMockCatalog()

	_, err := newTestLoader(t, outcomes, catalog).Run(context.Background(), LoadOptions{})
	require.NoError(t, err)

	row := catalog.products["r1"]
	assert.Equal(t, "Unknown", row.ProductName)
	assert.Nil(t, row.NutriscoreGrade)
	assert.Nil(t, row.BrandID)
	assert.Empty(t, catalog.links)
}

func TestLoaderRun_FailedProductDoesNotLeakIDs(t *testing.T) {
	ctx := context.Background()
	outcomes := NewMockOutcomeStore(
		enrichedOutcome("bad", domain.RawPayload{"product_name": "X", "brands": "Acme"}),
		enrichedOutcome("good", domain.RawPayload{"product_name": "Y", "brands": "Acme"}),
	)
	catalog := NewMockCatalog()
	catalog.failInsert["bad"] = errStore

	stats, err := newTestLoader(t, outcomes, catalog).Run(ctx, LoadOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.LoadStats{Transferred: 1, Errors: 1}, stats)
	assert.Equal(t, 2, catalog.createBrandCalls["Acme"], "brand created by a rolled back transaction must be recreated")
	assert.Equal(t, 1, catalog.rollbacks)
	assert.Equal(t, 1, catalog.commits)
	assert.NotContains(t, catalog.products, "bad")
	assert.Equal(t, catalog.brands["Acme"], *catalog.products["good"].BrandID)
}

func TestLoaderRun_RejectsInvalidRecords(t *testing.T) {
	tooManyCategories := enrichment.Enrich(domain.RawPayload{"product_name": "A"})
	tooManyCategories.Categories = []string{"a", "b", "c", "d", "e", "f"}

	badScore := enrichment.Enrich(domain.RawPayload{"product_name": "B"})
	badScore.QualityScore = 140

	outcomes := NewMockOutcomeStore(
		domain.NewSuccessOutcome("r1", tooManyCategories, time.Now()),
		domain.NewSuccessOutcome("r2", badScore, time.Now()),
		domain.Outcome{RawID: "r3", Status: domain.OutcomeSuccess},
		enrichedOutcome("r4", domain.RawPayload{"product_name": "D"}),
	)
	catalog := NewMockCatalog()

	stats, err := newTestLoader(t, outcomes, catalog).Run(context.Background(), LoadOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.LoadStats{Transferred: 1, Errors: 3}, stats)
	assert.Len(t, catalog.products, 1)
}

func TestLoaderRun_Truncation(t *testing.T) {
	rec := enrichment.Enrich(domain.RawPayload{"product_name": "x"})
	rec.ProductName = strings.Repeat("é", 600)
	rec.Barcode = strings.Repeat("1", 80)
	rec.Brand = strings.Repeat("b", 300)
	rec.DetectedAllergens = []string{strings.Repeat("a", 150)}
	outcomes := NewMockOutcomeStore(domain.NewSuccessOutcome("r1", rec, time.Now()))
	catalog := NewMockCatalog()

	_, err := newTestLoader(t, outcomes, catalog).Run(context.Background(), LoadOptions{})
	require.NoError(t, err)

	row := catalog.products["r1"]
	assert.Equal(t, 500, len([]rune(row.ProductName)))
	assert.Len(t, row.Barcode, 50)
	assert.Contains(t, catalog.brands, strings.Repeat("b", 255))
	assert.Len(t, catalog.allergens[catalog.productIDs["r1"]][0], 100)
}

func TestLoaderRun_ScanErrorIsFatal(t *testing.T) {
	outcomes := NewMockOutcomeStore()
	outcomes.scanErr = errStore

	_, err := newTestLoader(t, outcomes, NewMockCatalog()).Run(context.Background(), LoadOptions{})

	assert.ErrorIs(t, err, errStore)
}

func TestLoaderRun_BeginErrorCountsAsError(t *testing.T) {
	outcomes := NewMockOutcomeStore(enrichedOutcome("r1", domain.RawPayload{"product_name": "A"}))
	catalog := NewMockCatalog()
	catalog.beginErr = errStore

	stats, err := newTestLoader(t, outcomes, catalog).Run(context.Background(), LoadOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.LoadStats{Errors: 1}, stats)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"truncated", 5, "trunc"},
		{"crème brûlée", 5, "crème"},
		{"", 3, ""},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
