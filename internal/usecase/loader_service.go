package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
	"github.com/foodlens/backend/internal/enrichment"
	"github.com/foodlens/backend/internal/infrastructure/metrics"
)

// Column limits of the relational catalog, in characters
const (
	maxProductNameLen = 500
	maxBarcodeLen     = 50
	maxNameLen        = 255
	maxAllergenLen    = 100

	defaultProductName = "Unknown"
)

// LoadOptions bounds one load run. Limit caps the number of success
// outcomes read, skipped ones included.
type LoadOptions struct {
	Limit int
}

// LoaderService copies successful enrichment outcomes into the relational
// catalog, one transaction per product
type LoaderService struct {
	outcomes domain.OutcomeStore
	catalog  domain.CatalogWriter
	contract *RecordContract
	logger   *zap.Logger

	// committed brand and category ids by name
	brands     map[string]int64
	categories map[string]int64
}

// NewLoaderService creates a loader
func NewLoaderService(outcomes domain.OutcomeStore, catalog domain.CatalogWriter, contract *RecordContract, logger *zap.Logger) *LoaderService {
	return &LoaderService{
		outcomes:   outcomes,
		catalog:    catalog,
		contract:   contract,
		logger:     logger.Named("loader"),
		brands:     make(map[string]int64),
		categories: make(map[string]int64),
	}
}

// Run loads every success outcome not yet in the catalog. A failing product
// is rolled back and counted as an error; reading the outcome store is fatal.
func (s *LoaderService) Run(ctx context.Context, opts LoadOptions) (domain.LoadStats, error) {
	var stats domain.LoadStats
	s.logger.Info("load started", zap.Int("limit", opts.Limit))

	err := s.outcomes.Scan(ctx, domain.OutcomeSuccess, opts.Limit, func(o domain.Outcome) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		log := s.logger.With(zap.String("raw_id", o.RawID))
		if err := s.contract.Validate(o.Data); err != nil {
			stats.Errors++
			metrics.LoadedProducts.WithLabelValues(metrics.ResultError).Inc()
			log.Warn("enriched record rejected", zap.Error(err))
			return nil
		}

		loaded, err := s.loadProduct(ctx, o.RawID, o.Data)
		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			stats.Errors++
			metrics.LoadedProducts.WithLabelValues(metrics.ResultError).Inc()
			log.Error("product load failed", zap.Error(err))
		case !loaded:
			stats.Skipped++
			metrics.LoadedProducts.WithLabelValues(metrics.ResultSkipped).Inc()
		default:
			stats.Transferred++
			metrics.LoadedProducts.WithLabelValues(metrics.ResultTransferred).Inc()
			if stats.Transferred%progressEvery == 0 {
				s.logger.Info("load progress", zap.Int("transferred", stats.Transferred))
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("load aborted", zap.Any("stats", stats), zap.Error(err))
		return stats, fmt.Errorf("scan outcomes: %w", err)
	}

	s.logger.Info("load finished",
		zap.Int("transferred", stats.Transferred),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
	)
	return stats, nil
}

// loadProduct writes one product and its relations in a single transaction.
// It reports false when the raw id is already loaded.
func (s *LoaderService) loadProduct(ctx context.Context, rawID string, data *domain.EnrichedRecord) (bool, error) {
	tx, err := s.catalog.BeginLoad(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	exists, err := tx.ProductExists(ctx, rawID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	// ids created in this transaction become visible to later products only after commit
	newBrands := make(map[string]int64)
	newCategories := make(map[string]int64)

	var brandID *int64
	if data.Brand != "" {
		id, err := resolveID(ctx, truncate(data.Brand, maxNameLen), s.brands, newBrands, tx.FindBrand, tx.CreateBrand)
		if err != nil {
			return false, fmt.Errorf("brand: %w", err)
		}
		brandID = &id
	}

	productID, err := tx.InsertProduct(ctx, productRow(rawID, data, brandID))
	if err != nil {
		return false, err
	}

	for _, name := range data.Categories {
		if name == "" {
			continue
		}
		categoryID, err := resolveID(ctx, truncate(name, maxNameLen), s.categories, newCategories, tx.FindCategory, tx.CreateCategory)
		if err != nil {
			return false, fmt.Errorf("category: %w", err)
		}
		if err := tx.LinkCategory(ctx, productID, categoryID); err != nil {
			return false, err
		}
	}

	names := make([]string, 0, len(data.Nutrients))
	for name := range data.Nutrients {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := tx.InsertNutrient(ctx, productID, name, data.Nutrients[name]); err != nil {
			return false, err
		}
	}

	for _, allergen := range data.DetectedAllergens {
		if err := tx.InsertAllergen(ctx, productID, truncate(allergen, maxAllergenLen)); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	for name, id := range newBrands {
		s.brands[name] = id
	}
	for name, id := range newCategories {
		s.categories[name] = id
	}
	return true, nil
}

// resolveID finds or creates a named row, consulting committed ids first
// and then ids created earlier in the same transaction
func resolveID(
	ctx context.Context,
	name string,
	committed, pending map[string]int64,
	find func(context.Context, string) (int64, bool, error),
	create func(context.Context, string) (int64, error),
) (int64, error) {
	if id, ok := committed[name]; ok {
		return id, nil
	}
	if id, ok := pending[name]; ok {
		return id, nil
	}

	id, found, err := find(ctx, name)
	if err != nil {
		return 0, err
	}
	if !found {
		if id, err = create(ctx, name); err != nil {
			return 0, err
		}
	}
	pending[name] = id
	return id, nil
}

func productRow(rawID string, data *domain.EnrichedRecord, brandID *int64) domain.ProductRow {
	name := data.ProductName
	if strings.TrimSpace(name) == "" {
		name = defaultProductName
	}

	var grade *string
	if g := enrichment.NormalizeGrade(data.NutriscoreGrade); g != enrichment.GradeUnknown {
		v := string(g)
		grade = &v
	}

	return domain.ProductRow{
		RawID:           rawID,
		Barcode:         truncate(data.Barcode, maxBarcodeLen),
		ProductName:     truncate(name, maxProductNameLen),
		BrandID:         brandID,
		NutriscoreGrade: grade,
		NutriscoreScore: data.NutriscoreScore,
		QualityScore:    data.QualityScore,
		HasImage:        data.HasImage,
		ImageURL:        data.ImageURL,
	}
}

// truncate cuts s to at most n characters
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
