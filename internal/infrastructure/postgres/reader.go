package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
)

var _ domain.CatalogReader = (*Repository)(nil)

const topLimit = 10

var summaryColumns = []string{
	"p.id",
	"p.barcode",
	"p.product_name",
	"b.name AS brand_name",
	"p.nutriscore_grade",
	"p.nutriscore_score",
	"p.quality_score",
	"p.has_image",
	"p.image_url",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern matching s anywhere
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// applyProductFilter adds the list filters shared by the page and count queries
func applyProductFilter(sb *sqlbuilder.SelectBuilder, f domain.ProductFilter) {
	sb.From("products p")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "brands b", "p.brand_id = b.id")

	if f.Nutriscore != "" {
		sb.Where(sb.Equal("p.nutriscore_grade", strings.ToLower(strings.TrimSpace(f.Nutriscore))))
	}
	if f.Brand != "" {
		sb.Where(sb.Like("LOWER(b.name)", containsPattern(f.Brand)))
	}
	if f.Category != "" {
		sub := sqlbuilder.PostgreSQL.NewSelectBuilder()
		sub.Select("1").
			From("product_categories pc").
			Join("categories c", "c.id = pc.category_id").
			Where("pc.product_id = p.id", sub.Like("LOWER(c.name)", containsPattern(f.Category)))
		sb.Where(sb.Exists(sub))
	}
	if f.MinQuality != nil {
		sb.Where(sb.GreaterEqualThan("p.quality_score", *f.MinQuality))
	}
	if f.Search != "" {
		sb.Where(sb.Like("LOWER(p.product_name)", containsPattern(f.Search)))
	}
}

func listProductsQuery(f domain.ProductFilter) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(summaryColumns...)
	applyProductFilter(sb, f)
	sb.OrderBy("p.quality_score DESC", "p.id")
	sb.Limit(f.PageSize).Offset(f.Offset())
	return sb.Build()
}

func countProductsQuery(f domain.ProductFilter) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	applyProductFilter(sb, f)
	return sb.Build()
}

// ListProducts returns one page of products with their categories,
// allergens and nutrient counts, plus the total number of matches
func (r *Repository) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.ProductSummary, int, error) {
	countQuery, countArgs := countProductsQuery(f)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query, args := listProductsQuery(f)
	items := []domain.ProductSummary{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	if err := r.attachRelations(ctx, items); err != nil {
		return nil, 0, err
	}

	r.logger.Debug("listed products", zap.Int("count", len(items)), zap.Int("total", total))
	return items, total, nil
}

type productName struct {
	ProductID int64  `db:"product_id"`
	Name      string `db:"name"`
}

type productCount struct {
	ProductID int64 `db:"product_id"`
	Count     int   `db:"cnt"`
}

// attachRelations fills categories, allergens and counts for a page in three queries
func (r *Repository) attachRelations(ctx context.Context, items []domain.ProductSummary) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	var categories []productName
	err := r.db.SelectContext(ctx, &categories, `
		SELECT pc.product_id, c.name
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ANY($1)
		ORDER BY pc.product_id, c.name`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list product categories: %w", err)
	}

	var allergens []productName
	err = r.db.SelectContext(ctx, &allergens, `
		SELECT product_id, allergen_name AS name
		FROM product_allergens
		WHERE product_id = ANY($1)
		ORDER BY product_id, id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list product allergens: %w", err)
	}

	var nutrientCounts []productCount
	err = r.db.SelectContext(ctx, &nutrientCounts, `
		SELECT product_id, COUNT(*) AS cnt
		FROM product_nutrients
		WHERE product_id = ANY($1)
		GROUP BY product_id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("count product nutrients: %w", err)
	}

	byID := make(map[int64]*domain.ProductSummary, len(items))
	for i := range items {
		items[i].Categories = []string{}
		items[i].Allergens = []string{}
		byID[items[i].ID] = &items[i]
	}
	for _, c := range categories {
		byID[c.ProductID].Categories = append(byID[c.ProductID].Categories, c.Name)
	}
	for _, a := range allergens {
		byID[a.ProductID].Allergens = append(byID[a.ProductID].Allergens, a.Name)
	}
	for _, n := range nutrientCounts {
		byID[n.ProductID].NutrientCount = n.Count
	}
	for _, item := range byID {
		item.CategoryCount = len(item.Categories)
		item.AllergenCount = len(item.Allergens)
	}
	return nil
}

// GetProduct returns one product with its relations and nutrients
func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.ProductDetail, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(append(slices.Clone(summaryColumns), "p.created_at")...).
		From("products p").
		JoinWithOption(sqlbuilder.LeftJoin, "brands b", "p.brand_id = b.id").
		Where(sb.Equal("p.id", id))

	query, args := sb.Build()
	var detail domain.ProductDetail
	err := r.db.GetContext(ctx, &detail, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}

	items := []domain.ProductSummary{detail.ProductSummary}
	if err := r.attachRelations(ctx, items); err != nil {
		return nil, err
	}
	detail.ProductSummary = items[0]

	detail.Nutrients = []domain.NutrientEntry{}
	err = r.db.SelectContext(ctx, &detail.Nutrients, `
		SELECT nutrient_name, value, unit
		FROM product_nutrients
		WHERE product_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list nutrients of product %d: %w", id, err)
	}
	detail.NutrientCount = len(detail.Nutrients)

	return &detail, nil
}

// Stats computes the global catalog figures
func (r *Repository) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	stats := &domain.CatalogStats{
		NutriscoreDistribution: map[string]int{},
		TopBrands:              []domain.NameCount{},
		TopCategories:          []domain.NameCount{},
	}

	counts := []struct {
		dst   *int
		query string
	}{
		{&stats.TotalProducts, `SELECT COUNT(*) FROM products`},
		{&stats.TotalBrands, `SELECT COUNT(*) FROM brands`},
		{&stats.TotalCategories, `SELECT COUNT(*) FROM categories`},
	}
	for _, c := range counts {
		if err := r.db.GetContext(ctx, c.dst, c.query); err != nil {
			return nil, fmt.Errorf("catalog stats: %w", err)
		}
	}

	var distribution []domain.NameCount
	err := r.db.SelectContext(ctx, &distribution, `
		SELECT nutriscore_grade AS name, COUNT(*) AS cnt
		FROM products
		WHERE nutriscore_grade IS NOT NULL
		GROUP BY nutriscore_grade
		ORDER BY nutriscore_grade`)
	if err != nil {
		return nil, fmt.Errorf("nutriscore distribution: %w", err)
	}
	for _, d := range distribution {
		stats.NutriscoreDistribution[d.Name] = d.Count
	}

	if err := r.db.GetContext(ctx, &stats.AvgQualityScore,
		`SELECT COALESCE(AVG(quality_score), 0)::float8 FROM products`); err != nil {
		return nil, fmt.Errorf("average quality: %w", err)
	}

	err = r.db.SelectContext(ctx, &stats.TopBrands, `
		SELECT b.name, COUNT(p.id) AS cnt
		FROM brands b
		JOIN products p ON p.brand_id = b.id
		GROUP BY b.name
		ORDER BY cnt DESC, b.name
		LIMIT $1`, topLimit)
	if err != nil {
		return nil, fmt.Errorf("top brands: %w", err)
	}

	err = r.db.SelectContext(ctx, &stats.TopCategories, `
		SELECT c.name, COUNT(pc.product_id) AS cnt
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		GROUP BY c.name
		ORDER BY cnt DESC, c.name
		LIMIT $1`, topLimit)
	if err != nil {
		return nil, fmt.Errorf("top categories: %w", err)
	}

	return stats, nil
}
