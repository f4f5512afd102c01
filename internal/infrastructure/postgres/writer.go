package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
)

var _ domain.CatalogWriter = (*Repository)(nil)

// BeginLoad opens a transaction for loading one product
func (r *Repository) BeginLoad(ctx context.Context) (domain.LoadTx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin load transaction: %w", err)
	}
	return &loadTx{tx: tx, logger: r.logger}, nil
}

type loadTx struct {
	tx     *sqlx.Tx
	logger *zap.Logger
}

func (t *loadTx) ProductExists(ctx context.Context, rawID string) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM products WHERE raw_id = $1)`, rawID)
	if err != nil {
		return false, fmt.Errorf("check product %s: %w", rawID, err)
	}
	return exists, nil
}

func (t *loadTx) FindBrand(ctx context.Context, name string) (int64, bool, error) {
	return t.findByName(ctx, "brands", name)
}

func (t *loadTx) CreateBrand(ctx context.Context, name string) (int64, error) {
	return t.createNamed(ctx, "brands", name)
}

func (t *loadTx) FindCategory(ctx context.Context, name string) (int64, bool, error) {
	return t.findByName(ctx, "categories", name)
}

func (t *loadTx) CreateCategory(ctx context.Context, name string) (int64, error) {
	return t.createNamed(ctx, "categories", name)
}

func (t *loadTx) findByName(ctx context.Context, table, name string) (int64, bool, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id").From(table).Where(sb.Equal("name", name))

	query, args := sb.Build()
	var id int64
	err := t.tx.GetContext(ctx, &id, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find %s %q: %w", table, name, err)
	}
	return id, true, nil
}

// createNamed inserts a brand or category. A concurrent insert of the same
// name resolves to the existing row.
func (t *loadTx) createNamed(ctx context.Context, table, name string) (int64, error) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(table).Cols("name").Values(name)
	ib.SQL("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name")
	ib.Returning("id")

	query, args := ib.Build()
	var id int64
	if err := t.tx.GetContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("create %s %q: %w", table, name, err)
	}
	return id, nil
}

func (t *loadTx) InsertProduct(ctx context.Context, row domain.ProductRow) (int64, error) {
	query, args := insertProductQuery(row)

	var id int64
	if err := t.tx.GetContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("insert product %s: %w", row.RawID, err)
	}
	return id, nil
}

func insertProductQuery(row domain.ProductRow) (string, []any) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("products").
		Cols("raw_id", "barcode", "product_name", "brand_id",
			"nutriscore_grade", "nutriscore_score", "quality_score",
			"has_image", "image_url").
		Values(row.RawID, row.Barcode, row.ProductName, row.BrandID,
			row.NutriscoreGrade, row.NutriscoreScore, row.QualityScore,
			row.HasImage, row.ImageURL)
	ib.Returning("id")
	return ib.Build()
}

func (t *loadTx) LinkCategory(ctx context.Context, productID, categoryID int64) error {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("product_categories").Cols("product_id", "category_id").Values(productID, categoryID)
	ib.SQL("ON CONFLICT DO NOTHING")

	query, args := ib.Build()
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("link product %d to category %d: %w", productID, categoryID, err)
	}
	return nil
}

func (t *loadTx) InsertNutrient(ctx context.Context, productID int64, name string, n domain.Nutrient) error {
	query, args := upsertNutrientQuery(productID, name, n)
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert nutrient %s for product %d: %w", name, productID, err)
	}
	return nil
}

func upsertNutrientQuery(productID int64, name string, n domain.Nutrient) (string, []any) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("product_nutrients").Cols("product_id", "nutrient_name", "value", "unit").
		Values(productID, name, n.Value, n.Unit)
	ib.SQL("ON CONFLICT (product_id, nutrient_name) DO UPDATE SET value = EXCLUDED.value, unit = EXCLUDED.unit")
	return ib.Build()
}

func (t *loadTx) InsertAllergen(ctx context.Context, productID int64, name string) error {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("product_allergens").Cols("product_id", "allergen_name").Values(productID, name)
	ib.SQL("ON CONFLICT DO NOTHING")

	query, args := ib.Build()
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert allergen %s for product %d: %w", name, productID, err)
	}
	return nil
}

func (t *loadTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit load transaction: %w", err)
	}
	return nil
}

func (t *loadTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		t.logger.Warn("rollback failed", zap.Error(err))
		return fmt.Errorf("roll back load transaction: %w", err)
	}
	return nil
}
