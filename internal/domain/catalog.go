package domain

import "time"

// ProductRow is the relational shape of one enriched record
type ProductRow struct {
	RawID           string
	Barcode         string
	ProductName     string
	BrandID         *int64
	NutriscoreGrade *string
	NutriscoreScore int
	QualityScore    int
	HasImage        bool
	ImageURL        string
}

// ProductFilter holds the list query parameters
type ProductFilter struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Nutriscore string `form:"nutriscore"`
	Brand      string `form:"brand"`
	Category   string `form:"category"`
	MinQuality *int   `form:"min_quality" binding:"omitempty,min=0,max=100"`
	Search     string `form:"search"`
}

// Offset returns the row offset of the requested page
func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// ProductSummary is one row of the product list
type ProductSummary struct {
	ID              int64    `json:"id" db:"id"`
	Barcode         *string  `json:"barcode" db:"barcode"`
	ProductName     string   `json:"product_name" db:"product_name"`
	BrandName       *string  `json:"brand_name" db:"brand_name"`
	NutriscoreGrade *string  `json:"nutriscore_grade" db:"nutriscore_grade"`
	NutriscoreScore *int     `json:"nutriscore_score" db:"nutriscore_score"`
	QualityScore    *int     `json:"quality_score" db:"quality_score"`
	HasImage        bool     `json:"has_image" db:"has_image"`
	ImageURL        *string  `json:"image_url" db:"image_url"`
	Categories      []string `json:"categories" db:"-"`
	Allergens       []string `json:"allergens" db:"-"`
	NutrientCount   int      `json:"nutrient_count" db:"-"`
	AllergenCount   int      `json:"allergen_count" db:"-"`
	CategoryCount   int      `json:"category_count" db:"-"`
}

// NutrientEntry is one stored nutrient value
type NutrientEntry struct {
	Name  string  `json:"name" db:"nutrient_name"`
	Value float64 `json:"value" db:"value"`
	Unit  string  `json:"unit" db:"unit"`
}

// ProductDetail is a single product with its nutrients
type ProductDetail struct {
	ProductSummary
	Nutrients    []NutrientEntry `json:"nutrients"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	Completeness int             `json:"completeness"`
}

// ProductPage is one page of the product list
type ProductPage struct {
	Items      []ProductSummary `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// NameCount is a ranked name with its product count
type NameCount struct {
	Name  string `json:"name" db:"name"`
	Count int    `json:"count" db:"cnt"`
}

// CatalogStats are the global figures over the relational store
type CatalogStats struct {
	TotalProducts          int            `json:"total_products"`
	TotalBrands            int            `json:"total_brands"`
	TotalCategories        int            `json:"total_categories"`
	NutriscoreDistribution map[string]int `json:"nutriscore_distribution"`
	AvgQualityScore        float64        `json:"avg_quality_score"`
	TopBrands              []NameCount    `json:"top_brands"`
	TopCategories          []NameCount    `json:"top_categories"`
}
