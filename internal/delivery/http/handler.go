package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
)

const (
	serviceName    = "foodlens-backend"
	serviceVersion = "1.0.0"
)

// CatalogQuerier serves the catalog read operations
type CatalogQuerier interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*domain.ProductDetail, error)
	Stats(ctx context.Context) (*domain.CatalogStats, error)
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog CatalogQuerier
	db      Pinger
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler. catalog and db may be nil, in which
// case catalog endpoints answer 501 and health skips the database check.
func NewHandler(catalog CatalogQuerier, db Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		db:      db,
		logger:  logger.Named("http"),
	}
}

// Root describes the API
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Food Data API",
		"version": serviceVersion,
	})
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	database := "not configured"

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("database ping failed", zap.Error(err))
			status, code, database = "degraded", http.StatusServiceUnavailable, "unreachable"
		} else {
			database = "ok"
		}
	}

	c.JSON(code, gin.H{
		"status":   status,
		"service":  serviceName,
		"version":  serviceVersion,
		"database": database,
	})
}

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	if !h.catalogConfigured(c) {
		return
	}

	var filter domain.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	if !h.catalogConfigured(c) {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id must be an integer"})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Stats handles GET /api/v1/stats
func (h *Handler) Stats(c *gin.Context) {
	if !h.catalogConfigured(c) {
		return
	}

	stats, err := h.catalog.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) catalogConfigured(c *gin.Context) bool {
	if h.catalog == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "catalog service not configured"})
		return false
	}
	return true
}

// respondError maps domain errors to status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
