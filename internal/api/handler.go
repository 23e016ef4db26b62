package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"demand-service/internal/identity"
	"demand-service/internal/models"
	"demand-service/internal/service"
	"demand-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const voterIDHeader = "X-Voter-ID"

// CatalogReader serves authoritative single-product reads and catalog counts.
// *store.Store satisfies it.
type CatalogReader interface {
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	GetVoteCount(ctx context.Context, productID string) (int, error)
	CountProducts(ctx context.Context) (int, error)
}

// VoteCountReader is the cache-side read surface. *redisclient.Client
// satisfies it; a nil reader routes every read to the catalog store.
type VoteCountReader interface {
	GetVoteCount(ctx context.Context, productID string) (int, error)
	HasVoted(ctx context.Context, productID, voterID string) (bool, error)
}

// Handler contains HTTP handlers
type Handler struct {
	registry *service.SessionRegistry
	catalog  CatalogReader
	votes    VoteCountReader
}

// NewHandler creates a new HTTP handler
func NewHandler(registry *service.SessionRegistry, catalog CatalogReader, votes VoteCountReader) *Handler {
	return &Handler{
		registry: registry,
		catalog:  catalog,
		votes:    votes,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/categories", h.listCategories)
		v1.POST("/products", h.requestProduct)
		v1.POST("/products/:id/vote", h.castVote)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only while the catalog store answers
func (h *Handler) readinessCheck(c *gin.Context) {
	products, err := h.catalog.CountProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"products": products,
		"sessions": h.registry.Len(),
		"time":     time.Now().Unix(),
	})
}

// session resolves the caller's voter id and session. A missing header mints
// a fresh id, echoed back so the client can persist it.
func (h *Handler) session(c *gin.Context) (*service.Session, bool) {
	voterID := c.GetHeader(voterIDHeader)
	if voterID == "" {
		voterID = identity.NewVoterID()
	}
	c.Header(voterIDHeader, voterID)

	session, err := h.registry.GetOrCreate(c.Request.Context(), voterID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Catalog unavailable",
			"details": err.Error(),
		})
		return nil, false
	}
	return session, true
}

// listProducts handles the searchable, filterable, paginated catalog view
func (h *Handler) listProducts(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page number"})
			return
		}
		page = parsed
	}

	items, total := session.Browse(c.Query("search"), c.Query("category"), page)

	c.JSON(http.StatusOK, gin.H{
		"products": items,
		"page":     session.CurrentPage(),
		"total":    total,
	})
}

// getProduct serves the authoritative detail view of one product, bypassing
// the session snapshot: product record from the store, vote count from the
// cache with a store fallback, voted flag from cache membership.
func (h *Handler) getProduct(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	product, err := h.catalog.GetProductByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	view := models.ProductView{
		Product:   *product,
		VoteCount: h.voteCount(ctx, id),
	}
	if voterID := c.GetHeader(voterIDHeader); voterID != "" && h.votes != nil {
		if voted, err := h.votes.HasVoted(ctx, id, voterID); err == nil {
			view.UserHasVoted = voted
		}
	}

	c.JSON(http.StatusOK, view)
}

// voteCount reads the cached counter, falling back to the ledger count when
// the cache is absent or misses.
func (h *Handler) voteCount(ctx context.Context, productID string) int {
	if h.votes != nil {
		if count, err := h.votes.GetVoteCount(ctx, productID); err == nil {
			return count
		}
	}

	count, err := h.catalog.GetVoteCount(ctx, productID)
	if err != nil {
		return 0
	}
	return count
}

// listCategories returns the category filter vocabulary
func (h *Handler) listCategories(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": session.Coordinator.Categories(),
	})
}

// castVote handles a vote for one product
func (h *Handler) castVote(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	result := session.Coordinator.CastVote(c.Request.Context(), c.Param("id"))
	session.Refresh()

	switch result.Status {
	case models.VoteStatusAccepted:
		c.JSON(http.StatusCreated, result)
	case models.VoteStatusAlreadyVoted:
		c.JSON(http.StatusConflict, result)
	default:
		c.JSON(http.StatusInternalServerError, result)
	}
}

// requestProductBody is the request-new-product payload
type requestProductBody struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
}

// requestProduct handles a customer request for a product not in the catalog
func (h *Handler) requestProduct(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var body requestProductBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result := session.Coordinator.RequestNewProduct(c.Request.Context(), body.Name, body.Category)
	session.Refresh()

	switch result.Status {
	case models.RequestStatusCreated:
		c.JSON(http.StatusCreated, result)
	case models.RequestStatusPartial:
		// product exists, the implicit vote needs a retry
		c.JSON(http.StatusCreated, result)
	default:
		c.JSON(http.StatusInternalServerError, result)
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
