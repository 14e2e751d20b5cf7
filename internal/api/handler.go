package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/service"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	categories  *service.CategoryService
	inventory   *service.InventoryService
	bags        *service.BagService
	batches     *service.BatchService
	queries     *service.QueryService
	submissions *service.SubmissionService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	categories *service.CategoryService,
	inventory *service.InventoryService,
	bags *service.BagService,
	batches *service.BatchService,
	queries *service.QueryService,
	submissions *service.SubmissionService,
) *Handler {
	return &Handler{
		categories:  categories,
		inventory:   inventory,
		bags:        bags,
		batches:     batches,
		queries:     queries,
		submissions: submissions,
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
		v1.POST("/categories", h.createCategory)
		v1.GET("/categories", h.listCategories)
		v1.GET("/categories/for-child", h.categoriesForChild)
		v1.GET("/categories/grouped", h.categoriesGrouped)
		v1.GET("/categories/:id", h.getCategory)
		v1.PATCH("/categories/:id", h.updateCategory)
		v1.DELETE("/categories/:id", h.deactivateCategory)

		v1.POST("/inventory/transactions", h.recordTransaction)
		v1.POST("/inventory/intake", h.recordIntake)
		v1.GET("/inventory/transactions", h.listTransactions)
		v1.GET("/inventory/levels", h.listLevels)
		v1.GET("/inventory/levels/:categoryID", h.getLevel)

		v1.POST("/bags", h.createBag)
		v1.GET("/bags", h.listBags)
		v1.GET("/bags/:id", h.getBag)
		v1.POST("/bags/:id/status", h.updateBagStatus)
		v1.POST("/bags/:id/pick/start", h.startPicking)
		v1.POST("/bags/:id/pick/complete", h.completePick)
		v1.GET("/bags/:id/picks", h.listBagPicks)
		v1.POST("/bags/:id/pack/complete", h.completePacking)
		v1.POST("/bags/:id/ship", h.shipBag)
		v1.POST("/bags/:id/ready-for-pickup", h.markBagReadyForPickup)
		v1.POST("/bags/:id/deliver", h.markBagDelivered)
		v1.POST("/bags/:id/cancel", h.cancelBag)
		v1.POST("/bags/:id/reopen", h.reopenBag)

		v1.POST("/batches", h.createBatch)
		v1.GET("/batches", h.listBatches)
		v1.GET("/batches/number/:number", h.getBatchByNumber)
		v1.GET("/batches/:id", h.getBatch)
		v1.DELETE("/batches/:id", h.deleteBatch)
		v1.POST("/batches/:id/bags", h.addBagsToBatch)
		v1.DELETE("/batches/:id/bags/:bagID", h.removeBagFromBatch)
		v1.POST("/batches/:id/status", h.updateBatchStatus)
		v1.POST("/batches/:id/close", h.closeBatch)
		v1.POST("/batches/:id/pickup", h.markBatchPickedUp)
		v1.POST("/batches/:id/ready-for-pickup", h.markBatchReadyForPickup)
		v1.POST("/batches/:id/deliver", h.markBatchDelivered)
		v1.POST("/batches/:id/cancel", h.cancelBatch)

		v1.GET("/fulfillment/stages/:stage", h.bagsByStage)
		v1.GET("/fulfillment/counts", h.fulfillmentCounts)
		v1.GET("/fulfillment/batch-counts", h.batchCounts)
		v1.GET("/fulfillment/available-bags", h.availableBagsForBatch)

		v1.POST("/submissions", h.createSubmission)
		v1.GET("/submissions", h.listSubmissions)
		v1.GET("/submissions/:id", h.getSubmission)
		v1.POST("/submissions/:id/process", h.processSubmission)
	}
}

// respondError maps domain errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	var notFound *models.NotFoundError
	var invalidTransition *models.InvalidTransitionError
	var validation *models.ValidationError
	var insufficient *models.InsufficientInventoryError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &invalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":       err.Error(),
			"category_id": insufficient.CategoryID,
			"condition":   insufficient.Condition,
			"requested":   insufficient.Requested,
			"available":   insufficient.Available,
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// --- Categories ---

func (h *Handler) createCategory(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	category, err := h.categories.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) listCategories(c *gin.Context) {
	filters := store.CategoryFilters{
		ItemType: c.Query("item_type"),
	}
	if v := c.Query("age_group"); v != "" {
		filters.AgeGroups = strings.Split(v, ",")
	}
	if v := c.Query("gender"); v != "" {
		filters.Genders = strings.Split(v, ",")
	}
	if v := c.Query("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid is_active value"})
			return
		}
		filters.IsActive = &active
	}

	categories, err := h.categories.ListCategories(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) categoriesForChild(c *gin.Context) {
	categories, err := h.categories.CategoriesForChild(c.Request.Context(), c.Query("age_group"), c.Query("gender"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) categoriesGrouped(c *gin.Context) {
	filters := store.CategoryFilters{ItemType: c.Query("item_type")}
	if v := c.Query("age_group"); v != "" {
		filters.AgeGroups = strings.Split(v, ",")
	}
	if v := c.Query("gender"); v != "" {
		filters.Genders = strings.Split(v, ",")
	}

	grouped, err := h.categories.GroupCategoriesByType(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": grouped})
}

func (h *Handler) getCategory(c *gin.Context) {
	category, err := h.categories.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) updateCategory(c *gin.Context) {
	var req service.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	category, err := h.categories.UpdateCategory(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) deactivateCategory(c *gin.Context) {
	if err := h.categories.DeactivateCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

// --- Inventory ---

func (h *Handler) recordTransaction(c *gin.Context) {
	var req service.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	txn, err := h.inventory.RecordTransaction(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *Handler) recordIntake(c *gin.Context) {
	var req service.RecordIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	txn, err := h.inventory.RecordIntake(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *Handler) listTransactions(c *gin.Context) {
	categoryID := c.Query("category_id")
	if categoryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category_id is required"})
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	txns, err := h.inventory.ListTransactions(c.Request.Context(), categoryID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

func (h *Handler) listLevels(c *gin.Context) {
	levels, err := h.inventory.GetLevels(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"levels": levels})
}

func (h *Handler) getLevel(c *gin.Context) {
	level, err := h.inventory.GetLevel(c.Request.Context(), c.Param("categoryID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, level)
}

// --- Bags ---

func (h *Handler) createBag(c *gin.Context) {
	var req service.CreateBagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	bag, err := h.bags.CreateBag(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bag)
}

func (h *Handler) listBags(c *gin.Context) {
	var statuses []string
	if v := c.Query("status"); v != "" {
		statuses = strings.Split(v, ",")
	}

	bags, err := h.bags.ListBags(c.Request.Context(), statuses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bags": bags})
}

func (h *Handler) getBag(c *gin.Context) {
	bag, err := h.bags.GetBag(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bag)
}

func (h *Handler) updateBagStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	bag, err := h.bags.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bag)
}

func (h *Handler) startPicking(c *gin.Context) {
	bag, err := h.bags.StartPicking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bag)
}

func (h *Handler) completePick(c *gin.Context) {
	var req struct {
		Picks []service.PickItem `json:"picks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	bag, err := h.bags.CompletePick(c.Request.Context(), c.Param("id"), req.Picks)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bag)
}

func (h *Handler) listBagPicks(c *gin.Context) {
	picks, err := h.inventory.ListPicksForBag(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"picks": picks})
}

func (h *Handler) completePacking(c *gin.Context) {
	bag, err := h.bags.CompletePacking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bag)
}

func (h *Handler) shipBag(c *gin.Context) {
	var info service.ShippingInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	bag, err := h.bags.ShipBag(c.Request.Context(), c.Param("id"), &info)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bag)
}

func (h *Handler) markBagReadyForPickup(c *gin.Context) {
	bag, err := h.bags.MarkReadyForPickup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bag)
}

func (h *Handler) markBagDelivered(c *gin.Context) {
	bag, err := h.bags.MarkDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bag)
}

func (h *Handler) cancelBag(c *gin.Context) {
	bag, err := h.bags.CancelBag(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bag)
}

func (h *Handler) reopenBag(c *gin.Context) {
	bag, err := h.bags.ReopenBag(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bag)
}

// --- Batches ---

func (h *Handler) createBatch(c *gin.Context) {
	var req service.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	batch, err := h.batches.CreateBatch(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

func (h *Handler) listBatches(c *gin.Context) {
	var statuses []string
	if v := c.Query("status"); v != "" {
		statuses = strings.Split(v, ",")
	}

	batches, err := h.batches.ListBatches(c.Request.Context(), statuses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

func (h *Handler) getBatch(c *gin.Context) {
	batch, err := h.batches.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *Handler) getBatchByNumber(c *gin.Context) {
	batch, err := h.batches.GetBatchByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *Handler) deleteBatch(c *gin.Context) {
	if err := h.batches.DeleteBatch(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) addBagsToBatch(c *gin.Context) {
	var req struct {
		BagIDs []string `json:"bag_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	batch, err := h.batches.AddBagsToBatch(c.Request.Context(), c.Param("id"), req.BagIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *Handler) removeBagFromBatch(c *gin.Context) {
	if err := h.batches.RemoveBagFromBatch(c.Request.Context(), c.Param("id"), c.Param("bagID")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *Handler) updateBatchStatus(c *gin.Context) {
	var req struct {
		Status         string  `json:"status" binding:"required"`
		CourierName    *string `json:"courier_name,omitempty"`
		TrackingNumber *string `json:"tracking_number,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	batch, err := h.batches.UpdateBatchStatus(c.Request.Context(), c.Param("id"), req.Status, &service.BatchStatusUpdate{
		CourierName:    req.CourierName,
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *Handler) closeBatch(c *gin.Context) {
	var update service.BatchStatusUpdate
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	batch, err := h.batches.CloseBatch(c.Request.Context(), c.Param("id"), &update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *Handler) markBatchPickedUp(c *gin.Context) {
	var update service.BatchStatusUpdate
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	batch, err := h.batches.MarkBatchPickedUp(c.Request.Context(), c.Param("id"), &update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *Handler) markBatchReadyForPickup(c *gin.Context) {
	batch, err := h.batches.MarkBatchReadyForPickup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *Handler) markBatchDelivered(c *gin.Context) {
	batch, err := h.batches.MarkBatchDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *Handler) cancelBatch(c *gin.Context) {
	batch, err := h.batches.CancelBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// --- Fulfillment queries ---

func (h *Handler) bagsByStage(c *gin.Context) {
	bags, err := h.queries.GetBagsByStage(c.Request.Context(), c.Param("stage"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bags": bags})
}

func (h *Handler) fulfillmentCounts(c *gin.Context) {
	counts, err := h.queries.GetFulfillmentCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) batchCounts(c *gin.Context) {
	counts, err := h.queries.GetBatchCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

func (h *Handler) availableBagsForBatch(c *gin.Context) {
	bags, err := h.queries.GetAvailableBagsForBatch(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bags": bags})
}

// --- Submissions ---

func (h *Handler) createSubmission(c *gin.Context) {
	var req service.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	sub, err := h.submissions.CreateSubmission(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) listSubmissions(c *gin.Context) {
	subs, err := h.submissions.ListSubmissions(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

func (h *Handler) getSubmission(c *gin.Context) {
	sub, err := h.submissions.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) processSubmission(c *gin.Context) {
	bag, err := h.submissions.ProcessSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bag)
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
