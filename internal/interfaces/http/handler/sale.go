package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	appsales "github.com/inventrack/backend/internal/application/sales"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/infrastructure/logger"
	"github.com/inventrack/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// DefaultIdempotencyHeader carries the client key for POST /sales
const DefaultIdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// SaleHandlerConfig configures a SaleHandler
type SaleHandlerConfig struct {
	// Idempotency is optional; without it the idempotency header is ignored
	Idempotency       shared.IdempotencyStore
	IdempotencyTTL    time.Duration
	IdempotencyHeader string
	// Location resolves bare dates in range queries
	Location *time.Location
}

// SaleHandler handles sale endpoints
type SaleHandler struct {
	BaseHandler
	sales  *appsales.SaleService
	config SaleHandlerConfig
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales *appsales.SaleService, cfg SaleHandlerConfig) *SaleHandler {
	if cfg.IdempotencyHeader == "" {
		cfg.IdempotencyHeader = DefaultIdempotencyHeader
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &SaleHandler{sales: sales, config: cfg}
}

// PurgeRequest selects the sales removed by a bulk purge
type PurgeRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// Create records a sale.
// POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req appsales.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	uid := userID(c)
	ctx := c.Request.Context()

	reservation, ok := h.reserve(c, uid)
	if !ok {
		return
	}

	sale, err := h.sales.CreateSale(ctx, uid, req)
	if err != nil {
		if reservation != "" && shared.IsBusinessError(err) {
			if releaseErr := h.config.Idempotency.Release(ctx, reservation); releaseErr != nil {
				logger.GetGinLogger(c).Warn("Failed to release idempotency key", zap.Error(releaseErr))
			}
		}
		h.HandleError(c, err)
		return
	}

	h.Created(c, sale)
}

// reserve claims the request's idempotency key. It returns the reserved store
// key, empty when the request carries none, and false once a response was written.
func (h *SaleHandler) reserve(c *gin.Context, uid string) (string, bool) {
	key := c.GetHeader(h.config.IdempotencyHeader)
	if key == "" || h.config.Idempotency == nil {
		return "", true
	}
	if len(key) > maxIdempotencyKeyLength {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Idempotency key is too long")
		return "", false
	}

	storeKey := "sale:create:" + uid + ":" + key
	reserved, err := h.config.Idempotency.Reserve(c.Request.Context(), storeKey, h.config.IdempotencyTTL)
	if err != nil {
		logger.GetGinLogger(c).Error("Idempotency store unavailable", zap.Error(err))
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Request could not be deduplicated, please retry")
		return "", false
	}
	if !reserved {
		h.HandleError(c, shared.ErrDuplicateRequest)
		return "", false
	}
	return storeKey, true
}

// Get returns one sale.
// GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "sale")
	if !ok {
		return
	}
	sale, err := h.sales.GetSale(c.Request.Context(), userID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// List returns the sales of a date range with totals; today when no range is given.
// GET /sales?start=&end=
func (h *SaleHandler) List(c *gin.Context) {
	start, end, err := parseRange(c.Query("start"), c.Query("end"), h.config.Location)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	list, err := h.sales.ListSales(c.Request.Context(), userID(c), start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// Update edits a sale's item and quantity.
// PUT /sales/:id
func (h *SaleHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "sale")
	if !ok {
		return
	}
	var req appsales.EditSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.sales.EditSale(c.Request.Context(), userID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Delete removes a sale and returns its quantity to stock.
// DELETE /sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "sale")
	if !ok {
		return
	}
	if err := h.sales.DeleteSale(c.Request.Context(), userID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Purge removes every sale dated within a range.
// POST /sales/purge
func (h *SaleHandler) Purge(c *gin.Context) {
	var req PurgeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	start, end, err := parseRange(req.Start, req.End, h.config.Location)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.sales.PurgeSalesInRange(c.Request.Context(), userID(c), start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// PurgeToday removes every sale dated today.
// POST /sales/purge-today
func (h *SaleHandler) PurgeToday(c *gin.Context) {
	result, err := h.sales.PurgeSalesOnDay(c.Request.Context(), userID(c), time.Time{})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
