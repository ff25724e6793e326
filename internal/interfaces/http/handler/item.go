package handler

import (
	"github.com/gin-gonic/gin"
	appstock "github.com/inventrack/backend/internal/application/stock"
)

// ItemHandler handles stock item endpoints
type ItemHandler struct {
	BaseHandler
	items *appstock.ItemService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(items *appstock.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// DeleteAllResult reports how many items a clear removed
type DeleteAllResult struct {
	Deleted int64 `json:"deleted"`
}

// Create adds an item.
// POST /items
func (h *ItemHandler) Create(c *gin.Context) {
	var req appstock.CreateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.items.CreateItem(c.Request.Context(), userID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// List returns a page of items ordered by name.
// GET /items?search=&category=&page=&page_size=
func (h *ItemHandler) List(c *gin.Context) {
	var filter appstock.ItemListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}

	items, total, err := h.items.ListItems(c.Request.Context(), userID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// LowStock returns items at or below the low-stock threshold.
// GET /items/low-stock
func (h *ItemHandler) LowStock(c *gin.Context) {
	items, err := h.items.ListLowStock(c.Request.Context(), userID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Get returns one item.
// GET /items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "item")
	if !ok {
		return
	}
	item, err := h.items.GetItem(c.Request.Context(), userID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Update overwrites an item's fields.
// PUT /items/:id
func (h *ItemHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "item")
	if !ok {
		return
	}
	var req appstock.UpdateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.items.UpdateItem(c.Request.Context(), userID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete removes an item.
// DELETE /items/:id
func (h *ItemHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "item")
	if !ok {
		return
	}
	if err := h.items.DeleteItem(c.Request.Context(), userID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DeleteAll removes every item of the caller.
// DELETE /items
func (h *ItemHandler) DeleteAll(c *gin.Context) {
	removed, err := h.items.DeleteAllItems(c.Request.Context(), userID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, DeleteAllResult{Deleted: removed})
}
