package handler

import (
	"github.com/gin-gonic/gin"
	appstock "github.com/inventrack/backend/internal/application/stock"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	BaseHandler
	categories *appstock.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categories *appstock.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// Create adds a category.
// POST /categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req appstock.CreateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.categories.CreateCategory(c.Request.Context(), userID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// List returns every category of the caller.
// GET /categories
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.ListCategories(c.Request.Context(), userID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// Delete removes a category. Items keep their category name.
// DELETE /categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "category")
	if !ok {
		return
	}
	if err := h.categories.DeleteCategory(c.Request.Context(), userID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
