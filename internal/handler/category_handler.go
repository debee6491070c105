package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/almanara-academy/courses-api/internal/service"
	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
	"github.com/almanara-academy/courses-api/pkg/response"
)

// CategoryHandler exposes the category endpoints.
type CategoryHandler struct {
	categories *service.CategoryService
}

// NewCategoryHandler constructs CategoryHandler.
func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// List godoc
// @Summary List categories with derived course counts
// @Tags Categories
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, served, err := h.categories.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تم جلب التصنيفات بنجاح", categories, tierMeta(served))
}

// Courses godoc
// @Summary Category detail with its courses
// @Tags Categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} response.Envelope
// @Router /categories/{id}/courses [get]
func (h *CategoryHandler) Courses(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, served, err := h.categories.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تم جلب التصنيف بنجاح", detail, tierMeta(served))
}

// Create godoc
// @Summary Create category
// @Tags Categories
// @Accept json
// @Produce json
// @Param payload body service.CategoryRequest true "Category payload"
// @Success 200 {object} response.Envelope
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "البيانات المرسلة غير صالحة"))
		return
	}
	category, served, err := h.categories.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تمت إضافة التصنيف بنجاح", category, tierMeta(served))
}

// Update godoc
// @Summary Update category
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path int false "Category ID (may also travel in the payload)"
// @Param payload body service.CategoryRequest true "Category payload"
// @Success 200 {object} response.Envelope
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "البيانات المرسلة غير صالحة"))
		return
	}
	if raw := c.Param("id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		req.ID = id
	}
	category, served, err := h.categories.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تم تحديث التصنيف بنجاح", category, tierMeta(served))
}

// Delete godoc
// @Summary Delete category
// @Tags Categories
// @Produce json
// @Param id path int false "Category ID (or ?id= query)"
// @Success 200 {object} response.Envelope
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("id")
	}
	id, err := parseID(raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	served, err := h.categories.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تم حذف التصنيف بنجاح", nil, tierMeta(served))
}
