package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/service"
	"github.com/almanara-academy/courses-api/internal/tier"
	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
	"github.com/almanara-academy/courses-api/pkg/response"
)

// CourseHandler exposes the course endpoints.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param id query int false "Fetch a single course by id"
// @Param search query string false "Search title, code or instructor"
// @Param status query string false "Filter by status"
// @Param category_id query int false "Filter by category"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	if raw := c.Query("id"); raw != "" {
		h.getByID(c, raw)
		return
	}

	filter := models.CourseFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Status: c.Query("status"),
	}
	if raw := c.Query("category_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.CategoryID = id
		}
	}

	courses, served, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تم جلب الدورات بنجاح", courses, tierMeta(served))
}

// Get godoc
// @Summary Get one course
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	h.getByID(c, c.Param("id"))
}

func (h *CourseHandler) getByID(c *gin.Context, raw string) {
	id, err := parseID(raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	course, served, err := h.courses.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تم جلب الدورة بنجاح", course, tierMeta(served))
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "البيانات المرسلة غير صالحة"))
		return
	}
	course, served, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تمت إضافة الدورة بنجاح", course, tierMeta(served))
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Course payload with id"
// @Success 200 {object} response.Envelope
// @Router /courses [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "البيانات المرسلة غير صالحة"))
		return
	}
	course, served, err := h.courses.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تم تحديث الدورة بنجاح", course, tierMeta(served))
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Produce json
// @Param id query int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Query("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	served, err := h.courses.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تم حذف الدورة بنجاح", nil, tierMeta(served))
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "المعرف غير صالح")
	}
	return id, nil
}

func tierMeta(served tier.Tier) map[string]interface{} {
	if served == "" {
		return nil
	}
	return map[string]interface{}{"tier": string(served)}
}
