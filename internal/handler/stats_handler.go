package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/almanara-academy/courses-api/internal/service"
	"github.com/almanara-academy/courses-api/pkg/response"
)

// StatsHandler exposes the dashboard aggregate counts.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Get godoc
// @Summary Aggregate entity counts
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *StatsHandler) Get(c *gin.Context) {
	response.OK(c, "تم جلب الإحصائيات بنجاح", h.stats.Collect(c.Request.Context()))
}
