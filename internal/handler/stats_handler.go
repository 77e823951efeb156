package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-sis-api/internal/service"
	"github.com/noah-isme/campus-sis-api/pkg/response"
)

// StatsHandler exposes the statistics snapshot.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Departments godoc
// @Summary Latest statistics snapshot
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats/departments [get]
func (h *StatsHandler) Departments(c *gin.Context) {
	snapshot, err := h.stats.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil, map[string]interface{}{"generated_at": snapshot.GeneratedAt, "source": snapshot.Source})
}

// Refresh godoc
// @Summary Recompute statistics now
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats/refresh [post]
func (h *StatsHandler) Refresh(c *gin.Context) {
	snapshot, err := h.stats.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snapshot)
}
