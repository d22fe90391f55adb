package handlers

import (
	"net/http"
	"time"

	"malvinvet/internal/service"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	service service.StatsService
}

func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{service: statsService}
}

func (h *StatsHandler) Global(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.service.Global(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

func (h *StatsHandler) ByDoctor(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.service.ByDoctor(ctx, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"doctors": stats})
}
