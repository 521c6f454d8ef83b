package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) GetUsage(c *gin.Context) {
	userID := uuid.MustParse(c.GetString("user_id"))

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}

	logs, err := h.repo.GetUsageLogsByUser(userID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list usage logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list usage"})
		return
	}

	stats, err := h.repo.GetUsageStats(userID, time.Now().AddDate(0, 0, -days))
	if err != nil {
		h.logger.Error("failed to compute usage stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute usage stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":        logs,
		"stats":       stats,
		"period_days": days,
	})
}
