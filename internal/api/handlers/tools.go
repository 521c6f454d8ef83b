package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListTools describes the check catalog so callers can build a valid
// check_types list without guessing.
func (h *Handler) ListTools(c *gin.Context) {
	runners := h.orchestrator.Runners()

	tools := make([]gin.H, 0, len(runners))
	for _, runner := range runners {
		tools = append(tools, gin.H{
			"name":        runner.Name(),
			"description": runner.Description(),
			"weight":      runner.Weight(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"tool":   toolHealthCheck,
		"checks": tools,
	})
}
