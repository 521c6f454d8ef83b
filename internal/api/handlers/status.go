package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forceweaver/orghealth/internal/api/middleware"
	"github.com/forceweaver/orghealth/internal/core"
	"github.com/forceweaver/orghealth/internal/health"
	"github.com/forceweaver/orghealth/internal/version"
)

// Status reports the caller's connection state and the negotiated API
// version. With ?session_id= it also returns the progress snapshot of a
// running report, if one is still cached.
func (h *Handler) Status(c *gin.Context) {
	apiKey := c.MustGet(middleware.ContextAPIKey).(*core.APIKey)

	conn, err := h.resolveConnection(apiKey.UserID, c.Query("org_identifier"))

	body := gin.H{
		"service":            "ok",
		"supported_versions": version.Supported,
	}

	if err != nil {
		body["connection"] = gin.H{"connected": false}
	} else {
		connState := gin.H{
			"connected":      true,
			"org_identifier": conn.OrgIdentifier,
			"org_name":       conn.OrgName,
			"is_sandbox":     conn.IsSandbox,
			"last_auth":      conn.LastAuth,
			"usage_count":    conn.UsageCount,
		}
		if conn.LastAPIVersion != nil {
			connState["api_version"] = *conn.LastAPIVersion
		}
		if conn.LastError != nil {
			connState["last_error"] = *conn.LastError
		}
		body["connection"] = connState
	}

	if sessionID := c.Query("session_id"); sessionID != "" && h.cache != nil {
		if _, parseErr := uuid.Parse(sessionID); parseErr == nil {
			progress := health.NewCacheProgress(h.cache)
			if snapshot, snapErr := progress.Snapshot(c.Request.Context(), sessionID); snapErr == nil && snapshot != nil {
				body["progress"] = snapshot
			} else {
				body["progress"] = gin.H{"status": "not_found"}
			}
		}
	}

	c.JSON(http.StatusOK, body)
}
